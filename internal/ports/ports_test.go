package ports_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/programme-lv/amqp-grader/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort binds to :0 and releases the port right away.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func listen(t *testing.T, port int) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	serve(l)
	return l
}

func serve(l net.Listener) {
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
}

func TestWaitListeningSucceedsOnceBound(t *testing.T) {
	port := freePort(t)

	bound := make(chan net.Listener, 1)
	go func() {
		time.Sleep(150 * time.Millisecond)
		l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			close(bound)
			return
		}
		serve(l)
		bound <- l
	}()
	t.Cleanup(func() {
		if l, ok := <-bound; ok {
			l.Close()
		}
	})

	err := ports.WaitListening(context.Background(), port, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ports.IsListening(port))
}

func TestWaitListeningTimesOut(t *testing.T) {
	port := freePort(t)

	start := time.Now()
	err := ports.WaitListening(context.Background(), port, 200*time.Millisecond, 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitFreed(t *testing.T) {
	port := freePort(t)
	l := listen(t, port)

	err := ports.WaitFreed(context.Background(), port, 100*time.Millisecond, 20*time.Millisecond)
	require.ErrorIs(t, err, ports.ErrTimeout)

	go func() {
		time.Sleep(100 * time.Millisecond)
		l.Close()
	}()
	err = ports.WaitFreed(context.Background(), port, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, err)
}

func TestWaitHonorsContext(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ports.WaitListening(ctx, port, 5*time.Second, 20*time.Millisecond)
	require.ErrorIs(t, err, context.Canceled)
}
