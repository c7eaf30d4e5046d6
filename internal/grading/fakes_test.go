package grading_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/programme-lv/amqp-grader/internal/broker"
	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/ci"
	"github.com/programme-lv/amqp-grader/internal/environment"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func testConfig(t *testing.T) environment.Config {
	cfg := environment.Default()
	cfg.HTTPPort = freePort(t)
	cfg.ServerStartTimeout = 2 * time.Second
	cfg.PortFreeTimeout = time.Second
	cfg.PortPollInterval = 10 * time.Millisecond
	cfg.ProcessReadTimeout = 150 * time.Millisecond
	cfg.ProcessReadRetryDelay = 10 * time.Millisecond
	cfg.WriteSettleDelay = 5 * time.Millisecond
	cfg.PublishSettleDelay = 50 * time.Millisecond
	cfg.FinalSettleDelay = 200 * time.Millisecond
	return cfg
}

// chatServer plays the submitted server: it keeps the messages it is given
// and lists them on GET /api/message.
type chatServer struct {
	mu       sync.Mutex
	messages []string
	// retention of 0 keeps everything
	retention int
	// staleOnce is listed by the first GET only
	staleOnce []string
	// brokenBody replaces the JSON list once a message was received
	brokenBody string
	status     int
	// onStart runs once the port is bound
	onStart func()
}

func (c *chatServer) add(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	if c.retention > 0 && len(c.messages) > c.retention {
		c.messages = c.messages[len(c.messages)-c.retention:]
	}
}

func (c *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/message" {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		c.add(string(body))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != 0 {
		w.WriteHeader(c.status)
		return
	}
	if c.brokenBody != "" && len(c.messages) > 0 {
		w.Write([]byte(c.brokenBody))
		return
	}
	list := append([]string{}, c.messages...)
	if c.staleOnce != nil {
		list = append(c.staleOnce, list...)
		c.staleOnce = nil
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// serverExec binds the chat server after delay, like a slow booting JVM.
type serverExec struct {
	mu     sync.Mutex
	srv    *http.Server
	closed bool
	stop   chan struct{}
}

func (c *chatServer) start(port int, delay time.Duration) *serverExec {
	e := &serverExec{stop: make(chan struct{})}
	go func() {
		select {
		case <-time.After(delay):
		case <-e.stop:
			return
		}
		l, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(port))
		if err != nil {
			return
		}
		srv := &http.Server{Handler: c}
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			l.Close()
			return
		}
		e.srv = srv
		e.mu.Unlock()
		if c.onStart != nil {
			c.onStart()
		}
		srv.Serve(l)
	}()
	return e
}

func (e *serverExec) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.stop)
	if e.srv != nil {
		return e.srv.Close()
	}
	return nil
}

type nopExecution struct{}

func (nopExecution) Close() error { return nil }

type fakeBuilder struct {
	noProject bool
	status    build.Status
	statusErr error
	modules   []string

	server      *chatServer
	port        int
	serverDelay time.Duration

	clientCmd   []string
	clientErr   error
	clientProps map[string]string

	goals [][]string
}

var _ build.Builder = (*fakeBuilder)(nil)

func (f *fakeBuilder) HasProject() bool { return !f.noProject }

func (f *fakeBuilder) CompileAndTest(context.Context) (build.Status, error) {
	return f.status, f.statusErr
}

func (f *fakeBuilder) Modules(context.Context) ([]string, error) {
	if f.modules == nil {
		return nil, errors.New("no pom")
	}
	return f.modules, nil
}

func (f *fakeBuilder) Prepare(_ context.Context, goal string) error {
	f.goals = append(f.goals, []string{goal})
	return nil
}

func (f *fakeBuilder) RunAsync(_ context.Context, goal string, args []string, _ []string) (build.Execution, error) {
	f.goals = append(f.goals, append([]string{goal}, args...))
	if f.server == nil {
		return nopExecution{}, nil
	}
	return f.server.start(f.port, f.serverDelay), nil
}

func (f *fakeBuilder) ClientCommand(_ context.Context, module, mainClass string, props map[string]string) ([]string, error) {
	f.clientProps = props
	return f.clientCmd, f.clientErr
}

// fakeBroker routes published messages straight into the chat server once
// the server declared the queue.
type fakeBroker struct {
	mu         sync.Mutex
	queues     map[string]bool
	server     *chatServer
	deleteErr  error
	publishErr error
	deleted    []string
	published  int
}

func newFakeBroker(server *chatServer) *fakeBroker {
	return &fakeBroker{queues: map[string]bool{}, server: server}
}

func (b *fakeBroker) declare(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[name] = true
}

func (b *fakeBroker) DeleteQueue(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, name)
	delete(b.queues, name)
	return b.deleteErr
}

func (b *fakeBroker) QueueExists(_ context.Context, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queues[name]
}

func (b *fakeBroker) Publish(_ context.Context, name string, msgs []broker.QueueMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published += len(msgs)
	if b.queues[name] {
		for _, body := range broker.Bodies(msgs) {
			b.server.add(body)
		}
	}
	return nil
}

type fakeRuns struct {
	runs []ci.WorkflowRun
	err  error
}

func (f fakeRuns) ListRuns(context.Context, string) ([]ci.WorkflowRun, error) {
	return f.runs, f.err
}
