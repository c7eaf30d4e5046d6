// Package ports polls local TCP ports until a server binds or releases them.
package ports

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

var ErrTimeout = errors.New("timed out waiting for port")

const dialTimeout = 200 * time.Millisecond

// IsListening reports whether something accepts connections on 127.0.0.1:port.
func IsListening(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WaitListening blocks until port accepts a connection or timeout elapses.
func WaitListening(ctx context.Context, port int, timeout, interval time.Duration) error {
	err := poll(ctx, timeout, interval, func() bool { return IsListening(port) })
	if err != nil {
		return fmt.Errorf("port %d not listened to within %s: %w", port, timeout, err)
	}
	return nil
}

// WaitFreed blocks until port stops accepting connections or timeout elapses.
func WaitFreed(ctx context.Context, port int, timeout, interval time.Duration) error {
	err := poll(ctx, timeout, interval, func() bool { return !IsListening(port) })
	if err != nil {
		return fmt.Errorf("port %d still in use after %s: %w", port, timeout, err)
	}
	return nil
}

func poll(ctx context.Context, timeout, interval time.Duration, done func() bool) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if done() {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
