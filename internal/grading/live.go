package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/programme-lv/amqp-grader/internal/broker"
	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/chatapi"
	"github.com/programme-lv/amqp-grader/internal/ports"
)

// Broker is the part of broker.Client the live parts rely on.
type Broker interface {
	DeleteQueue(ctx context.Context, name string) error
	QueueExists(ctx context.Context, name string) bool
	Publish(ctx context.Context, name string, msgs []broker.QueueMessage) error
}

// MessageAPI is the part of chatapi.Client the live parts rely on.
type MessageAPI interface {
	FetchMessages(ctx context.Context) ([]string, error)
}

var (
	_ Broker     = (*broker.Client)(nil)
	_ MessageAPI = (*chatapi.Client)(nil)
)

// startServer runs the server module through the build tool with both ports
// injected.
func startServer(ctx context.Context, b build.Builder, gc *Context) (build.Execution, error) {
	cfg := gc.Config
	var args []string
	if len(gc.Modules) > 0 {
		args = append(args, "-pl", ":server")
	}
	args = append(args, fmt.Sprintf("-Dspring-boot.run.jvmArguments=-Dserver.port=%d -Dspring.rabbitmq.port=%d",
		cfg.HTTPPort, gc.BrokerPort))
	return b.RunAsync(ctx, cfg.SpringBootPlugin+":run", args, nil)
}

func serverStartFailure(gc *Context) string {
	return fmt.Sprintf("Server failed to start within %d sec.", int(gc.Config.ServerStartTimeout.Seconds()))
}

// releasePort waits for the HTTP port to be free so that the next part can
// bind it. Failing to do so is only logged.
func releasePort(ctx context.Context, gc *Context) {
	cfg := gc.Config
	err := ports.WaitFreed(context.WithoutCancel(ctx), cfg.HTTPPort, cfg.PortFreeTimeout, cfg.PortPollInterval)
	if err != nil {
		slog.Warn("http port not freed", "port", cfg.HTTPPort, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closeQuietly(name string, e build.Execution) {
	if err := e.Close(); err != nil {
		slog.Warn("failed to stop "+name, "err", err)
	}
}

// fetchOutcome tells a part what to do after a failed GET.
type fetchOutcome int

const (
	fetchOK fetchOutcome = iota
	// the check failed but the part can go on
	fetchFailed
	// the part cannot go on
	fetchAbort
)

// checkFetch records err on s. statusCost is the fraction deducted for an
// unsuccessful status.
func checkFetch(s *score, policy Policy, err error, statusCost float64) fetchOutcome {
	if err == nil {
		return fetchOK
	}
	var statusErr *chatapi.StatusError
	var payloadErr *chatapi.PayloadError
	switch {
	case errors.As(err, &statusErr):
		s.deduct(statusCost, "Unsuccessful response of GET /api/message: "+strconv.Itoa(statusErr.Code))
		return fetchFailed
	case errors.As(err, &payloadErr):
		s.violation(policy, "Invalid JSON response for GET /api/message: "+payloadErr.Detail)
		return fetchFailed
	default:
		s.zero("Fail to call server: " + err.Error())
		return fetchAbort
	}
}

func randIntN(r *rand.Rand, n int) int {
	if r == nil {
		return rand.IntN(n)
	}
	return r.IntN(n)
}
