package grading

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/programme-lv/amqp-grader/internal/broker"
	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/ports"
)

// Part3 publishes messages straight to the queue and expects the server to
// expose them over HTTP.
type Part3 struct {
	Builder build.Builder
	Broker  Broker
	API     MessageAPI
	// Rand picks the batch size. Nil uses the global source.
	Rand *rand.Rand
}

func (p *Part3) Name() string      { return "Part 3 - Listener AMQP & Server HTTP" }
func (p *Part3) MaxGrade() float64 { return 4 }
func (p *Part3) MinGrade() float64 { return 0 }

func (p *Part3) Grade(ctx context.Context, gc *Context) PartResult {
	if gc.CompilationFailed {
		return Result(p, []string{"Not trying to start server as compilation failed"}, 0)
	}
	cfg := gc.Config
	policy := PolicyFor(cfg)

	if err := p.Builder.Prepare(ctx, cfg.SpringBootPlugin+":help"); err != nil {
		slog.Warn("cannot resolve server plugin ahead of time", "err", err)
	}
	if err := p.Broker.DeleteQueue(ctx, cfg.QueueName); err != nil {
		return Result(p, []string{fmt.Sprintf("Could not reset queue `%s`: %v", cfg.QueueName, err)}, 0)
	}

	defer releasePort(ctx, gc)
	server, err := startServer(ctx, p.Builder, gc)
	if err != nil {
		return Result(p, []string{"Cannot start server: " + err.Error()}, 0)
	}
	defer closeQuietly("server", server)

	if err := ports.WaitListening(ctx, cfg.HTTPPort, cfg.ServerStartTimeout, cfg.PortPollInterval); err != nil {
		return Result(p, []string{serverStartFailure(gc)}, 0)
	}

	s := newScore(p)
	const penalty = 0.5

	msgs, err := p.API.FetchMessages(ctx)
	switch checkFetch(s, policy, err, penalty) {
	case fetchAbort:
		return s.result()
	case fetchOK:
		if len(msgs) != 0 {
			s.deduct(penalty, fmt.Sprintf("GET /api/message should respond with an empty list when no message was sent, but got: *%d* messages", len(msgs)))
		}
	}

	if !p.Broker.QueueExists(ctx, cfg.QueueName) {
		s.deduct(penalty, fmt.Sprintf("No queue named `%s` was created by the server when starting", cfg.QueueName))
		return s.result()
	}

	sent := 3 + randIntN(p.Rand, 6)
	if err := p.Broker.Publish(ctx, cfg.QueueName, broker.TextMessages("hello", sent)); err != nil {
		s.zero(fmt.Sprintf("Could not publish messages to queue `%s`: %v", cfg.QueueName, err))
		return s.result()
	}
	if err := sleep(ctx, cfg.PublishSettleDelay); err != nil {
		s.zero("Grading interrupted: " + err.Error())
		return s.result()
	}

	msgs, err = p.API.FetchMessages(ctx)
	if checkFetch(s, policy, err, penalty) == fetchOK && len(msgs) != sent {
		s.deduct(penalty, fmt.Sprintf("GET /api/message should respond a list of %d messages (messages sent), but was: %d", sent, len(msgs)))
	}
	return s.result()
}
