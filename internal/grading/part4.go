package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/drain"
	"github.com/programme-lv/amqp-grader/internal/ports"
	"github.com/programme-lv/amqp-grader/internal/process"
)

const (
	clientModule = "client"
	quitCommand  = "q"
	// sent beyond the retention window so that eviction is observable
	overflowMessages = 5
	clientExitWait   = 20 * 50 * time.Millisecond
)

// Part4 types messages into the client and expects the server to keep only
// the most recent ones.
type Part4 struct {
	Builder build.Builder
	API     MessageAPI
	// Detector overrides charset detection of client output.
	Detector drain.Detector
	// Rand picks the first batch size. Nil uses the global source.
	Rand *rand.Rand
}

func (p *Part4) Name() string      { return "Part 4 - Client AMQP & message limit" }
func (p *Part4) MaxGrade() float64 { return 4 }
func (p *Part4) MinGrade() float64 { return 0 }

func (p *Part4) Grade(ctx context.Context, gc *Context) PartResult {
	if gc.CompilationFailed {
		return Result(p, []string{"Not trying to start server as compilation failed"}, 0)
	}
	if !gc.HasModule(clientModule) {
		return Result(p, []string{"No *client* module defined in the root *pom.xml*"}, 0)
	}
	cfg := gc.Config
	policy := PolicyFor(cfg)

	command, err := p.Builder.ClientCommand(ctx, clientModule, cfg.ClientMainClass, map[string]string{
		"spring.rabbitmq.port": strconv.Itoa(gc.BrokerPort),
	})
	if err != nil {
		var goalErr *build.GoalError
		if errors.As(err, &goalErr) {
			return Result(p, []string{"Unable to determine *client* module classpath: \n```\n" + goalErr.Output + "\n```"}, 0)
		}
		return Result(p, []string{"Unable to determine *client* module classpath: " + err.Error()}, 0)
	}

	defer releasePort(ctx, gc)
	client, err := process.Start(process.Spec{
		Command:     command,
		Dir:         gc.Exercise.Root,
		WriteSettle: cfg.WriteSettleDelay,
	})
	if err != nil {
		return Result(p, []string{fmt.Sprintf("Cannot start %s: %v", cfg.ClientMainClass, err)}, 0)
	}
	defer client.Close()

	server, err := startServer(ctx, p.Builder, gc)
	if err != nil {
		return Result(p, []string{"Cannot start server: " + err.Error()}, 0)
	}
	defer closeQuietly("server", server)

	if err := ports.WaitListening(ctx, cfg.HTTPPort, cfg.ServerStartTimeout, cfg.PortPollInterval); err != nil {
		return Result(p, []string{serverStartFailure(gc)}, 0)
	}

	drainer := drain.New(cfg.ProcessReadTimeout, cfg.ProcessReadRetryDelay)
	if p.Detector != nil {
		drainer.Detector = p.Detector
	}
	logClient := func() {
		for _, out := range drainer.DrainAll(ctx, client.Stdout()) {
			slog.Debug("client output", "pid", client.Pid(), "out", out)
		}
	}

	if !client.Alive() {
		stderr, _ := drainer.ReadAvailable(ctx, client.Stderr())
		return Result(p, []string{"client crashed at launch: " + stderr}, 0)
	}

	s := newScore(p)

	sent := 1 + randIntN(p.Rand, 6)
	logClient()
	for i := range sent {
		client.WriteLine("message " + strconv.Itoa(i))
	}
	logClient()
	if err := sleep(ctx, cfg.PublishSettleDelay); err != nil {
		s.zero("Grading interrupted: " + err.Error())
		return s.result()
	}

	msgs, err := p.API.FetchMessages(ctx)
	switch checkFetch(s, policy, err, 1) {
	case fetchAbort:
		return s.result()
	case fetchOK:
		if len(msgs) != sent {
			s.zero(fmt.Sprintf("GET /api/message should respond a list of %d messages (messages sent), but was: %d", sent, len(msgs)))
		}
	}

	total := cfg.Retention + overflowMessages
	for i := sent; i < total; i++ {
		client.WriteLine("message " + strconv.Itoa(i))
	}
	client.WriteLine(quitCommand)
	logClient()
	if !client.Wait(clientExitWait) {
		slog.Debug("client still running after quit", "pid", client.Pid())
	}
	if err := sleep(ctx, cfg.FinalSettleDelay); err != nil {
		s.zero("Grading interrupted: " + err.Error())
		return s.result()
	}

	msgs, err = p.API.FetchMessages(ctx)
	if checkFetch(s, policy, err, 1) == fetchOK && len(msgs) != cfg.Retention {
		s.deduct(0.5, fmt.Sprintf("GET /api/message should respond a list of the last *%d* messages received but returned *%d*", cfg.Retention, len(msgs)))
	}
	return s.result()
}
