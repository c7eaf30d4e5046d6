package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/amqp-grader/api"
	"github.com/programme-lv/amqp-grader/internal/broker"
	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/chatapi"
	"github.com/programme-lv/amqp-grader/internal/ci"
	"github.com/programme-lv/amqp-grader/internal/environment"
	"github.com/programme-lv/amqp-grader/internal/gatherer"
	"github.com/programme-lv/amqp-grader/internal/gatherer/natsgath"
	"github.com/programme-lv/amqp-grader/internal/gatherer/rmqgath"
	"github.com/programme-lv/amqp-grader/internal/gatherer/sqsgath"
	"github.com/programme-lv/amqp-grader/internal/gatherer/termgath"
	"github.com/programme-lv/amqp-grader/internal/grading"
	"github.com/programme-lv/amqp-grader/internal/process"
	"github.com/programme-lv/amqp-grader/internal/xdg"
	"github.com/urfave/cli/v3"
)

func gradeCommand() *cli.Command {
	return &cli.Command{
		Name:  "grade",
		Usage: "grade the submission checked out in --repo",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "repo", Required: true, Usage: "submission checkout"},
			&cli.StringFlag{Name: "slug", Usage: "GitHub owner/name, read from .git/config when empty"},
		),
		Action: grade,
	}
}

func grade(ctx context.Context, cmd *cli.Command) error {
	setupLogger(cmd.Bool("verbose"))

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	brokerPort, err := broker.Port(cfg.AMQPURL)
	if err != nil {
		return err
	}

	repo, err := filepath.Abs(cmd.String("repo"))
	if err != nil {
		return err
	}
	slug := cmd.String("slug")
	if slug == "" {
		slug, err = ci.SlugFromRemote(repo)
		if err != nil {
			slog.Warn("cannot determine GitHub repository", "repo", repo, "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			n := process.Live.KillAll()
			slog.Warn("interrupted, killed running processes", "count", n)
		case <-finished:
		}
	}()

	runUuid := uuid.NewString()
	report := gatherer.NewReportBuilder()
	gatherers, closeGatherers := resultGatherers(ctx, cfg)
	defer closeGatherers()

	brk := broker.NewClient(cfg.AMQPURL)
	if err := brk.Ping(ctx); err != nil {
		slog.Warn("broker is not reachable, live parts will fail", "url", cfg.AMQPURL, "err", err)
	}

	o := &grading.Orchestrator{
		Parts: grading.DefaultParts(
			build.NewMaven(repo),
			ci.NewGitHub(cfg.GitHubToken),
			brk,
			chatapi.NewClient(cfg.HTTPPort),
		),
		Gatherer: gatherer.Multi(append(gatherers, report)...),
		RunUuid:  runUuid,
	}
	gc := grading.NewContext(cfg, brokerPort, grading.Exercise{Root: repo, Slug: slug})
	o.Run(ctx, gc)

	path, err := writeReport(report.Report())
	if err != nil {
		slog.Error("failed to write report", "err", err)
		return nil
	}
	slog.Info("report written", "path", path)
	return nil
}

// resultGatherers always includes the terminal. NATS, SQS and the results
// queue are added when configured; failing to reach one only costs its stream.
func resultGatherers(ctx context.Context, cfg environment.Config) ([]gatherer.ResultGatherer, func()) {
	res := []gatherer.ResultGatherer{termgath.New()}
	closers := []func(){}

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name(appName))
		if err != nil {
			slog.Warn("failed to connect to NATS", "url", cfg.NatsURL, "err", err)
		} else {
			closers = append(closers, func() {
				if err := nc.Drain(); err != nil {
					slog.Warn("failed to drain NATS connection", "err", err)
				}
			})
			g, err := natsgath.New(nc, cfg.NatsSubject)
			if err != nil {
				slog.Warn("failed to create NATS gatherer", "err", err)
			} else {
				res = append(res, g)
			}
		}
	}

	if cfg.ResultsQueue != "" {
		g, closeConn, err := rmqgath.Dial(cfg.AMQPURL, cfg.ResultsQueue)
		if err != nil {
			slog.Warn("failed to create results queue gatherer", "queue", cfg.ResultsQueue, "err", err)
		} else {
			closers = append(closers, closeConn)
			res = append(res, g)
		}
	}

	if cfg.SqsQueueURL != "" {
		g, err := sqsgath.NewFromDefaultConfig(ctx, cfg.SqsQueueURL)
		if err != nil {
			slog.Warn("failed to create SQS gatherer", "queue", cfg.SqsQueueURL, "err", err)
		} else {
			res = append(res, g)
		}
	}

	return res, func() {
		for _, c := range closers {
			c()
		}
	}
}

func writeReport(r api.Report) (string, error) {
	dir := xdg.New(appName).ReportDir()
	if err := xdg.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.RunUuid+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
