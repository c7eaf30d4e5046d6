package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/amqp-grader/internal/broker"
	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/environment"
	"github.com/programme-lv/amqp-grader/internal/ports"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 30 * time.Second

type health int

const (
	healthOK health = iota
	healthWarn
	healthError
)

func (h health) String() string {
	switch h {
	case healthOK:
		return "OKAY"
	case healthWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

func (h health) colored() string {
	switch h {
	case healthOK:
		return color.HiGreenString(h.String())
	case healthWarn:
		return color.HiYellowString(h.String())
	default:
		return color.HiRedString(h.String())
	}
}

type feedbackRow struct {
	unit    string
	health  health
	message string
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "check that the grading host can run a submission",
		Flags:  commonFlags(),
		Action: checkHealth,
	}
}

func checkHealth(ctx context.Context, cmd *cli.Command) error {
	setupLogger(cmd.Bool("verbose"))
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	rows := runChecks(ctx, []func(context.Context) feedbackRow{
		func(ctx context.Context) feedbackRow { return checkBroker(ctx, cfg) },
		func(ctx context.Context) feedbackRow { return checkMaven(ctx, build.NewMaven("")) },
		func(ctx context.Context) feedbackRow { return checkHTTPPort(cfg.HTTPPort) },
		func(ctx context.Context) feedbackRow { return checkGitHubToken(cfg) },
	})
	outputFeedback(os.Stdout, rows)

	for _, r := range rows {
		if r.health == healthError {
			return cli.Exit("", 1)
		}
	}
	return nil
}

// runChecks runs every check concurrently and keeps their order.
func runChecks(ctx context.Context, checks []func(context.Context) feedbackRow) []feedbackRow {
	rows := make([]feedbackRow, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			rows[i] = check(ctx)
			slog.Debug("health check done", "unit", rows[i].unit, "health", rows[i].health)
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func checkBroker(ctx context.Context, cfg environment.Config) feedbackRow {
	row := feedbackRow{unit: "RabbitMQ"}
	if err := broker.NewClient(cfg.AMQPURL).Ping(ctx); err != nil {
		row.health = healthError
		row.message = err.Error()
		return row
	}
	row.message = "reachable"
	return row
}

func checkMaven(ctx context.Context, m *build.Maven) feedbackRow {
	row := feedbackRow{unit: "Maven"}
	v, err := m.Version(ctx)
	if err != nil {
		row.health = healthError
		row.message = err.Error()
		return row
	}
	row.message = v
	return row
}

func checkHTTPPort(port int) feedbackRow {
	row := feedbackRow{unit: "HTTP port " + strconv.Itoa(port)}
	if ports.IsListening(port) {
		row.health = healthError
		row.message = "already in use, submissions cannot bind it"
		return row
	}
	row.message = "free"
	return row
}

func checkGitHubToken(cfg environment.Config) feedbackRow {
	row := feedbackRow{unit: "GitHub token"}
	if cfg.GitHubToken == "" {
		row.health = healthWarn
		row.message = "not set, CI checks are rate limited"
		return row
	}
	row.message = "set"
	return row
}

func outputFeedback(w io.Writer, rows []feedbackRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tHEALTH\tMESSAGE")
	for _, r := range rows {
		msg := strings.ReplaceAll(strings.TrimSpace(r.message), "\n", " ")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.unit, r.health.colored(), msg)
	}
	tw.Flush()
}
