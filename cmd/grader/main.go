package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/programme-lv/amqp-grader/internal/environment"
	"github.com/programme-lv/amqp-grader/internal/xdg"
	"github.com/urfave/cli/v3"
)

const appName = "grader"

func main() {
	cmd := &cli.Command{
		Name:  appName,
		Usage: "grade chat exercises built on Spring Boot and RabbitMQ",
		Commands: []*cli.Command{
			gradeCommand(),
			healthCommand(),
			resetQueueCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug messages"},
		&cli.IntFlag{Name: "http-port", Usage: "port the submission server listens on"},
		&cli.StringFlag{Name: "amqp-url", Usage: "broker URL"},
		&cli.StringFlag{Name: "contract-violation", Usage: "zero or deduct"},
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	})))
}

// loadConfig reads --config, else the XDG config file when it exists, and
// applies the flag overrides last.
func loadConfig(cmd *cli.Command) (environment.Config, error) {
	path := cmd.String("config")
	if path == "" {
		candidate := xdg.New(appName).ConfigFile(appName + ".toml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		slog.Debug("reading config", "path", path)
	}

	cfg, err := environment.ReadConfig(path)
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, cmd)
	return cfg, cfg.Validate()
}

func applyFlags(cfg *environment.Config, cmd *cli.Command) {
	if cmd.IsSet("http-port") {
		cfg.HTTPPort = cmd.Int("http-port")
	}
	if cmd.IsSet("amqp-url") {
		cfg.AMQPURL = cmd.String("amqp-url")
	}
	if cmd.IsSet("contract-violation") {
		cfg.ContractViolation = cmd.String("contract-violation")
	}
}
