package main

import (
	"context"
	"log/slog"

	"github.com/programme-lv/amqp-grader/internal/broker"
	"github.com/urfave/cli/v3"
)

func resetQueueCommand() *cli.Command {
	return &cli.Command{
		Name:   "reset-queue",
		Usage:  "delete the chat queue with its messages",
		Flags:  commonFlags(),
		Action: resetQueue,
	}
}

func resetQueue(ctx context.Context, cmd *cli.Command) error {
	setupLogger(cmd.Bool("verbose"))
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := broker.NewClient(cfg.AMQPURL).DeleteQueue(ctx, cfg.QueueName); err != nil {
		return err
	}
	slog.Info("queue deleted", "queue", cfg.QueueName)
	return nil
}
