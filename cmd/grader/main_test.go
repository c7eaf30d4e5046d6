package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/amqp-grader/api"
	"github.com/programme-lv/amqp-grader/internal/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runWithFlags(t *testing.T, args ...string) (environment.Config, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{"HTTP_PORT", "QUEUE_NAME", "CONTRACT_VIOLATION_POLICY"} {
		t.Setenv(key, "")
	}

	var cfg environment.Config
	var loadErr error
	cmd := &cli.Command{
		Name:  "test",
		Flags: commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, loadErr = loadConfig(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return cfg, loadErr
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grader.toml")
	require.NoError(t, os.WriteFile(path, []byte("http_port = 9001\nqueue_name = \"chat\"\n"), 0o644))

	cfg, err := runWithFlags(t, "--config", path, "--http-port", "9002", "--contract-violation", "deduct")
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.HTTPPort)
	assert.Equal(t, "chat", cfg.QueueName)
	assert.Equal(t, environment.PolicyDeduct, cfg.ContractViolation)
}

func TestInvalidFlagIsRejected(t *testing.T) {
	_, err := runWithFlags(t, "--contract-violation", "lenient")
	assert.ErrorContains(t, err, "unknown contract violation policy")
}

func TestRunChecksKeepsOrder(t *testing.T) {
	slow := func(ctx context.Context) feedbackRow {
		time.Sleep(50 * time.Millisecond)
		return feedbackRow{unit: "slow"}
	}
	fast := func(ctx context.Context) feedbackRow {
		return feedbackRow{unit: "fast", health: healthWarn}
	}
	rows := runChecks(context.Background(), []func(context.Context) feedbackRow{slow, fast})
	require.Len(t, rows, 2)
	assert.Equal(t, "slow", rows[0].unit)
	assert.Equal(t, "fast", rows[1].unit)
}

func TestOutputFeedback(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	outputFeedback(&buf, []feedbackRow{
		{unit: "RabbitMQ", health: healthOK, message: "reachable"},
		{unit: "Maven", health: healthError, message: "exec: \"mvn\": not found\n"},
	})
	assert.Equal(t, "UNIT      HEALTH  MESSAGE\n"+
		"RabbitMQ  OKAY    reachable\n"+
		"Maven     ERROR   exec: \"mvn\": not found\n", buf.String())
}

func TestGitHubTokenCheck(t *testing.T) {
	assert.Equal(t, healthWarn, checkGitHubToken(environment.Default()).health)
	cfg := environment.Default()
	cfg.GitHubToken = "ghp_x"
	assert.Equal(t, healthOK, checkGitHubToken(cfg).health)
}

func TestWriteReport(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	path, err := writeReport(api.Report{RunUuid: "run-1", Exercise: "jdoe/chat", Grade: 9, MaxGrade: 11})
	require.NoError(t, err)
	assert.Equal(t, "run-1.json", filepath.Base(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var r api.Report
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, 9.0, r.Grade)
}
