package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/programme-lv/amqp-grader/internal/process"
)

const classpathFile = "cp.txt"

// Maven runs mvn in the submission root.
type Maven struct {
	Root string
	// Executable defaults to mvn from PATH.
	Executable string
	// Env is passed to every mvn invocation on top of the grader's own.
	Env []string
	// JavaHome selects the java binary for ClientCommand. Empty means
	// JAVA_HOME, then PATH.
	JavaHome string
}

var _ Builder = (*Maven)(nil)

func NewMaven(root string) *Maven {
	return &Maven{Root: root, Executable: "mvn"}
}

func (m *Maven) command(args ...string) []string {
	exe := m.Executable
	if exe == "" {
		exe = "mvn"
	}
	return append([]string{exe, "--batch-mode"}, args...)
}

func (m *Maven) pomPath() string {
	return filepath.Join(m.Root, "pom.xml")
}

func (m *Maven) HasProject() bool {
	_, err := os.Stat(m.pomPath())
	return err == nil
}

// run executes mvn to completion and returns its combined output. A non
// zero exit is reported as *GoalError.
func (m *Maven) run(ctx context.Context, args ...string) (string, error) {
	goal := strings.Join(args, " ")
	start := time.Now()

	h, err := process.Start(process.Spec{
		Command: m.command(args...),
		Dir:     m.Root,
		Env:     m.Env,
	})
	if err != nil {
		return "", err
	}
	defer h.Close()

	select {
	case <-h.Done():
	case <-ctx.Done():
		return "", fmt.Errorf("mvn %s interrupted: %w", goal, ctx.Err())
	}

	out := string(h.Stdout().Take()) + string(h.Stderr().Take())
	slog.Debug("mvn finished", "goal", goal, "exit", h.ExitCode(), "elapsed", time.Since(start))
	if h.ExitCode() != 0 {
		return out, &GoalError{Goal: goal, Output: out}
	}
	return out, nil
}

func (m *Maven) CompileAndTest(ctx context.Context) (Status, error) {
	var goalErr *GoalError
	if _, err := m.run(ctx, "clean", "test-compile"); err != nil {
		if errors.As(err, &goalErr) {
			return StatusCompileFailed, nil
		}
		return StatusCompileFailed, err
	}
	if _, err := m.run(ctx, "verify"); err != nil {
		if errors.As(err, &goalErr) {
			return StatusTestFailed, nil
		}
		return StatusTestFailed, err
	}
	return StatusOK, nil
}

// Version returns the first line of mvn -v.
func (m *Maven) Version(ctx context.Context) (string, error) {
	out, err := m.run(ctx, "-v")
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return first, nil
}

func (m *Maven) Modules(ctx context.Context) ([]string, error) {
	return ReadModules(m.pomPath())
}

func (m *Maven) Prepare(ctx context.Context, goal string) error {
	_, err := m.run(ctx, goal)
	return err
}

func (m *Maven) RunAsync(ctx context.Context, goal string, args []string, env []string) (Execution, error) {
	h, err := process.Start(process.Spec{
		Command: m.command(append([]string{goal}, args...)...),
		Dir:     m.Root,
		Env:     append(slices.Clone(m.Env), env...),
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("mvn started in background", "goal", goal, "pid", h.Pid())
	return h, nil
}

// ClientCommand builds the module classpath with the dependency plugin and
// returns a java command line using it.
func (m *Maven) ClientCommand(ctx context.Context, module, mainClass string, props map[string]string) ([]string, error) {
	_, err := m.run(ctx,
		"dependency:build-classpath",
		"-DincludeScope=compile",
		"-Dmdep.outputFile="+classpathFile,
		"-pl", ":"+module,
	)
	if err != nil {
		return nil, err
	}

	moduleDir := filepath.Join(m.Root, module)
	deps, err := os.ReadFile(filepath.Join(moduleDir, classpathFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read classpath of %s: %w", module, err)
	}
	cp := filepath.Join(moduleDir, "target", "classes")
	if d := strings.TrimSpace(string(deps)); d != "" {
		cp += string(os.PathListSeparator) + d
	}

	cmd := []string{m.java(), "-cp", cp}
	for _, k := range slices.Sorted(maps.Keys(props)) {
		cmd = append(cmd, "-D"+k+"="+props[k])
	}
	return append(cmd, mainClass), nil
}

func (m *Maven) java() string {
	home := m.JavaHome
	if home == "" {
		home = os.Getenv("JAVA_HOME")
	}
	if home == "" {
		return "java"
	}
	return filepath.Join(home, "bin", "java")
}
