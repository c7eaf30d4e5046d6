// Package build drives the build tool of a submission.
package build

import (
	"context"
	"fmt"
)

type Status int

const (
	StatusOK Status = iota
	StatusCompileFailed
	StatusTestFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCompileFailed:
		return "compile failed"
	case StatusTestFailed:
		return "test failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Execution is a running build goal. Close stops it.
type Execution interface {
	Close() error
}

type Builder interface {
	// HasProject reports whether the submission has a build file at all.
	HasProject() bool
	CompileAndTest(ctx context.Context) (Status, error)
	// Modules lists the modules declared in the root build file, in order.
	Modules(ctx context.Context) ([]string, error)
	// Prepare resolves plugins ahead of RunAsync so that their download
	// does not count against the server start timeout.
	Prepare(ctx context.Context, goal string) error
	RunAsync(ctx context.Context, goal string, args []string, env []string) (Execution, error)
	// ClientCommand resolves the command line that launches mainClass from
	// module with the given system properties.
	ClientCommand(ctx context.Context, module, mainClass string, props map[string]string) ([]string, error)
}

// GoalError carries the output of a goal that did not succeed.
type GoalError struct {
	Goal   string
	Output string
}

func (e *GoalError) Error() string {
	return fmt.Sprintf("goal %s failed:\n%s", e.Goal, e.Output)
}
