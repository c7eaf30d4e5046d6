package grading

import (
	"context"
	"log/slog"

	"github.com/programme-lv/amqp-grader/internal/build"
)

// Part1 compiles the submission and runs its tests.
type Part1 struct {
	Builder build.Builder
}

func (p *Part1) Name() string      { return "Part 1 - Compilation & Tests" }
func (p *Part1) MaxGrade() float64 { return 2 }
func (p *Part1) MinGrade() float64 { return 0 }

func (p *Part1) Grade(ctx context.Context, gc *Context) PartResult {
	if !p.Builder.HasProject() {
		gc.CompilationFailed = true
		gc.TestFailed = true
		return Result(p, []string{"Not a Maven project"}, 0)
	}

	status, err := p.Builder.CompileAndTest(ctx)
	if err != nil {
		gc.CompilationFailed = true
		gc.TestFailed = true
		return Result(p, []string{"Unable to run the build: " + err.Error()}, 0)
	}
	if status == build.StatusCompileFailed {
		gc.CompilationFailed = true
		gc.TestFailed = true
		return Result(p, []string{"Compilation failed, see `mvn test-compile`"}, 0)
	}

	modules, err := p.Builder.Modules(ctx)
	if err != nil {
		slog.Warn("cannot read module list", "err", err)
	}
	gc.Modules = modules

	if status == build.StatusTestFailed {
		gc.TestFailed = true
		return Result(p, []string{"There are test failures, see `mvn verify`"}, p.MaxGrade()/2)
	}
	return Result(p, nil, p.MaxGrade())
}
