package grading

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/programme-lv/amqp-grader/internal/gatherer"
)

// Orchestrator grades parts one after another. A failing part never stops
// the ones after it.
type Orchestrator struct {
	Parts    []PartGrader
	Gatherer gatherer.ResultGatherer
	RunUuid  string
}

func (o *Orchestrator) Run(ctx context.Context, gc *Context) []PartResult {
	o.Gatherer.StartGrading(o.RunUuid, gc.Exercise.Name())

	results := make([]PartResult, 0, len(o.Parts))
	for _, p := range o.Parts {
		res := o.grade(ctx, p, gc)
		results = append(results, res)
		o.Gatherer.FinishPart(res.API())
	}

	if err := ctx.Err(); err != nil {
		o.Gatherer.InternalError(fmt.Sprintf("Grading interrupted: %v", err))
		return results
	}
	o.Gatherer.FinishGrading(Total(results))
	return results
}

func (o *Orchestrator) grade(ctx context.Context, p PartGrader, gc *Context) (res PartResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("part panicked", "part", p.Name(), "panic", r, "stack", string(debug.Stack()))
			res = Result(p, []string{fmt.Sprintf("Unwanted error during grading: %v", r)}, 0)
		}
		res.Elapsed = time.Since(start)
		slog.Debug("part graded", "part", p.Name(), "grade", res.Grade, "elapsed", res.Elapsed)
	}()

	if err := ctx.Err(); err != nil {
		return Result(p, []string{fmt.Sprintf("Grading interrupted: %v", err)}, 0)
	}
	return p.Grade(ctx, gc)
}

func Total(results []PartResult) (grade float64, maxGrade float64) {
	for _, r := range results {
		grade += r.Grade
		maxGrade += r.MaxGrade
	}
	return grade, maxGrade
}
