package grading

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/programme-lv/amqp-grader/api"
)

type PartResult struct {
	Name         string
	Grade        float64
	MaxGrade     float64
	Explanations []string
	Elapsed      time.Duration
}

func (r PartResult) API() api.PartResult {
	return api.PartResult{
		Name:          r.Name,
		Grade:         r.Grade,
		MaxGrade:      r.MaxGrade,
		Explanations:  slices.Clone(r.Explanations),
		ElapsedMillis: r.Elapsed.Milliseconds(),
	}
}

type PartGrader interface {
	Name() string
	MaxGrade() float64
	MinGrade() float64
	// Grade never fails: every problem ends up as an explanation.
	Grade(ctx context.Context, gc *Context) PartResult
}

// Result builds the outcome of p with grade clamped into its bounds.
func Result(p PartGrader, explanations []string, grade float64) PartResult {
	if explanations == nil {
		explanations = []string{}
	}
	return PartResult{
		Name:         p.Name(),
		Grade:        math.Min(math.Max(p.MinGrade(), grade), p.MaxGrade()),
		MaxGrade:     p.MaxGrade(),
		Explanations: explanations,
	}
}
