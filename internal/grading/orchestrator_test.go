package grading_test

import (
	"context"
	"testing"

	"github.com/programme-lv/amqp-grader/api"
	"github.com/programme-lv/amqp-grader/internal/environment"
	"github.com/programme-lv/amqp-grader/internal/gatherer/mocks"
	"github.com/programme-lv/amqp-grader/internal/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type funcPart struct {
	name  string
	max   float64
	grade func(gc *grading.Context) float64
}

func (p funcPart) Name() string      { return p.name }
func (p funcPart) MaxGrade() float64 { return p.max }
func (p funcPart) MinGrade() float64 { return 0 }
func (p funcPart) Grade(_ context.Context, gc *grading.Context) grading.PartResult {
	return grading.Result(p, nil, p.grade(gc))
}

func TestOrchestratorRecoversAndContinues(t *testing.T) {
	ctrl := gomock.NewController(t)
	gath := mocks.NewMockResultGatherer(ctrl)

	parts := []grading.PartGrader{
		funcPart{"first", 2, func(gc *grading.Context) float64 {
			gc.CompilationFailed = true
			return 2
		}},
		funcPart{"broken", 4, func(*grading.Context) float64 { panic("index out of range") }},
		funcPart{"last", 1, func(gc *grading.Context) float64 {
			if gc.CompilationFailed {
				return 0.5
			}
			return 1
		}},
	}

	var reported []api.PartResult
	gomock.InOrder(
		gath.EXPECT().StartGrading("run-1", "jdoe/amqp_training"),
		gath.EXPECT().FinishPart(gomock.Any()).Times(3).Do(func(p api.PartResult) { reported = append(reported, p) }),
		gath.EXPECT().FinishGrading(2.5, 7.0),
	)

	o := &grading.Orchestrator{Parts: parts, Gatherer: gath, RunUuid: "run-1"}
	gc := grading.NewContext(environment.Default(), 5672, grading.Exercise{Root: "/tmp/x", Slug: "jdoe/amqp_training"})
	results := o.Run(context.Background(), gc)

	require.Len(t, results, 3)
	assert.Equal(t, 0.0, results[1].Grade)
	assert.Equal(t, []string{"Unwanted error during grading: index out of range"}, results[1].Explanations)
	assert.Equal(t, 0.5, results[2].Grade)

	require.Len(t, reported, 3)
	assert.Equal(t, "broken", reported[1].Name)
}

func TestOrchestratorStopsGradingWhenCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	gath := mocks.NewMockResultGatherer(ctrl)
	gath.EXPECT().StartGrading(gomock.Any(), "x")
	gath.EXPECT().FinishPart(gomock.Any())
	gath.EXPECT().InternalError("Grading interrupted: context canceled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	o := &grading.Orchestrator{
		Parts: []grading.PartGrader{funcPart{"p", 2, func(*grading.Context) float64 {
			called = true
			return 2
		}}},
		Gatherer: gath,
	}
	results := o.Run(ctx, grading.NewContext(environment.Default(), 5672, grading.Exercise{Root: "/work/x"}))
	assert.False(t, called)
	assert.Contains(t, results[0].Explanations[0], "Grading interrupted")
}

func TestTotal(t *testing.T) {
	grade, maxGrade := grading.Total([]grading.PartResult{{Grade: 1, MaxGrade: 2}, {Grade: 0.5, MaxGrade: 1}})
	assert.Equal(t, 1.5, grade)
	assert.Equal(t, 3.0, maxGrade)
}
