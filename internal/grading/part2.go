package grading

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/programme-lv/amqp-grader/internal/ci"
)

var mainBranchNames = mapset.NewSet("main", "master")

// Part2 checks the latest CI run on the main branch.
type Part2 struct {
	Runs ci.RunLister
}

func (p *Part2) Name() string      { return "Part 2 - CI" }
func (p *Part2) MaxGrade() float64 { return 1 }
func (p *Part2) MinGrade() float64 { return 0 }

func (p *Part2) Grade(ctx context.Context, gc *Context) PartResult {
	slug := gc.Exercise.Slug
	if slug == "" {
		return Result(p, []string{"Not a GitHub project"}, 0)
	}

	runs, err := p.Runs.ListRuns(ctx, slug)
	if err != nil {
		return Result(p, []string{"Unable to list CI runs: " + err.Error()}, 0)
	}

	var mainRuns []ci.WorkflowRun
	for _, r := range runs {
		if r.Completed() && mainBranchNames.Contains(r.HeadBranch) {
			mainRuns = append(mainRuns, r)
		}
	}
	if len(mainRuns) == 0 {
		return Result(p, []string{"No CI runs for main branch, check " + ci.ActionsURL(slug)}, 0)
	}
	if !mainRuns[0].Succeeded() {
		return Result(p, []string{"Latest CI run is not in success state"}, p.MaxGrade()/2)
	}
	return Result(p, nil, p.MaxGrade())
}
