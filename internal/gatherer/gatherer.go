// Package gatherer fans grading progress out to whoever follows a run.
package gatherer

import "github.com/programme-lv/amqp-grader/api"

//go:generate mockgen -destination=mocks/mock_gatherer.go -package=mocks . ResultGatherer

// ResultGatherer receives the events of one grading run. A run is closed
// either by FinishGrading or by InternalError.
type ResultGatherer interface {
	StartGrading(runUuid string, exercise string)
	FinishPart(part api.PartResult)
	FinishGrading(grade float64, maxGrade float64)
	InternalError(msg string)
}

type multi []ResultGatherer

// Multi forwards every event to each gatherer in order.
func Multi(gatherers ...ResultGatherer) ResultGatherer {
	return multi(gatherers)
}

func (m multi) StartGrading(runUuid string, exercise string) {
	for _, g := range m {
		g.StartGrading(runUuid, exercise)
	}
}

func (m multi) FinishPart(part api.PartResult) {
	for _, g := range m {
		g.FinishPart(part)
	}
}

func (m multi) FinishGrading(grade float64, maxGrade float64) {
	for _, g := range m {
		g.FinishGrading(grade, maxGrade)
	}
}

func (m multi) InternalError(msg string) {
	for _, g := range m {
		g.InternalError(msg)
	}
}
