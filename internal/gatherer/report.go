package gatherer

import (
	"slices"
	"sync"
	"time"

	"github.com/programme-lv/amqp-grader/api"
)

// ReportBuilder gathers run events and builds a complete api.Report.
type ReportBuilder struct {
	mu sync.Mutex

	runUuid  string
	exercise string

	started  time.Time
	finished *time.Time

	parts        []api.PartResult
	grade        float64
	maxGrade     float64
	errorMessage *string
}

var _ ResultGatherer = (*ReportBuilder)(nil)

func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{started: time.Now()}
}

func (b *ReportBuilder) StartGrading(runUuid string, exercise string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runUuid = runUuid
	b.exercise = exercise
	b.started = time.Now()
}

func (b *ReportBuilder) FinishPart(part api.PartResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	part.Explanations = slices.Clone(part.Explanations)
	b.parts = append(b.parts, part)
}

func (b *ReportBuilder) FinishGrading(grade float64, maxGrade float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grade = grade
	b.maxGrade = maxGrade
	now := time.Now()
	b.finished = &now
}

func (b *ReportBuilder) InternalError(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorMessage = &msg
	now := time.Now()
	b.finished = &now
}

func (b *ReportBuilder) Report() api.Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := b.started.Format(time.RFC3339)
	finish := start
	total := int64(0)
	if b.finished != nil {
		finish = b.finished.Format(time.RFC3339)
		total = b.finished.Sub(b.started).Milliseconds()
	}
	var errMsg *string
	if b.errorMessage != nil {
		v := *b.errorMessage
		errMsg = &v
	}
	return api.Report{
		RunUuid:      b.runUuid,
		Exercise:     b.exercise,
		Grade:        b.grade,
		MaxGrade:     b.maxGrade,
		Parts:        slices.Clone(b.parts),
		ErrorMessage: errMsg,
		StartTime:    start,
		FinishTime:   finish,
		TotalTimeMs:  total,
	}
}
