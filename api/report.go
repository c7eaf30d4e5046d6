package api

// Report is the archived outcome of one grading run
type Report struct {
	RunUuid      string       `json:"run_uuid"`
	Exercise     string       `json:"exercise"`
	Grade        float64      `json:"grade"`
	MaxGrade     float64      `json:"max_grade"`
	Parts        []PartResult `json:"parts"`
	ErrorMessage *string      `json:"error_message"`
	StartTime    string       `json:"start_time"`
	FinishTime   string       `json:"finish_time"`
	TotalTimeMs  int64        `json:"total_time_ms"`
}
