package api

import "time"

// MsgType is a message type for streamed grading reports
type MsgType string

const (
	StartGradingMsg  MsgType = "grading_start"
	FinishPartMsg    MsgType = "part_finish"
	FinishGradingMsg MsgType = "grading_finish"
)

// Explanation size constraints for streaming
const (
	MaxExplanationHeight = 40
	MaxExplanationWidth  = 120
)

// Header is the common header for all streamed messages
type Header struct {
	RunUuid string  `json:"run_uuid"`
	MsgType MsgType `json:"msg_type"`
}

type PartResult struct {
	Name          string   `json:"name"`
	Grade         float64  `json:"grade"`
	MaxGrade      float64  `json:"max_grade"`
	Explanations  []string `json:"explanations"`
	ElapsedMillis int64    `json:"elapsed_ms"`
}

// StartGrading message sent when a grading run begins
type StartGrading struct {
	Header
	Exercise    string `json:"exercise"`
	StartedTime string `json:"started_time"`
}

// FinishPart message sent after every graded part
type FinishPart struct {
	Header
	Part PartResult `json:"part"`
}

// FinishGrading message sent when the run completes
type FinishGrading struct {
	Header
	Grade        float64 `json:"grade"`
	MaxGrade     float64 `json:"max_grade"`
	ErrorMessage *string `json:"error_message"`
}

func NewHeader(runUuid string, msgType MsgType) Header {
	return Header{
		RunUuid: runUuid,
		MsgType: msgType,
	}
}

func NewStartGrading(runUuid, exercise string) StartGrading {
	return StartGrading{
		Header:      NewHeader(runUuid, StartGradingMsg),
		Exercise:    exercise,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

// NewFinishPart clamps every explanation so that a chatty submission
// cannot blow up the message size.
func NewFinishPart(runUuid string, part PartResult) FinishPart {
	trimmed := part
	trimmed.Explanations = make([]string, len(part.Explanations))
	for i, e := range part.Explanations {
		trimmed.Explanations[i] = TrimStrToRect(e, MaxExplanationHeight, MaxExplanationWidth)
	}
	return FinishPart{
		Header: NewHeader(runUuid, FinishPartMsg),
		Part:   trimmed,
	}
}

func NewFinishGrading(runUuid string, grade, maxGrade float64, errMsg *string) FinishGrading {
	return FinishGrading{
		Header:       NewHeader(runUuid, FinishGradingMsg),
		Grade:        grade,
		MaxGrade:     maxGrade,
		ErrorMessage: errMsg,
	}
}
