package termgath_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/programme-lv/amqp-grader/api"
	"github.com/programme-lv/amqp-grader/internal/gatherer/termgath"
	"github.com/stretchr/testify/assert"
)

func TestTerminalOutput(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	g := termgath.NewWithWriter(&out)

	g.StartGrading("run-1", "jdoe/amqp_training")
	g.FinishPart(api.PartResult{Name: "Part 1 - Compilation & Tests", Grade: 2, MaxGrade: 2})
	g.FinishPart(api.PartResult{
		Name:         "Part 3 - Listener AMQP & Server HTTP",
		Grade:        2,
		MaxGrade:     4,
		Explanations: []string{"No queue named `chat_messages` was created by the server when starting"},
	})
	g.FinishPart(api.PartResult{
		Name:         "Part 4 - Client AMQP & message limit",
		MaxGrade:     4,
		Explanations: []string{"client crashed at launch: Exception\n\tat Main"},
	})
	g.FinishGrading(4, 11)

	s := out.String()
	assert.Contains(t, s, "== Grading jdoe/amqp_training (run run-1) ==")
	assert.Contains(t, s, "   2 / 2")
	assert.Contains(t, s, "  * No queue named `chat_messages`")
	assert.Contains(t, s, "  * client crashed at launch: Exception\n    \tat Main\n")
	assert.Contains(t, s, "== Grade 4 / 11, finished in")
}

func TestInternalError(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	termgath.NewWithWriter(&out).InternalError("broker unavailable")
	assert.Equal(t, "== Internal error: broker unavailable ==\n", out.String())
}
