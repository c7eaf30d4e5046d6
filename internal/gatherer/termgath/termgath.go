package termgath

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/amqp-grader/api"
)

type TerminalGatherer struct {
	StartedAt time.Time
	Out       io.Writer

	good *color.Color
	part *color.Color
	bad  *color.Color
}

func New() *TerminalGatherer { return NewWithWriter(os.Stdout) }

func NewWithWriter(w io.Writer) *TerminalGatherer {
	return &TerminalGatherer{
		StartedAt: time.Now(),
		Out:       w,
		good:      color.New(color.FgGreen, color.Bold),
		part:      color.New(color.FgYellow, color.Bold),
		bad:       color.New(color.FgRed, color.Bold),
	}
}

func (t *TerminalGatherer) StartGrading(runUuid string, exercise string) {
	t.StartedAt = time.Now()
	fmt.Fprintf(t.Out, "== Grading %s (run %s) ==\n", exercise, runUuid)
}

func (t *TerminalGatherer) FinishPart(part api.PartResult) {
	c := t.good
	switch {
	case part.Grade <= 0:
		c = t.bad
	case part.Grade < part.MaxGrade:
		c = t.part
	}
	c.Fprintf(t.Out, "%-45s %4s / %s", part.Name, formatGrade(part.Grade), formatGrade(part.MaxGrade))
	fmt.Fprintf(t.Out, "  (%dms)\n", part.ElapsedMillis)
	for _, e := range part.Explanations {
		lines := strings.Split(e, "\n")
		fmt.Fprintf(t.Out, "  * %s\n", lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(t.Out, "    %s\n", l)
		}
	}
}

func (t *TerminalGatherer) FinishGrading(grade float64, maxGrade float64) {
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(t.Out, "== Grade %s / %s, finished in %s ==\n", formatGrade(grade), formatGrade(maxGrade), dur)
}

func (t *TerminalGatherer) InternalError(msg string) {
	t.bad.Fprintf(t.Out, "== Internal error: %s ==\n", msg)
}

func formatGrade(g float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", g), "0"), ".")
}
