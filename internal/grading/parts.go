package grading

import (
	"github.com/programme-lv/amqp-grader/internal/build"
	"github.com/programme-lv/amqp-grader/internal/ci"
)

// DefaultParts returns the four parts of the chat exercise in grading order.
func DefaultParts(b build.Builder, runs ci.RunLister, br Broker, api MessageAPI) []PartGrader {
	return []PartGrader{
		&Part1{Builder: b},
		&Part2{Runs: runs},
		&Part3{Builder: b, Broker: br, API: api},
		&Part4{Builder: b, API: api},
	}
}
