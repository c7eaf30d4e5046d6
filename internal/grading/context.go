// Package grading turns the observed behavior of a chat submission into
// scored parts.
package grading

import (
	"path/filepath"
	"slices"

	"github.com/programme-lv/amqp-grader/internal/environment"
)

type Exercise struct {
	Root string
	// Slug is owner/name on GitHub, empty when unknown.
	Slug string
}

func (e Exercise) Name() string {
	if e.Slug != "" {
		return e.Slug
	}
	return filepath.Base(e.Root)
}

// Context is the state shared by the parts of one grading run. Only the
// orchestrator run that created it may touch it.
type Context struct {
	Config     environment.Config
	BrokerPort int
	Exercise   Exercise

	CompilationFailed bool
	TestFailed        bool
	// Modules lists build modules in declaration order.
	Modules []string
}

func NewContext(cfg environment.Config, brokerPort int, ex Exercise) *Context {
	return &Context{Config: cfg, BrokerPort: brokerPort, Exercise: ex}
}

func (c *Context) HasModule(name string) bool {
	return slices.Contains(c.Modules, name)
}
