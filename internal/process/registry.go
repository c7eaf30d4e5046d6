package process

import (
	"log/slog"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry tracks handles that have been started and not yet closed.
type Registry struct {
	handles *xsync.MapOf[int, *Handle]
}

// Live holds every handle created by Start. The grader kills everything in
// it when interrupted.
var Live = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{handles: xsync.NewMapOf[int, *Handle]()}
}

func (r *Registry) add(h *Handle) {
	r.handles.Store(h.Pid(), h)
}

func (r *Registry) remove(h *Handle) {
	r.handles.Delete(h.Pid())
}

func (r *Registry) Len() int {
	return r.handles.Size()
}

// KillAll closes every live handle and returns how many there were.
func (r *Registry) KillAll() int {
	var handles []*Handle
	r.handles.Range(func(_ int, h *Handle) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		if err := h.Close(); err != nil {
			slog.Warn("failed to kill process", "pid", h.Pid(), "err", err)
		}
	}
	return len(handles)
}
