package drain

import (
	"bytes"
	"sync"
)

// Source yields whatever output has accumulated since the previous call.
// Take must never block.
type Source interface {
	Take() []byte
}

// Buffer collects bytes written by a pump goroutine so readers can poll for
// available output without blocking on the underlying pipe.
type Buffer struct {
	mu      sync.Mutex
	pending bytes.Buffer
	total   int64
}

var _ Source = (*Buffer)(nil)

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total += int64(len(p))
	return b.pending.Write(p)
}

// Take returns the pending bytes and clears them.
func (b *Buffer) Take() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending.Len() == 0 {
		return nil
	}
	out := bytes.Clone(b.pending.Bytes())
	b.pending.Reset()
	return out
}

// Len is the number of bytes not yet taken.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.Len()
}

// Total is the number of bytes ever written.
func (b *Buffer) Total() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
