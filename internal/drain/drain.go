// Package drain reads interactive process output without ever blocking on
// a stream that may stay open and idle forever.
package drain

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

type Drainer struct {
	// Timeout bounds a single ReadAvailable call.
	Timeout time.Duration
	// RetryDelay is slept before every look at the source.
	RetryDelay time.Duration
	Detector   Detector
	Logger     *slog.Logger
}

func New(timeout, retryDelay time.Duration) *Drainer {
	return &Drainer{
		Timeout:    timeout,
		RetryDelay: retryDelay,
		Detector:   ChardetDetector{MinConfidence: 30},
		Logger:     slog.Default(),
	}
}

// ReadAvailable returns the trimmed text currently produced by src. It keeps
// retrying while nothing has arrived and gives up once Timeout has elapsed.
func (d *Drainer) ReadAvailable(ctx context.Context, src Source) (string, bool) {
	start := time.Now()
	timer := time.NewTimer(d.RetryDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-timer.C:
		}

		if raw := d.take(ctx, src); len(raw) > 0 {
			if text := strings.TrimSpace(d.decode(raw)); text != "" {
				return text, true
			}
		}

		if time.Since(start) >= d.Timeout {
			break
		}
		timer.Reset(d.RetryDelay)
	}

	d.logger().Debug("no process output to read", "timeout", d.Timeout)
	return "", false
}

// DrainAll reads until src stays silent for a whole ReadAvailable window, so
// the caller never interleaves its next write with pending output.
func (d *Drainer) DrainAll(ctx context.Context, src Source) []string {
	var chunks []string
	for {
		text, ok := d.ReadAvailable(ctx, src)
		if !ok {
			return chunks
		}
		d.logger().Debug("process output", "text", text)
		chunks = append(chunks, text)
	}
}

// take reads src once. When the bytes end inside a UTF-8 sequence the rest
// is usually one pump write behind, so it waits a retry delay for it.
func (d *Drainer) take(ctx context.Context, src Source) []byte {
	raw := src.Take()
	if incompleteTail(raw) == 0 {
		return raw
	}
	t := time.NewTimer(d.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
		raw = append(raw, src.Take()...)
	}
	return raw
}

func (d *Drainer) decode(raw []byte) string {
	if d.Detector == nil {
		return string(raw)
	}
	charset, ok := d.Detector.Detect(raw)
	if !ok {
		charset = defaultCharset
	}
	return Decode(raw, charset)
}

func (d *Drainer) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
