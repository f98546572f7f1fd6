package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Capture is a slog.Handler that keeps every record, for tests that
// assert on what was logged.
type Capture struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewCapture returns a logger writing into a fresh Capture.
func NewCapture() (*slog.Logger, *Capture) {
	c := &Capture{}
	return slog.New(c), c
}

func (c *Capture) Enabled(context.Context, slog.Level) bool { return true }

func (c *Capture) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	c.records = append(c.records, r.Clone())
	c.mu.Unlock()
	return nil
}

// Attributes and groups are dropped; only levels and messages are kept.
func (c *Capture) WithAttrs([]slog.Attr) slog.Handler { return c }

func (c *Capture) WithGroup(string) slog.Handler { return c }

// Count returns how many records at level carry msg.
func (c *Capture) Count(level slog.Level, msg string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Level == level && r.Message == msg {
			n++
		}
	}
	return n
}
