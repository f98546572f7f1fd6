// Package frame provides the cooperative per-frame scheduling used by the
// animation runtime. A Pump stands in for the host's animation-frame
// primitive; a Loop multiplexes any number of subscribers onto at most one
// pending pump request.
package frame

import (
	"context"
	"sync"
	"time"
)

// Callback receives the pump clock at the moment the frame fires.
type Callback func(now time.Duration)

// Pump delivers callbacks on the next display frame.
type Pump interface {
	// RequestTick schedules cb for the next frame. Requests made while a
	// frame is being delivered go to the following frame.
	RequestTick(cb Callback)
	// Now reports the pump clock.
	Now() time.Duration
}

// IntervalFor converts a frame rate into a frame interval. Non-positive
// rates fall back to 60 FPS.
func IntervalFor(fps int) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

// ManualPump is a headless pump. Time only moves when Step or Advance is
// called, which makes frame timing fully deterministic in tests and in
// offline simulations.
type ManualPump struct {
	interval time.Duration
	now      time.Duration
	queue    []Callback
	requests int
}

// NewManualPump creates a headless pump stepping at the given frame rate.
func NewManualPump(fps int) *ManualPump {
	return &ManualPump{interval: IntervalFor(fps)}
}

func (p *ManualPump) RequestTick(cb Callback) {
	p.queue = append(p.queue, cb)
	p.requests++
}

func (p *ManualPump) Now() time.Duration { return p.now }

// Interval returns the frame interval.
func (p *ManualPump) Interval() time.Duration { return p.interval }

// Pending returns the number of callbacks waiting for the next frame.
func (p *ManualPump) Pending() int { return len(p.queue) }

// Requests returns how many ticks were requested since creation.
func (p *ManualPump) Requests() int { return p.requests }

// Step advances the clock by one frame interval and delivers the queued
// callbacks. It reports whether any callback ran.
func (p *ManualPump) Step() bool {
	p.now += p.interval
	batch := p.queue
	p.queue = nil
	for _, cb := range batch {
		cb(p.now)
	}
	return len(batch) > 0
}

// Advance steps whole frames until at least d has elapsed.
func (p *ManualPump) Advance(d time.Duration) {
	p.AdvanceTo(p.now + d)
}

// AdvanceTo steps whole frames until the clock reaches t.
func (p *ManualPump) AdvanceTo(t time.Duration) {
	for p.now < t {
		p.Step()
	}
}

// TickerPump is a real-time pump backed by time.Ticker. It is also a small
// event loop: every frame callback and every function handed to Post runs
// on the goroutine that called Run, so animation state needs no locking.
type TickerPump struct {
	interval time.Duration
	start    time.Time

	mu    sync.Mutex
	queue []Callback

	tasks chan func()
}

// NewTickerPump creates a real-time pump at the given frame rate.
func NewTickerPump(fps int) *TickerPump {
	return &TickerPump{
		interval: IntervalFor(fps),
		start:    time.Now(),
		tasks:    make(chan func(), 256),
	}
}

func (p *TickerPump) RequestTick(cb Callback) {
	p.mu.Lock()
	p.queue = append(p.queue, cb)
	p.mu.Unlock()
}

func (p *TickerPump) Now() time.Duration { return time.Since(p.start) }

// Post queues fn to run on the loop goroutine.
func (p *TickerPump) Post(fn func()) {
	p.tasks <- fn
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (p *TickerPump) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case p.tasks <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers frames and posted tasks until ctx is cancelled.
func (p *TickerPump) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-p.tasks:
			fn()
		case <-ticker.C:
			p.mu.Lock()
			batch := p.queue
			p.queue = nil
			p.mu.Unlock()

			now := p.Now()
			for _, cb := range batch {
				cb(now)
			}
		}
	}
}
