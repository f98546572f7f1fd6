package frame

import "time"

// Loop fans a single pump request out to every active subscriber. At most
// one pump request is outstanding at any time, however many subscribers
// are added between frames.
type Loop struct {
	pump      Pump
	subs      []*Subscription
	requested bool
	frames    uint64
	observer  func(now time.Duration, active int)
}

// Subscription is a per-frame callback registered on a Loop.
type Subscription struct {
	loop    *Loop
	fn      Callback
	once    bool
	stopped bool
}

// NewLoop creates a loop over the given pump.
func NewLoop(p Pump) *Loop {
	return &Loop{pump: p}
}

// Now reports the pump clock.
func (l *Loop) Now() time.Duration { return l.pump.Now() }

// SetObserver installs a hook called after every delivered frame with the
// number of subscribers still active.
func (l *Loop) SetObserver(fn func(now time.Duration, active int)) {
	l.observer = fn
}

// Add registers fn to run on every frame until the subscription is stopped.
func (l *Loop) Add(fn Callback) *Subscription {
	return l.add(fn, false)
}

// Once registers fn for the next frame only.
func (l *Loop) Once(fn Callback) *Subscription {
	return l.add(fn, true)
}

func (l *Loop) add(fn Callback, once bool) *Subscription {
	s := &Subscription{loop: l, fn: fn, once: once}
	l.subs = append(l.subs, s)
	l.request()
	return s
}

// Pending returns the number of active subscriptions.
func (l *Loop) Pending() int { return len(l.subs) }

// Frames returns the number of frames delivered so far.
func (l *Loop) Frames() uint64 { return l.frames }

func (l *Loop) request() {
	if l.requested || len(l.subs) == 0 {
		return
	}
	l.requested = true
	l.pump.RequestTick(l.tick)
}

func (l *Loop) tick(now time.Duration) {
	l.requested = false
	l.frames++

	// Subscribers may add or stop subscriptions while running.
	batch := make([]*Subscription, len(l.subs))
	copy(batch, l.subs)
	for _, s := range batch {
		if s.stopped {
			continue
		}
		if s.once {
			s.Stop()
		}
		s.fn(now)
	}

	if l.observer != nil {
		l.observer(now, len(l.subs))
	}
	l.request()
}

// Stop removes the subscription. Stopping twice is a no-op.
func (s *Subscription) Stop() {
	if s == nil || s.stopped {
		return
	}
	s.stopped = true
	subs := s.loop.subs
	for i, other := range subs {
		if other == s {
			s.loop.subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Active reports whether the subscription is still registered.
func (s *Subscription) Active() bool { return s != nil && !s.stopped }
