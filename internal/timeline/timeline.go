package timeline

import (
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/easing"
	"github.com/ivlev/scrollmotion/internal/frame"
)

type track struct {
	el       *dom.Element
	offset   time.Duration
	from, to dom.Props
}

// Timeline is one tween applied to one or more targets. Targets are
// staggered in document order.
type Timeline struct {
	engine   *Engine
	spec     Spec
	ease     easing.Func
	tracks   []track
	dropped  []string
	state    State
	start    time.Duration
	sub      *frame.Subscription
	scrubbed bool
	progress float64
}

// State returns the lifecycle state.
func (t *Timeline) State() State { return t.state }

// Spec returns the registered spec.
func (t *Timeline) Spec() Spec { return t.spec }

// Dropped lists the property names removed as unsupported.
func (t *Timeline) Dropped() []string { return t.dropped }

// Targets returns the animated elements in stagger order.
func (t *Timeline) Targets() []*dom.Element {
	out := make([]*dom.Element, len(t.tracks))
	for i, tr := range t.tracks {
		out[i] = tr.el
	}
	return out
}

// Progress returns the last scrub position.
func (t *Timeline) Progress() float64 { return t.progress }

// Start plays from the beginning. A playing timeline restarts.
func (t *Timeline) Start() {
	if t.state.Terminal() || t.scrubbed {
		return
	}
	t.unsubscribe()
	t.renderFrom()
	t.start = t.engine.loop.Now()
	t.transition(StatePlaying)
	t.sub = t.engine.loop.Add(t.tick)
	t.engine.running++
}

// Reset stops playback and renders the from state again, leaving the
// timeline armed.
func (t *Timeline) Reset() {
	if t.state.Terminal() {
		return
	}
	t.unsubscribe()
	t.renderFrom()
	t.transition(StateArmed)
}

// Cancel halts interpolation immediately. Properties keep whatever values
// they hold. Cancelling twice is a no-op.
func (t *Timeline) Cancel() {
	if t.state == StateCancelled {
		return
	}
	t.unsubscribe()
	t.transition(StateCancelled)
}

// Seek positions a scrubbed timeline at progress p in [0,1].
func (t *Timeline) Seek(p float64) {
	if !t.scrubbed || t.state.Terminal() {
		return
	}
	p = easing.Clamp01(p)
	t.progress = p
	if t.state == StateArmed {
		t.transition(StatePlaying)
	}
	at := time.Duration(p * float64(t.length()))
	for _, tr := range t.tracks {
		t.render(tr, t.fraction(at-tr.offset, 0))
	}
}

// length is the span of one pass over every staggered target.
func (t *Timeline) length() time.Duration {
	last := t.tracks[len(t.tracks)-1].offset
	return last + t.spec.Duration
}

func (t *Timeline) tick(now time.Duration) {
	elapsed := now - t.start
	done := true
	for _, tr := range t.tracks {
		f, settled := t.position(elapsed - tr.offset)
		t.render(tr, f)
		if !settled {
			done = false
		}
	}
	if !done {
		return
	}

	t.unsubscribe()
	t.transition(StateCompleted)
	if t.spec.OnComplete != nil {
		t.spec.OnComplete()
	}
}

// position maps a track-local time to an eased-input fraction, honouring
// repeat and yoyo. settled is true once the track reached its final value.
func (t *Timeline) position(local time.Duration) (f float64, settled bool) {
	d := t.spec.Duration
	if local < 0 {
		return 0, false
	}
	final := 1.0
	if t.spec.Yoyo && t.spec.Repeat > 0 && t.spec.Repeat%2 == 1 {
		final = 0
	}
	if d <= 0 {
		return final, true
	}
	if t.spec.Repeat >= 0 && local >= d*time.Duration(t.spec.Repeat+1) {
		return final, true
	}
	return t.fraction(local, d), false
}

// fraction is the within-cycle fraction. A zero cycle means one pass of
// the tween's own duration, as scrubbing does.
func (t *Timeline) fraction(local, cycle time.Duration) float64 {
	if cycle == 0 {
		cycle = t.spec.Duration
		if cycle <= 0 {
			if local >= 0 {
				return 1
			}
			return 0
		}
		return easing.Clamp01(float64(local) / float64(cycle))
	}
	iter := local / cycle
	within := float64(local%cycle) / float64(cycle)
	if t.spec.Yoyo && iter%2 == 1 {
		within = 1 - within
	}
	return within
}

func (t *Timeline) render(tr track, f float64) {
	e := t.ease(f)
	for k, from := range tr.from {
		tr.el.Set(k, easing.Lerp(from, tr.to[k], e))
	}
}

func (t *Timeline) renderFrom() {
	for _, tr := range t.tracks {
		tr.el.Apply(tr.from)
	}
}

func (t *Timeline) renderTo() {
	for _, tr := range t.tracks {
		tr.el.Apply(tr.to)
	}
}

// SnapToEnd assigns the end state and marks the timeline snapped. It is
// the fallback used when motion is reduced or a section failed.
func (t *Timeline) SnapToEnd() {
	if t.state == StateSnapped {
		return
	}
	t.unsubscribe()
	t.renderTo()
	t.transition(StateSnapped)
}

func (t *Timeline) unsubscribe() {
	if t.sub.Active() {
		t.sub.Stop()
		t.engine.running--
	}
	t.sub = nil
}

func (t *Timeline) transition(to State) {
	from := t.state
	t.state = to
	if t.engine.observer != nil && from != to {
		t.engine.observer(from, to)
	}
}
