package timeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/easing"
	"github.com/ivlev/scrollmotion/internal/frame"
)

// Engine creates timelines on a frame loop.
type Engine struct {
	loop     *frame.Loop
	logger   *slog.Logger
	warned   map[string]bool
	running  int
	observer func(from, to State)
}

// NewEngine creates an engine driven by loop.
func NewEngine(loop *frame.Loop, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{loop: loop, logger: logger, warned: make(map[string]bool)}
}

// SetObserver installs a hook called on every state transition.
func (e *Engine) SetObserver(fn func(from, to State)) { e.observer = fn }

// Running returns the number of timelines holding a frame subscription.
func (e *Engine) Running() int { return e.running }

// Play starts interpolating spec over targets now.
func (e *Engine) Play(spec Spec, targets []*dom.Element) (*Timeline, error) {
	tl, err := e.Arm(spec, targets)
	if err != nil {
		return nil, err
	}
	tl.Start()
	return tl, nil
}

// Arm prepares a timeline and renders its from state, but does not start
// it. Triggers call Start later.
func (e *Engine) Arm(spec Spec, targets []*dom.Element) (*Timeline, error) {
	tl, err := e.prepare(spec, targets)
	if err != nil {
		return nil, err
	}
	tl.renderFrom()
	tl.transition(StateArmed)
	return tl, nil
}

// Scrub prepares a timeline whose position is set by Seek instead of by
// the clock.
func (e *Engine) Scrub(spec Spec, targets []*dom.Element) (*Timeline, error) {
	tl, err := e.Arm(spec, targets)
	if err != nil {
		return nil, err
	}
	tl.scrubbed = true
	return tl, nil
}

// Snap assigns the end state directly. No frame callback is scheduled.
func (e *Engine) Snap(spec Spec, targets []*dom.Element) (*Timeline, error) {
	tl, err := e.prepare(spec, targets)
	if err != nil {
		return nil, err
	}
	tl.renderTo()
	tl.transition(StateSnapped)
	return tl, nil
}

func (e *Engine) prepare(spec Spec, targets []*dom.Element) (*Timeline, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoTargets, spec.Target)
	}
	ease, err := easing.Lookup(spec.Ease)
	if err != nil {
		return nil, err
	}

	var names, dropped []string
	for _, n := range spec.Names() {
		if dom.Supported(n) {
			names = append(names, n)
			continue
		}
		dropped = append(dropped, n)
		if !e.warned[n] {
			e.warned[n] = true
			e.logger.Warn("dropping unsupported property", "property", n, "target", spec.Target)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %q: %w", ErrNothingToAnimate, spec.Target, &dom.UnsupportedPropertyError{Property: dropped[0]})
	}

	from, to := spec.From.Clone(), spec.To.Clone()
	spec.From, spec.To = from, to

	tl := &Timeline{engine: e, spec: spec, ease: ease, dropped: dropped}
	for i, el := range targets {
		tr := track{
			el:     el,
			offset: spec.Delay + time.Duration(i)*spec.Stagger,
			from:   make(dom.Props, len(names)),
			to:     make(dom.Props, len(names)),
		}
		for _, n := range names {
			cur := el.Get(n)
			tr.from[n], tr.to[n] = cur, cur
			if v, ok := from[n]; ok {
				tr.from[n] = v
			}
			if v, ok := to[n]; ok {
				tr.to[n] = v
			}
		}
		tl.tracks = append(tl.tracks, tr)
	}
	return tl, nil
}
