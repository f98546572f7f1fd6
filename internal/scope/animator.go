// Package scope groups timelines, triggers and frame callbacks by the
// section that created them, so a section's motion can be torn down in
// one call. It also owns the reduced-motion and failure fallbacks.
package scope

import (
	"log/slog"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/preference"
	"github.com/ivlev/scrollmotion/internal/timeline"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

// Observer receives lifecycle events for metrics and reports.
type Observer interface {
	ContextRun(section string, reduced bool)
	ContextReverted(section string, entries int)
	Fallback(section string, reason FallbackReason)
	Diagnostic(section string, err error)
}

// Observers fans events out to several observers in order.
type Observers []Observer

func (os Observers) ContextRun(section string, reduced bool) {
	for _, o := range os {
		o.ContextRun(section, reduced)
	}
}

func (os Observers) ContextReverted(section string, entries int) {
	for _, o := range os {
		o.ContextReverted(section, entries)
	}
}

func (os Observers) Fallback(section string, reason FallbackReason) {
	for _, o := range os {
		o.Fallback(section, reason)
	}
}

func (os Observers) Diagnostic(section string, err error) {
	for _, o := range os {
		o.Diagnostic(section, err)
	}
}

// FallbackReason says why motion was replaced by direct assignment.
type FallbackReason string

const (
	FallbackReduced FallbackReason = "reduced"
	FallbackFailure FallbackReason = "failure"
)

// Animator wires the document, frame loop, trigger registry and motion
// preference together. Contexts created by it register into whichever
// context is running setup, tracked on an explicit stack.
type Animator struct {
	doc      *dom.Document
	loop     *frame.Loop
	engine   *timeline.Engine
	registry *trigger.Registry
	prefs    *preference.Resolver
	logger   *slog.Logger
	observer Observer

	stack  []*Context
	mounts []*Mount
	live   int
}

// NewAnimator creates an animator. The engine is created on loop.
func NewAnimator(doc *dom.Document, loop *frame.Loop, reg *trigger.Registry, prefs *preference.Resolver, logger *slog.Logger) *Animator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Animator{
		doc:      doc,
		loop:     loop,
		engine:   timeline.NewEngine(loop, logger),
		registry: reg,
		prefs:    prefs,
		logger:   logger,
	}
}

// SetObserver installs lifecycle hooks.
func (a *Animator) SetObserver(o Observer) { a.observer = o }

func (a *Animator) Document() *dom.Document { return a.doc }
func (a *Animator) Loop() *frame.Loop { return a.loop }
func (a *Animator) Engine() *timeline.Engine { return a.engine }
func (a *Animator) Registry() *trigger.Registry { return a.registry }
func (a *Animator) Preference() *preference.Resolver { return a.prefs }

// Reduced reports whether reduced motion is currently preferred.
func (a *Animator) Reduced() bool {
	return a.prefs != nil && a.prefs.Current() == preference.Reduced
}

// NewContext creates an empty context for a section. Selectors used by
// the context resolve within owner; a nil owner means the whole document.
func (a *Animator) NewContext(name string, owner *dom.Element) *Context {
	a.live++
	return &Context{animator: a, name: name, owner: owner}
}

// Live returns the number of contexts not yet reverted.
func (a *Animator) Live() int { return a.live }

// Current returns the context whose setup is running, or nil.
func (a *Animator) Current() *Context {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// Animate registers into the context currently running setup.
func (a *Animator) Animate(an Animation) (*timeline.Timeline, error) {
	c := a.Current()
	if c == nil {
		return nil, ErrNoActiveContext
	}
	return c.Animate(an)
}

// Tween registers an untriggered tween into the running context.
func (a *Animator) Tween(spec timeline.Spec) (*timeline.Timeline, error) {
	return a.Animate(Animation{Spec: spec})
}

// Resize updates the viewport and remounts sections whose width
// condition flipped.
func (a *Animator) Resize(vp trigger.Viewport) {
	a.registry.Resize(vp)
	for _, m := range a.Mounts() {
		m.checkWidth()
	}
}

// Mounts returns the mounted sections in mount order.
func (a *Animator) Mounts() []*Mount {
	out := make([]*Mount, len(a.mounts))
	copy(out, a.mounts)
	return out
}

func (a *Animator) push(c *Context) { a.stack = append(a.stack, c) }

func (a *Animator) pop() { a.stack = a.stack[:len(a.stack)-1] }

func (a *Animator) diagnostic(section string, err error) {
	a.logger.Warn("animation spec skipped", "section", section, "err", err)
	if a.observer != nil {
		a.observer.Diagnostic(section, err)
	}
}

func (a *Animator) fallback(section string, reason FallbackReason) {
	if a.observer != nil {
		a.observer.Fallback(section, reason)
	}
}
