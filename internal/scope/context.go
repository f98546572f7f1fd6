package scope

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/easing"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/timeline"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

// Animation is a tween plus an optional scroll trigger. Without a trigger
// the tween plays as soon as it is registered.
type Animation struct {
	timeline.Spec
	Trigger *TriggerSpec
	// Reduced, when non-empty, replaces To under reduced motion. Scroll-linked
	// effects use it to leave their targets at rest.
	Reduced dom.Props
}

// TriggerSpec attaches an Animation to scroll position.
type TriggerSpec struct {
	// Selector picks the reference element within the context owner.
	// Empty means the owner itself, or the first target without an owner.
	Selector string
	// Start is a position or preset name, DefaultStart when empty.
	Start string
	// End closes a scrubbed range, DefaultEnd when empty.
	End  string
	Mode trigger.Mode
}

type entry struct {
	tl     *timeline.Timeline
	handle *trigger.Handle
	sub    *frame.Subscription
	listen *trigger.Listener
}

// Context owns everything a section registered. Revert tears all of it
// down in reverse registration order.
type Context struct {
	animator *Animator
	name     string
	owner    *dom.Element
	reduced  bool

	entries []entry
	known   []*dom.Element
	diags   []error
	failure error

	reverting bool
	reverted  bool
}

func (c *Context) Name() string { return c.name }

func (c *Context) Owner() *dom.Element { return c.owner }

// Reduced reports whether the context ran under reduced motion.
func (c *Context) Reduced() bool { return c.reduced }

// Entries returns the number of owned registrations.
func (c *Context) Entries() int { return len(c.entries) }

// Diagnostics returns the non-fatal errors recorded during setup.
func (c *Context) Diagnostics() []error { return c.diags }

// Failure returns the error that triggered containment, if any.
func (c *Context) Failure() error { return c.failure }

// Reverted reports whether Revert has completed.
func (c *Context) Reverted() bool { return c.reverted }

// Timelines returns the owned timelines in registration order.
func (c *Context) Timelines() []*timeline.Timeline {
	var out []*timeline.Timeline
	for _, e := range c.entries {
		if e.tl != nil {
			out = append(out, e.tl)
		}
	}
	return out
}

// Run executes setup with c as the active context. The motion preference
// is read once here. A returned error or a panic is contained: it is
// logged with the section name, every known target is snapped to its end
// state, and the error is returned for reporting only. Resolution
// diagnostics returned by setup are not failures.
func (c *Context) Run(setup func(c *Context) error) (err error) {
	if c.reverted {
		return ErrContextReverted
	}
	a := c.animator
	c.reduced = a.Reduced()
	if a.observer != nil {
		a.observer.ContextRun(c.name, c.reduced)
	}
	if c.reduced {
		a.fallback(c.name, FallbackReduced)
	}

	a.push(c)
	defer func() {
		a.pop()
		if r := recover(); r != nil {
			a.logger.Debug("setup panic", "section", c.name, "stack", string(debug.Stack()))
			err = &SetupError{Section: c.name, Err: fmt.Errorf("%v", r), Panic: true}
		}
		if err != nil {
			c.contain(err)
		}
	}()

	// Resolution errors were already recorded as diagnostics.
	if serr := setup(c); serr != nil && !IsResolution(serr) {
		return &SetupError{Section: c.name, Err: serr}
	}
	return nil
}

// Animate resolves an Animation's targets within the owner and registers
// it. Under reduced motion the end state is assigned immediately and no
// trigger is created. A selector that matches nothing yields a
// SpecResolutionError and leaves the context usable.
func (c *Context) Animate(an Animation) (*timeline.Timeline, error) {
	if c.reverted {
		return nil, ErrContextReverted
	}
	targets, err := c.resolve(an.Target)
	if err != nil {
		return nil, err
	}
	c.remember(targets)
	eng := c.animator.engine

	if c.reduced {
		spec := an.Spec
		if len(an.Reduced) > 0 {
			spec.To = an.Reduced.Clone()
		}
		tl, err := eng.Snap(spec, targets)
		if err != nil {
			return nil, c.rejected(an.Target, err)
		}
		c.entries = append(c.entries, entry{tl: tl})
		return tl, nil
	}

	if an.Trigger == nil {
		tl, err := eng.Play(an.Spec, targets)
		if err != nil {
			return nil, c.rejected(an.Target, err)
		}
		c.entries = append(c.entries, entry{tl: tl})
		return tl, nil
	}

	cond, err := c.condition(an.Trigger, targets)
	if err != nil {
		return nil, err
	}
	var tl *timeline.Timeline
	if cond.Mode == trigger.Scrubbed {
		tl, err = eng.Scrub(an.Spec, targets)
	} else {
		tl, err = eng.Arm(an.Spec, targets)
	}
	if err != nil {
		return nil, c.rejected(an.Target, err)
	}

	h, err := c.animator.registry.Register(cond, func(p float64) {
		switch cond.Mode {
		case trigger.Scrubbed:
			tl.Seek(p)
		case trigger.EveryCrossing:
			if p == 0 {
				tl.Reset()
				return
			}
			tl.Start()
		default:
			tl.Start()
		}
	})
	if err != nil {
		tl.Cancel()
		return nil, err
	}
	c.entries = append(c.entries, entry{tl: tl, handle: h})
	return tl, nil
}

// animateElement plays spec on one known element, replacing prev if it is
// still running. Finished tweens are dropped from the owned set so that
// widgets toggling state every few frames do not grow it.
func (c *Context) animateElement(el *dom.Element, spec timeline.Spec, prev *timeline.Timeline) (*timeline.Timeline, error) {
	if c.reverted {
		return nil, ErrContextReverted
	}
	if prev != nil && prev.State() == timeline.StatePlaying {
		prev.Cancel()
	}
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.tl != nil && e.handle == nil && e.sub == nil && e.listen == nil {
			if st := e.tl.State(); st == timeline.StateCompleted || st == timeline.StateCancelled {
				continue
			}
		}
		kept = append(kept, e)
	}
	c.entries = kept

	targets := []*dom.Element{el}
	var tl *timeline.Timeline
	var err error
	if c.reduced {
		tl, err = c.animator.engine.Snap(spec, targets)
	} else {
		tl, err = c.animator.engine.Play(spec, targets)
	}
	if err != nil {
		return nil, err
	}
	c.entries = append(c.entries, entry{tl: tl})
	return tl, nil
}

// Tween is Animate without a trigger.
func (c *Context) Tween(spec timeline.Spec) (*timeline.Timeline, error) {
	return c.Animate(Animation{Spec: spec})
}

// Set assigns props to every element matching selector, immediately.
func (c *Context) Set(selector string, props dom.Props) error {
	if c.reverted {
		return ErrContextReverted
	}
	targets, err := c.resolve(selector)
	if err != nil {
		return err
	}
	c.remember(targets)
	var first error
	for _, el := range targets {
		if err := el.Apply(props); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OnFrame registers a raw per-frame callback owned by the context.
func (c *Context) OnFrame(fn frame.Callback) (*frame.Subscription, error) {
	if c.reverted {
		return nil, ErrContextReverted
	}
	sub := c.animator.loop.Add(fn)
	c.entries = append(c.entries, entry{sub: sub})
	return sub, nil
}

// Listen attaches fn to scroll and resize events for the context's
// lifetime. No frame callback is involved, so it is also allowed under
// reduced motion.
func (c *Context) Listen(fn func()) (*trigger.Listener, error) {
	if c.reverted {
		return nil, ErrContextReverted
	}
	l := c.animator.registry.Listen(fn)
	c.entries = append(c.entries, entry{listen: l})
	return l, nil
}

// Trigger registers a raw scroll trigger owned by the context. Under
// reduced motion nothing is registered: onFire runs once with progress 1
// and a nil handle is returned.
func (c *Context) Trigger(cond trigger.Condition, onFire func(progress float64)) (*trigger.Handle, error) {
	if c.reverted {
		return nil, ErrContextReverted
	}
	if c.reduced {
		if onFire != nil {
			onFire(1)
		}
		return nil, nil
	}
	h, err := c.animator.registry.Register(cond, onFire)
	if err != nil {
		return nil, err
	}
	c.entries = append(c.entries, entry{handle: h})
	return h, nil
}

// Query resolves selector within the owner and records the matches as
// known targets.
func (c *Context) Query(selector string) ([]*dom.Element, error) {
	targets, err := c.resolve(selector)
	if err != nil {
		return nil, err
	}
	c.remember(targets)
	return targets, nil
}

// Revert cancels every owned timeline, unregisters every owned trigger
// and stops every owned frame callback, newest first. Registrations made
// by callbacks while reverting are drained in the same pass. Calling
// Revert again, including from inside a callback it triggered, is a no-op.
func (c *Context) Revert() {
	if c.reverting || c.reverted {
		return
	}
	c.reverting = true
	n := 0
	reg := c.animator.registry
	for len(c.entries) > 0 {
		last := len(c.entries) - 1
		e := c.entries[last]
		c.entries = c.entries[:last]
		if e.tl != nil {
			e.tl.Cancel()
		}
		reg.Unregister(e.handle)
		reg.Unlisten(e.listen)
		e.sub.Stop()
		n++
	}
	c.reverting = false
	c.reverted = true
	c.animator.live--
	if o := c.animator.observer; o != nil {
		o.ContextReverted(c.name, n)
	}
}

func (c *Context) resolve(selector string) ([]*dom.Element, error) {
	targets, err := c.animator.doc.QueryWithin(c.owner, selector)
	if err == nil && len(targets) == 0 {
		err = &SpecResolutionError{Section: c.name, Selector: selector}
	} else if err != nil {
		err = &SpecResolutionError{Section: c.name, Selector: selector, Err: err}
	}
	if err != nil {
		c.diags = append(c.diags, err)
		c.animator.diagnostic(c.name, err)
		return nil, err
	}
	return targets, nil
}

func (c *Context) condition(ts *TriggerSpec, targets []*dom.Element) (trigger.Condition, error) {
	cond := trigger.Condition{Mode: ts.Mode}
	switch {
	case ts.Selector != "":
		refs, err := c.resolve(ts.Selector)
		if err != nil {
			return cond, err
		}
		cond.Element = refs[0]
	case c.owner != nil:
		cond.Element = c.owner
	default:
		cond.Element = targets[0]
	}

	start := ts.Start
	if start == "" {
		start = trigger.DefaultStart
	}
	var err error
	if cond.Start, err = trigger.ParsePosition(start); err != nil {
		return cond, c.badTrigger(ts, err)
	}
	if ts.End != "" {
		end, err := trigger.ParsePosition(ts.End)
		if err != nil {
			return cond, c.badTrigger(ts, err)
		}
		cond.End = &end
	}
	return cond, nil
}

// rejected turns a spec the engine refused (unknown ease, no supported
// property) into a diagnostic, so sibling specs still run.
func (c *Context) rejected(selector string, err error) error {
	if !errors.Is(err, easing.ErrUnknown) && !errors.Is(err, timeline.ErrNothingToAnimate) {
		return err
	}
	err = &SpecResolutionError{Section: c.name, Selector: selector, Err: err}
	c.diags = append(c.diags, err)
	c.animator.diagnostic(c.name, err)
	return err
}

func (c *Context) badTrigger(ts *TriggerSpec, err error) error {
	err = &SpecResolutionError{Section: c.name, Selector: ts.Selector, Err: err}
	c.diags = append(c.diags, err)
	c.animator.diagnostic(c.name, err)
	return err
}

func (c *Context) remember(targets []*dom.Element) {
	for _, el := range targets {
		seen := false
		for _, k := range c.known {
			if k == el {
				seen = true
				break
			}
		}
		if !seen {
			c.known = append(c.known, el)
		}
	}
}

// restOnFailure are the properties forced to rest on targets no owned
// tween covers.
var restOnFailure = dom.RestProps("opacity", "x", "y", "scale")

// contain applies the fallback after a failed setup: owned tweens jump to
// their end state, triggers and frame callbacks stop, and any other known
// target is forced visible.
func (c *Context) contain(err error) {
	a := c.animator
	c.failure = err
	a.logger.Error("section animation failed, showing static content", "section", c.name, "err", err)
	a.fallback(c.name, FallbackFailure)
	if a.observer != nil {
		a.observer.Diagnostic(c.name, err)
	}

	covered := make(map[*dom.Element]bool)
	for _, e := range c.entries {
		if e.tl != nil {
			e.tl.SnapToEnd()
			for _, el := range e.tl.Targets() {
				covered[el] = true
			}
		}
		a.registry.Unregister(e.handle)
		e.sub.Stop()
	}
	for _, el := range c.known {
		if !covered[el] {
			el.Apply(restOnFailure)
		}
	}
}

// IsResolution reports whether err is a non-fatal resolution diagnostic.
func IsResolution(err error) bool { return errors.Is(err, ErrSpecResolution) }
