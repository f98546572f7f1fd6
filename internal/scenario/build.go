package scenario

import (
	"fmt"
	"time"

	"github.com/ivlev/scrollmotion/internal/effects"
	"github.com/ivlev/scrollmotion/internal/scope"
	"github.com/ivlev/scrollmotion/internal/timeline"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

// DefaultDuration applies when neither the effect nor the vars set one.
const DefaultDuration = 500 * time.Millisecond

// Animation resolves a Tween into a scope.Animation.
func (tw Tween) Animation() (scope.Animation, error) {
	var base effects.Effect
	if tw.Effect != "" {
		e, err := effects.Lookup(tw.Effect)
		if err != nil {
			return scope.Animation{}, err
		}
		base = e
	}
	an := base.Animation(tw.Target)
	if tw.Effect == "" {
		an.Duration = DefaultDuration
	}

	from, err := DecodeVars(tw.From)
	if err != nil {
		return an, fmt.Errorf("%s from: %w", tw.Target, err)
	}
	to, err := DecodeVars(tw.To)
	if err != nil {
		return an, fmt.Errorf("%s to: %w", tw.Target, err)
	}
	for k, v := range from.Props {
		an.From[k] = v
	}
	for k, v := range to.Props {
		an.To[k] = v
	}

	timing := from.merge(to)
	if timing.Duration != nil {
		an.Duration = timing.Duration.Duration()
	}
	if timing.Delay != nil {
		an.Delay = timing.Delay.Duration()
	}
	if timing.Stagger != nil {
		an.Stagger = timing.Stagger.Duration()
	}
	if timing.Ease != "" {
		an.Ease = timing.Ease
	}
	if timing.Repeat != nil {
		an.Repeat = *timing.Repeat
	}
	if timing.Yoyo != nil {
		an.Yoyo = *timing.Yoyo
	}

	switch {
	case tw.Immediate:
		an.Trigger = nil
	case tw.Trigger != nil:
		ts, err := tw.Trigger.spec(an.Trigger)
		if err != nil {
			return an, err
		}
		an.Trigger = ts
	case tw.Effect == "":
		an.Trigger = nil
	}
	return an, nil
}

// spec overlays t onto the effect's trigger, if any.
func (t *Trigger) spec(base *scope.TriggerSpec) (*scope.TriggerSpec, error) {
	ts := &scope.TriggerSpec{}
	if base != nil {
		*ts = *base
	}
	if t.Selector != "" {
		ts.Selector = t.Selector
	}
	if t.Start != "" {
		ts.Start = t.Start
	}
	if t.End != "" {
		ts.End = t.End
	}
	if t.Mode != "" {
		m, err := trigger.ParseMode(t.Mode)
		if err != nil {
			return nil, err
		}
		ts.Mode = m
	}
	return ts, nil
}

// Hooks receive the widgets a section's setup creates, so the caller can
// feed them pointer input or read them back.
type Hooks struct {
	Follower func(section string, f *scope.Follower)
	Progress func(section string, p *scope.ProgressIndicator)
}

// Build turns a scenario section into a mountable scope.Section. Tweens
// are resolved up front so malformed vars surface before mounting; a
// tween whose selector matches nothing is recorded by the context and
// does not stop its siblings.
func (s Section) Build(fps int, hooks Hooks) (scope.Section, error) {
	anims := make([]scope.Animation, 0, len(s.Tweens))
	for i, tw := range s.Tweens {
		an, err := tw.Animation()
		if err != nil {
			return scope.Section{}, fmt.Errorf("section %q tween %d: %w", s.Name, i, err)
		}
		anims = append(anims, an)
	}

	name, cursor, progress := s.Name, s.Cursor, s.Progress
	return scope.Section{
		Name:     s.Name,
		Selector: s.Selector,
		MinWidth: s.MinWidth,
		Setup: func(c *scope.Context) error {
			for _, an := range anims {
				if _, err := c.Animate(an); err != nil && !scope.IsResolution(err) {
					return err
				}
			}
			if cursor != "" {
				f, err := c.Follow(cursor, scope.RingFactor)
				if err != nil && !scope.IsResolution(err) {
					return err
				}
				if f != nil && hooks.Follower != nil {
					hooks.Follower(name, f)
				}
			}
			if progress != "" {
				p, err := c.Progress(progress, fps)
				if err != nil && !scope.IsResolution(err) {
					return err
				}
				if p != nil && hooks.Progress != nil {
					hooks.Progress(name, p)
				}
			}
			return nil
		},
	}, nil
}

// Specs returns the timeline specs of every tween, for validation.
func (s Section) Specs() ([]timeline.Spec, error) {
	var out []timeline.Spec
	for _, tw := range s.Tweens {
		an, err := tw.Animation()
		if err != nil {
			return nil, err
		}
		out = append(out, an.Spec)
	}
	return out, nil
}
