package scenario

import (
	"errors"
	"fmt"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/easing"
	"github.com/ivlev/scrollmotion/internal/preference"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

// Validate checks a scenario against a document: selectors compile and
// match, easing names and trigger positions resolve, script events are
// well formed. All problems are returned joined.
func Validate(sc *Scenario, doc *dom.Document) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if sc.Viewport.Width <= 0 || sc.Viewport.Height <= 0 {
		add("viewport must be positive, got %vx%v", sc.Viewport.Width, sc.Viewport.Height)
	}

	names := make(map[string]bool)
	for _, s := range sc.Sections {
		if s.Name == "" {
			add("section without a name")
		}
		if names[s.Name] {
			add("duplicate section %q", s.Name)
		}
		names[s.Name] = true

		var owner *dom.Element
		if s.Selector != "" {
			el, err := doc.First(s.Selector)
			switch {
			case err != nil:
				add("section %q: %v", s.Name, err)
				continue
			case el == nil:
				add("section %q: owner %q matches nothing", s.Name, s.Selector)
				continue
			}
			owner = el
		}

		for i, tw := range s.Tweens {
			where := fmt.Sprintf("section %q tween %d (%s)", s.Name, i, tw.Target)
			els, err := doc.QueryWithin(owner, tw.Target)
			if err != nil {
				add("%s: %v", where, err)
			} else if len(els) == 0 {
				add("%s: target matches nothing", where)
			}

			an, err := tw.Animation()
			if err != nil {
				add("%s: %v", where, err)
				continue
			}
			if _, err := easing.Lookup(an.Ease); err != nil {
				add("%s: %v", where, err)
			}
			for _, p := range an.Spec.Names() {
				if !dom.Supported(p) {
					add("%s: %v", where, &dom.UnsupportedPropertyError{Property: p})
				}
			}
			if an.Trigger == nil {
				continue
			}
			if an.Trigger.Start != "" {
				if _, err := trigger.ParsePosition(an.Trigger.Start); err != nil {
					add("%s: %v", where, err)
				}
			}
			if an.Trigger.End != "" {
				if _, err := trigger.ParsePosition(an.Trigger.End); err != nil {
					add("%s: %v", where, err)
				}
			}
			if an.Trigger.Selector != "" {
				if err := dom.Compile(an.Trigger.Selector); err != nil {
					add("%s: trigger: %v", where, err)
				}
			}
		}
	}

	for i, ev := range sc.Script {
		where := fmt.Sprintf("script event %d at %.2fs", i, ev.At)
		if !actions[ev.Action] {
			add("%s: unknown action %q", where, ev.Action)
			continue
		}
		switch ev.Action {
		case ActionPreference:
			if _, err := preference.Parse(ev.Preference); err != nil {
				add("%s: %v", where, err)
			}
		case ActionKey, ActionUnmount, ActionMount:
			if !names[ev.Section] {
				add("%s: unknown section %q", where, ev.Section)
			}
		case ActionResize:
			if ev.Width <= 0 || ev.Height <= 0 {
				add("%s: resize needs width and height", where)
			}
		}
		if ev.At < 0 {
			add("%s: negative time", where)
		}
	}
	return errors.Join(errs...)
}
