// Package engine wires a document and a scenario into a running animation
// session, and drives sessions offline (Simulation) or live (serve).
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/metrics"
	"github.com/ivlev/scrollmotion/internal/preference"
	"github.com/ivlev/scrollmotion/internal/scenario"
	"github.com/ivlev/scrollmotion/internal/scope"
	"github.com/ivlev/scrollmotion/internal/timeline"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

var (
	// ErrUnknownSection is returned for events naming a section the
	// scenario does not define.
	ErrUnknownSection = errors.New("engine: unknown section")
	// ErrPreferenceFixed is returned when the preference comes from a
	// source the session cannot change, such as a watched file.
	ErrPreferenceFixed = errors.New("engine: preference is not switchable")
)

// Session is one page with its sections mounted. All methods must run on
// the goroutine that owns the frame pump.
type Session struct {
	Doc      *dom.Document
	Scenario *scenario.Scenario
	Loop     *frame.Loop
	Registry *trigger.Registry
	Prefs    *preference.Resolver
	Animator *scope.Animator
	Scroller *trigger.SmoothScroller

	logger   *slog.Logger
	fps      int
	toggle   *preference.Switch
	sections map[string]scope.Section
	order    []string
	keys     map[string]string
	mounts   map[string]*scope.Mount

	followers map[string]*scope.Follower
	progress  map[string]*scope.ProgressIndicator
	pointer   *[2]float64
	hovering  bool

	tally *tally
}

// Options configure a Session.
type Options struct {
	FPS int
	// Query supplies the reduced-motion preference. A *preference.Switch
	// makes the preference changeable through SetPreference.
	Query  preference.MediaQuery
	Logger *slog.Logger
	// Observers receive lifecycle events next to the session's own tally.
	Observers []scope.Observer
	// Metrics, when set, is fed every lifecycle, tween, trigger and frame
	// event.
	Metrics *metrics.Recorder
}

// NewSession builds the runtime for doc and sc on pump. Sections are
// resolved but not mounted; call MountAll.
func NewSession(doc *dom.Document, sc *scenario.Scenario, pump frame.Pump, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loop := frame.NewLoop(pump)
	vp := trigger.Viewport{Width: sc.Viewport.Width, Height: sc.Viewport.Height}
	reg := trigger.NewRegistry(loop, vp, logger)
	prefs := preference.NewResolver(opts.Query, logger)
	anim := scope.NewAnimator(doc, loop, reg, prefs, logger)

	s := &Session{
		Doc:       doc,
		Scenario:  sc,
		Loop:      loop,
		Registry:  reg,
		Prefs:     prefs,
		Animator:  anim,
		Scroller:  trigger.NewSmoothScroller(loop, reg, math.Max(0, doc.Height()-vp.Height)),
		logger:    logger,
		fps:       opts.FPS,
		sections:  make(map[string]scope.Section),
		keys:      make(map[string]string),
		mounts:    make(map[string]*scope.Mount),
		followers: make(map[string]*scope.Follower),
		progress:  make(map[string]*scope.ProgressIndicator),
		tally:     newTally(),
	}
	if sw, ok := opts.Query.(*preference.Switch); ok {
		s.toggle = sw
	}

	observers := append(scope.Observers{s.tally}, opts.Observers...)
	transition := func(_, to timeline.State) { s.tally.transition(to) }
	if opts.Metrics != nil {
		h := opts.Metrics.Hooks(anim)
		observers = append(observers, opts.Metrics)
		transition = func(from, to timeline.State) {
			s.tally.transition(to)
			h.Transition(from, to)
		}
		reg.SetObserver(h.Fire)
		loop.SetObserver(h.Frame)
	}
	anim.SetObserver(observers)
	anim.Engine().SetObserver(transition)

	hooks := scenario.Hooks{
		Follower: func(section string, f *scope.Follower) {
			s.followers[section] = f
			if s.pointer != nil {
				f.Move(s.pointer[0], s.pointer[1])
			}
			if s.hovering {
				f.Hover(true)
			}
		},
		Progress: func(section string, p *scope.ProgressIndicator) {
			s.progress[section] = p
		},
	}
	for _, sec := range sc.Sections {
		built, err := sec.Build(opts.FPS, hooks)
		if err != nil {
			prefs.Close()
			return nil, err
		}
		s.sections[sec.Name] = built
		s.keys[sec.Name] = sec.Key
		s.order = append(s.order, sec.Name)
	}
	return s, nil
}

// MountAll mounts every section in scenario order. Sections whose owner
// is missing are skipped with a diagnostic; the rest still mount.
func (s *Session) MountAll() {
	for _, name := range s.order {
		if err := s.Mount(name); err != nil {
			s.logger.Warn("section not mounted", "section", name, "err", err)
		}
	}
}

// Mount mounts a section. Mounting a mounted section is a no-op.
func (s *Session) Mount(name string) error {
	sec, ok := s.sections[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	if m := s.mounts[name]; m != nil && m.Mounted() {
		return nil
	}
	m, err := s.Animator.Mount(sec, s.keys[name])
	if err != nil {
		return err
	}
	s.mounts[name] = m
	return nil
}

// Unmount reverts a section's motion. Unmounting twice is a no-op.
func (s *Session) Unmount(name string) error {
	if _, ok := s.sections[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	if m := s.mounts[name]; m != nil {
		m.Unmount()
	}
	delete(s.followers, name)
	delete(s.progress, name)
	return nil
}

// SetKey changes a section's content key, re-running its setup.
func (s *Session) SetKey(name, key string) error {
	if _, ok := s.sections[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	s.keys[name] = key
	if m := s.mounts[name]; m != nil {
		m.SetKey(key)
	}
	return nil
}

// Scroll jumps to y.
func (s *Session) Scroll(y float64) { s.Scroller.Jump(y) }

// SmoothScroll animates to y.
func (s *Session) SmoothScroll(y float64) { s.Scroller.ScrollTo(y) }

// Resize changes the viewport, re-measuring triggers and remounting
// sections whose width condition flipped.
func (s *Session) Resize(width, height float64) {
	s.Animator.Resize(trigger.Viewport{Width: width, Height: height})
	s.Scroller.SetLimit(s.Doc.Height() - height)
}

// SetPreference flips the simulated motion preference.
func (s *Session) SetPreference(p preference.Preference) error {
	if s.toggle == nil {
		return ErrPreferenceFixed
	}
	s.toggle.Set(p)
	return nil
}

// Pointer moves every cursor follower.
func (s *Session) Pointer(x, y float64) {
	s.pointer = &[2]float64{x, y}
	for _, f := range s.followers {
		f.Move(x, y)
	}
}

// Hover toggles the hover state of every cursor follower.
func (s *Session) Hover(on bool) {
	s.hovering = on
	for name, f := range s.followers {
		if err := f.Hover(on); err != nil {
			s.logger.Debug("hover ignored", "section", name, "err", err)
		}
	}
}

// Apply executes one script event.
func (s *Session) Apply(ev scenario.Event) error {
	switch ev.Action {
	case scenario.ActionScroll:
		s.Scroll(ev.Value)
	case scenario.ActionSmoothScroll:
		s.SmoothScroll(ev.Value)
	case scenario.ActionResize:
		s.Resize(ev.Width, ev.Height)
	case scenario.ActionPreference:
		p, err := preference.Parse(ev.Preference)
		if err != nil {
			return err
		}
		return s.SetPreference(p)
	case scenario.ActionKey:
		return s.SetKey(ev.Section, ev.Key)
	case scenario.ActionUnmount:
		return s.Unmount(ev.Section)
	case scenario.ActionMount:
		return s.Mount(ev.Section)
	case scenario.ActionPointer:
		s.Pointer(ev.X, ev.Y)
	case scenario.ActionHover:
		s.Hover(ev.On)
	default:
		return fmt.Errorf("engine: unknown action %q", ev.Action)
	}
	return nil
}

// Close unmounts everything and stops watching the preference.
func (s *Session) Close() error {
	for _, name := range s.order {
		s.Unmount(name)
	}
	return s.Prefs.Close()
}

// Owner returns the owner element of a section, or nil for whole-page
// sections and unknown names.
func (s *Session) Owner(name string) *dom.Element {
	sec, ok := s.sections[name]
	if !ok || sec.Selector == "" {
		return nil
	}
	el, _ := s.Doc.First(sec.Selector)
	return el
}
