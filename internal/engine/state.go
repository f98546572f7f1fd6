package engine

import (
	"github.com/ivlev/scrollmotion/internal/scope"
	"github.com/ivlev/scrollmotion/internal/timeline"
)

// Counters totals lifecycle events over a session.
type Counters struct {
	Runs        int            `yaml:"runs" json:"runs"`
	Reverts     int            `yaml:"reverts" json:"reverts"`
	Fallbacks   map[string]int `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty"`
	Diagnostics []string       `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
	Tweens      map[string]int `yaml:"tweens,omitempty" json:"tweens,omitempty"`
}

// tally is the session's own scope.Observer.
type tally struct {
	Counters
}

func newTally() *tally {
	return &tally{Counters{Fallbacks: make(map[string]int), Tweens: make(map[string]int)}}
}

func (t *tally) ContextRun(string, bool) { t.Runs++ }

func (t *tally) ContextReverted(string, int) { t.Reverts++ }

func (t *tally) Fallback(_ string, reason scope.FallbackReason) {
	t.Fallbacks[string(reason)]++
}

func (t *tally) Diagnostic(section string, err error) {
	t.Diagnostics = append(t.Diagnostics, section+": "+err.Error())
}

func (t *tally) transition(to timeline.State) { t.Tweens[to.String()]++ }

func (t *tally) snapshot() Counters {
	c := t.Counters
	c.Fallbacks = make(map[string]int, len(t.Fallbacks))
	for k, v := range t.Fallbacks {
		c.Fallbacks[k] = v
	}
	c.Tweens = make(map[string]int, len(t.Tweens))
	for k, v := range t.Tweens {
		c.Tweens[k] = v
	}
	c.Diagnostics = append([]string(nil), t.Diagnostics...)
	return c
}

// SectionState describes one section at a point in time.
type SectionState struct {
	Name     string      `yaml:"name" json:"name"`
	Mounted  bool        `yaml:"mounted" json:"mounted"`
	Key      string      `yaml:"key,omitempty" json:"key,omitempty"`
	Runs     int         `yaml:"runs" json:"runs"`
	Reduced  bool        `yaml:"reduced" json:"reduced"`
	Entries  int         `yaml:"entries" json:"entries"`
	Failure  string      `yaml:"failure,omitempty" json:"failure,omitempty"`
	Progress *float64    `yaml:"progress,omitempty" json:"progress,omitempty"`
	Cursor   *[2]float64 `yaml:"cursor,omitempty" json:"cursor,omitempty"`
}

// State is a snapshot of the whole session.
type State struct {
	Time        float64        `yaml:"t" json:"t"`
	Frames      uint64         `yaml:"frames" json:"frames"`
	ScrollY     float64        `yaml:"scroll_y" json:"scroll_y"`
	Width       float64        `yaml:"width" json:"width"`
	Height      float64        `yaml:"height" json:"height"`
	Preference  string         `yaml:"preference" json:"preference"`
	Subscribers int            `yaml:"frame_subscribers" json:"frame_subscribers"`
	Triggers    int            `yaml:"triggers" json:"triggers"`
	Playing     int            `yaml:"playing" json:"playing"`
	Contexts    int            `yaml:"live_contexts" json:"live_contexts"`
	Sections    []SectionState `yaml:"sections" json:"sections"`
	Counters    Counters       `yaml:"counters" json:"counters"`
}

// State snapshots the session.
func (s *Session) State() State {
	vp := s.Registry.Viewport()
	st := State{
		Time:        s.Loop.Now().Seconds(),
		Frames:      s.Loop.Frames(),
		ScrollY:     s.Registry.ScrollY(),
		Width:       vp.Width,
		Height:      vp.Height,
		Preference:  s.Prefs.Current().String(),
		Subscribers: s.Loop.Pending(),
		Triggers:    s.Registry.Active(),
		Playing:     s.Animator.Engine().Running(),
		Contexts:    s.Animator.Live(),
		Counters:    s.tally.snapshot(),
	}
	for _, name := range s.order {
		ss := SectionState{Name: name, Key: s.keys[name]}
		if m := s.mounts[name]; m != nil {
			ss.Mounted = m.Mounted()
			ss.Runs = m.Runs()
			if c := m.Context(); c != nil && ss.Mounted {
				ss.Reduced = c.Reduced()
				ss.Entries = c.Entries()
				if err := c.Failure(); err != nil {
					ss.Failure = err.Error()
				}
			}
		}
		if p, ok := s.progress[name]; ok && ss.Mounted {
			v := p.Value()
			ss.Progress = &v
		}
		if f, ok := s.followers[name]; ok && ss.Mounted {
			x, y := f.Position()
			ss.Cursor = &[2]float64{x, y}
		}
		st.Sections = append(st.Sections, ss)
	}
	return st
}
