// Package effects holds the named reveal presets sections use instead of
// spelling out from/to states.
package effects

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/scope"
	"github.com/ivlev/scrollmotion/internal/timeline"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

// ErrUnknown is returned by Lookup for unregistered names.
var ErrUnknown = errors.New("effects: unknown effect")

// Durations are the named tween lengths.
var Durations = map[string]time.Duration{
	"fast":     300 * time.Millisecond,
	"normal":   600 * time.Millisecond,
	"slow":     time.Second,
	"verySlow": 1500 * time.Millisecond,
}

// Staggers are the named gaps between successive targets.
var Staggers = map[string]time.Duration{
	"tight":  50 * time.Millisecond,
	"normal": 80 * time.Millisecond,
	"loose":  120 * time.Millisecond,
	"wide":   200 * time.Millisecond,
}

// Distances are the named offsets in pixels.
var Distances = map[string]float64{
	"small":      30,
	"medium":     50,
	"large":      100,
	"extraLarge": 200,
}

// Rotations are the named angles in degrees.
var Rotations = map[string]float64{
	"slight":  45,
	"quarter": 90,
	"half":    180,
	"full":    360,
}

// Effect is a reusable tween shape with an optional trigger.
type Effect struct {
	Name     string
	From     dom.Props
	To       dom.Props
	Duration time.Duration
	Ease     string
	Stagger  time.Duration
	Repeat   int
	Yoyo     bool
	Start    string
	End      string
	Mode     trigger.Mode
	// Immediate effects play on mount instead of waiting for a trigger.
	Immediate bool
	// Reduced is the end state under reduced motion, when it differs
	// from To.
	Reduced dom.Props
}

var registry = map[string]Effect{
	"fade-up": {
		From:     dom.Props{"opacity": 0, "y": 40},
		Duration: Durations["normal"],
		Ease:     "smooth",
		Stagger:  Staggers["normal"],
		Start:    "normal",
	},
	"rise": {
		From:     dom.Props{"opacity": 0, "y": 50},
		Duration: 800 * time.Millisecond,
		Ease:     "energetic",
		Start:    "top 80%",
	},
	"slide-left": {
		From:     dom.Props{"opacity": 0, "x": -50},
		Duration: Durations["slow"],
		Ease:     "energetic",
		Start:    "top 80%",
	},
	"slide-right": {
		From:     dom.Props{"opacity": 0, "x": 50},
		Duration: Durations["slow"],
		Ease:     "energetic",
		Start:    "top 80%",
	},
	"zoom-in": {
		From:     dom.Props{"opacity": 0, "scale": 0.8},
		Duration: Durations["slow"],
		Ease:     "dramatic",
		Start:    "top 80%",
	},
	"clip-reveal": {
		From:     dom.Props{"clip": 0},
		Duration: 1200 * time.Millisecond,
		Ease:     "power4.inOut",
		Start:    "top 80%",
	},
	"counter": {
		From:     dom.Props{"count": 0},
		Duration: 2 * time.Second,
		Ease:     "smooth",
		Start:    "top 85%",
	},
	"title-lines": {
		From:      dom.Props{"opacity": 0, "y": 100},
		Duration:  Durations["slow"],
		Ease:      "dramatic",
		Stagger:   150 * time.Millisecond,
		Immediate: true,
	},
	"parallax": {
		To:      dom.Props{"yPercent": 50},
		Ease:    "linear",
		Start:   "top bottom",
		End:     "bottom top",
		Mode:    trigger.Scrubbed,
		Reduced: dom.RestProps("yPercent"),
	},
	"hero-scale": {
		To:      dom.Props{"scale": 0.9, "opacity": 0.3},
		Ease:    "linear",
		Start:   "top top",
		End:     "bottom top",
		Mode:    trigger.Scrubbed,
		Reduced: dom.RestProps("scale", "opacity"),
	},
	"spin": {
		To:        dom.Props{"rotate": 360},
		Duration:  20 * time.Second,
		Ease:      "linear",
		Repeat:    -1,
		Immediate: true,
	},
	"float": {
		To:        dom.Props{"y": -20},
		Duration:  3 * time.Second,
		Ease:      "sine.inOut",
		Repeat:    -1,
		Yoyo:      true,
		Immediate: true,
	},
}

func init() {
	for name, e := range registry {
		e.Name = name
		registry[name] = e
	}
}

// Lookup returns a copy of the named effect.
func Lookup(name string) (Effect, error) {
	e, ok := registry[name]
	if !ok {
		return Effect{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	e.From = e.From.Clone()
	e.To = e.To.Clone()
	e.Reduced = e.Reduced.Clone()
	return e, nil
}

// Names lists the registered effects, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Animation builds a scope.Animation targeting selector. A scrubbed effect
// with no duration gets one second, which only sets the scrub resolution.
func (e Effect) Animation(selector string) scope.Animation {
	d := e.Duration
	if d == 0 && e.Mode == trigger.Scrubbed {
		d = time.Second
	}
	an := scope.Animation{Spec: timeline.Spec{
		Target:   selector,
		From:     e.From.Clone(),
		To:       e.To.Clone(),
		Duration: d,
		Ease:     e.Ease,
		Stagger:  e.Stagger,
		Repeat:   e.Repeat,
		Yoyo:     e.Yoyo,
	}, Reduced: e.Reduced.Clone()}
	if !e.Immediate {
		an.Trigger = &scope.TriggerSpec{Start: e.Start, End: e.End, Mode: e.Mode}
	}
	return an
}
