// Package scenario reads and writes YAML page scenarios: the sections of
// a page with their tweens, and a timed script of viewer actions.
package scenario

// Scenario describes a page's motion and the session played against it.
type Scenario struct {
	Version  string    `yaml:"version"`
	Document string    `yaml:"document,omitempty"`
	Viewport Viewport  `yaml:"viewport"`
	Duration float64   `yaml:"duration,omitempty"` // Session length in seconds
	Sections []Section `yaml:"sections"`
	Script   []Event   `yaml:"script,omitempty"`
}

// Viewport is the simulated window size.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Section is one mounted unit of motion.
type Section struct {
	Name     string  `yaml:"name"`
	Selector string  `yaml:"selector,omitempty"`
	MinWidth float64 `yaml:"min_width,omitempty"`
	Key      string  `yaml:"key,omitempty"`
	Tweens   []Tween `yaml:"tweens,omitempty"`
	// Cursor and Progress name elements driven by the cursor follower and
	// the scroll progress indicator.
	Cursor   string `yaml:"cursor,omitempty"`
	Progress string `yaml:"progress,omitempty"`
}

// Tween is a GSAP-style tween: an optional effect preset overlaid with
// from/to var maps. Timing keys (duration, delay, stagger, ease, repeat,
// yoyo) may appear in either map; every other key is a property.
type Tween struct {
	Target  string         `yaml:"target"`
	Effect  string         `yaml:"effect,omitempty"`
	From    map[string]any `yaml:"from,omitempty"`
	To      map[string]any `yaml:"to,omitempty"`
	Trigger *Trigger       `yaml:"trigger,omitempty"`
	// Immediate plays on mount even when the effect declares a trigger.
	Immediate bool `yaml:"immediate,omitempty"`
}

// Trigger attaches a tween to scroll position.
type Trigger struct {
	Selector string `yaml:"selector,omitempty"`
	Start    string `yaml:"start,omitempty"`
	End      string `yaml:"end,omitempty"`
	Mode     string `yaml:"mode,omitempty"`
}

// Event is one scripted viewer action at a time offset in seconds.
type Event struct {
	At     float64 `yaml:"at"`
	Action string  `yaml:"action"`
	// Value is the scroll offset for scroll actions.
	Value      float64 `yaml:"value,omitempty"`
	Width      float64 `yaml:"width,omitempty"`
	Height     float64 `yaml:"height,omitempty"`
	X          float64 `yaml:"x,omitempty"`
	Y          float64 `yaml:"y,omitempty"`
	Section    string  `yaml:"section,omitempty"`
	Key        string  `yaml:"key,omitempty"`
	Preference string  `yaml:"preference,omitempty"`
	On         bool    `yaml:"on,omitempty"`
}

// Script actions.
const (
	ActionScroll       = "scroll"
	ActionSmoothScroll = "smooth-scroll"
	ActionResize       = "resize"
	ActionPreference   = "preference"
	ActionKey          = "key"
	ActionUnmount      = "unmount"
	ActionMount        = "mount"
	ActionPointer      = "pointer"
	ActionHover        = "hover"
)

var actions = map[string]bool{
	ActionScroll: true, ActionSmoothScroll: true, ActionResize: true,
	ActionPreference: true, ActionKey: true, ActionUnmount: true,
	ActionMount: true, ActionPointer: true, ActionHover: true,
}
