// Package timeline interpolates render properties over time. Timelines
// run on a frame.Loop; nothing here owns a goroutine.
package timeline

import (
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
)

// Spec describes one tween. It is treated as immutable once handed to the
// engine: maps are copied on registration.
type Spec struct {
	Target   string
	From     dom.Props
	To       dom.Props
	Duration time.Duration
	Ease     string
	Stagger  time.Duration
	Delay    time.Duration
	// Repeat counts extra cycles; -1 repeats forever.
	Repeat int
	Yoyo   bool
	// OnComplete runs once, on the frame the last target settles.
	OnComplete func()
}

// Names returns every property named by From or To.
func (s Spec) Names() []string {
	merged := make(dom.Props, len(s.From)+len(s.To))
	for k := range s.From {
		merged[k] = 0
	}
	for k := range s.To {
		merged[k] = 0
	}
	return merged.Keys()
}

// State is a tween's lifecycle position.
type State int

const (
	StateRegistered State = iota
	StateArmed
	StatePlaying
	StateCompleted
	StateSnapped
	StateCancelled
)

var stateNames = [...]string{"registered", "armed", "playing", "completed", "snapped", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateSnapped || s == StateCancelled
}
