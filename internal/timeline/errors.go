package timeline

import "errors"

var (
	// ErrNoTargets is returned when a spec is played against zero elements.
	ErrNoTargets = errors.New("timeline: no targets")
	// ErrNothingToAnimate is returned when every property was dropped.
	ErrNothingToAnimate = errors.New("timeline: no supported properties")
)
