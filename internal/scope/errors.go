package scope

import (
	"errors"
	"fmt"
)

var (
	// ErrSpecResolution marks a spec whose selector or trigger could not be
	// resolved. It is recorded as a diagnostic and does not fail the run.
	ErrSpecResolution = errors.New("scope: spec resolution failed")
	// ErrContextReverted is returned when registering into a context that
	// has already been reverted.
	ErrContextReverted = errors.New("scope: context reverted")
	// ErrNoActiveContext is returned by Animator helpers called outside Run.
	ErrNoActiveContext = errors.New("scope: no active context")
)

// SpecResolutionError describes which part of a spec failed to resolve.
type SpecResolutionError struct {
	Section  string
	Selector string
	Err      error
}

func (e *SpecResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("section %q: selector %q matched no elements", e.Section, e.Selector)
	}
	return fmt.Sprintf("section %q: selector %q: %v", e.Section, e.Selector, e.Err)
}

func (e *SpecResolutionError) Is(target error) bool { return target == ErrSpecResolution }

func (e *SpecResolutionError) Unwrap() error { return e.Err }

// SetupError wraps a failure raised by a section's setup function,
// including recovered panics.
type SetupError struct {
	Section string
	Err     error
	Panic   bool
}

func (e *SetupError) Error() string {
	if e.Panic {
		return fmt.Sprintf("section %q: setup panicked: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("section %q: setup failed: %v", e.Section, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
