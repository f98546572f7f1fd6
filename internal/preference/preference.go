// Package preference resolves the user's reduced-motion preference and
// publishes changes to subscribers.
package preference

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Preference is the motion preference.
type Preference int

const (
	// Normal means motion is allowed.
	Normal Preference = iota
	// Reduced means motion must be replaced by end states.
	Reduced
)

func (p Preference) String() string {
	if p == Reduced {
		return "reduce"
	}
	return "no-preference"
}

// Parse accepts the media-query spellings ("reduce", "no-preference") and
// a few boolean forms.
func Parse(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reduce", "reduced", "true", "1", "yes", "on":
		return Reduced, nil
	case "no-preference", "normal", "false", "0", "no", "off", "":
		return Normal, nil
	}
	return Normal, fmt.Errorf("preference: unknown value %q", s)
}

// ErrUnavailable reports that the reduced-motion query cannot be evaluated.
var ErrUnavailable = errors.New("preference: media query unavailable")

// MediaQuery is the host's "prefers-reduced-motion: reduce" query.
type MediaQuery interface {
	// Matches reports whether reduced motion is requested.
	Matches() (bool, error)
	// Watch calls onChange whenever the answer changes. It must not poll.
	Watch(onChange func(reduced bool)) (stop func() error, err error)
}

// Resolver is the process-wide observable motion preference.
type Resolver struct {
	logger *slog.Logger

	mu      sync.Mutex
	current Preference
	subs    map[int]func(Preference)
	order   []int
	nextID  int
	stop    func() error
}

// unavailableWarned holds the loggers that already carry the
// unavailable-preference warning, so it appears once per logger however
// many resolvers fail.
var unavailableWarned sync.Map

const unavailableMsg = "reduced-motion preference unavailable, assuming no-preference"

// NewResolver evaluates q once and starts watching it. A nil query, or a
// query that errors, leaves the preference at Normal with a single warning.
func NewResolver(q MediaQuery, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{logger: logger, subs: make(map[int]func(Preference))}
	if q == nil {
		r.warnUnavailable(ErrUnavailable)
		return r
	}

	reduced, err := q.Matches()
	if err != nil {
		r.warnUnavailable(err)
		return r
	}
	if reduced {
		r.current = Reduced
	}

	stop, err := q.Watch(func(reduced bool) {
		p := Normal
		if reduced {
			p = Reduced
		}
		r.set(p)
	})
	if err != nil {
		r.warnUnavailable(err)
		return r
	}
	r.stop = stop
	return r
}

func (r *Resolver) warnUnavailable(err error) {
	if _, seen := unavailableWarned.LoadOrStore(r.logger, struct{}{}); seen {
		return
	}
	r.logger.Warn(unavailableMsg, "error", err)
}

// Current returns the preference now.
func (r *Resolver) Current() Preference {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Subscribe calls cb with the current value immediately and again on
// every change. The returned function unsubscribes; calling it twice is
// harmless.
func (r *Resolver) Subscribe(cb func(Preference)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = cb
	r.order = append(r.order, id)
	cur := r.current
	r.mu.Unlock()

	cb(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			for i, v := range r.order {
				if v == id {
					r.order = append(r.order[:i], r.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (r *Resolver) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (r *Resolver) set(p Preference) {
	r.mu.Lock()
	if p == r.current {
		r.mu.Unlock()
		return
	}
	r.current = p
	cbs := make([]func(Preference), 0, len(r.order))
	for _, id := range r.order {
		cbs = append(cbs, r.subs[id])
	}
	r.mu.Unlock()

	r.logger.Info("motion preference changed", "preference", p.String())
	for _, cb := range cbs {
		cb(p)
	}
}

// Close stops watching the underlying query.
func (r *Resolver) Close() error {
	r.mu.Lock()
	stop := r.stop
	r.stop = nil
	r.mu.Unlock()
	if stop == nil {
		return nil
	}
	return stop()
}
