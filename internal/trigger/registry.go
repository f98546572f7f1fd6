// Package trigger maps scroll-position conditions to callbacks. Scroll
// events are coalesced to one evaluation per frame and element geometry is
// measured only on registration and after a resize.
package trigger

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
)

// ErrNoElement is returned when a condition has no reference element.
var ErrNoElement = errors.New("trigger: no reference element")

// Epsilon is the smallest scrub progress change that is reported.
const Epsilon = 1e-4

// Mode selects how a trigger fires.
type Mode int

const (
	// Once fires on the first forward crossing, then unregisters.
	Once Mode = iota
	// EveryCrossing fires on each crossing in either direction.
	EveryCrossing
	// Scrubbed reports continuous progress between start and end.
	Scrubbed
)

var modeNames = [...]string{"once", "everyCrossing", "scrubbed"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return Once, errors.New("trigger: unknown mode " + s)
}

// Condition is a registration request.
type Condition struct {
	Element *dom.Element
	Start   Position
	// End closes a scrubbed range; nil means DefaultEnd.
	End  *Position
	Mode Mode
}

// Viewport is the visible area size in layout pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Handle identifies a registered trigger.
type Handle struct {
	id       uint64
	cond     Condition
	onFire   func(progress float64)
	startY   float64
	endY     float64
	stale    bool
	past     bool
	progress float64
	fired    int
	active   bool
}

// Mode returns the registered fire mode.
func (h *Handle) Mode() Mode { return h.cond.Mode }

// Active reports whether the trigger is still registered.
func (h *Handle) Active() bool { return h != nil && h.active }

// Fired returns how many times onFire ran.
func (h *Handle) Fired() int { return h.fired }

// Progress returns the last reported progress.
func (h *Handle) Progress() float64 { return h.progress }

// Range returns the scroll offsets where the trigger starts and ends.
func (h *Handle) Range() (start, end float64) { return h.startY, h.endY }

// Registry evaluates triggers against the scroll position.
type Registry struct {
	loop     *frame.Loop
	logger   *slog.Logger
	viewport Viewport
	scrollY  float64
	entries  []*Handle
	pending  *frame.Subscription
	nextID   uint64
	updates  int
	observer func(h *Handle, progress float64)
	listens  []*Listener
}

// Listener is a callback run synchronously on every Scroll and Resize,
// outside frame evaluation.
type Listener struct {
	fn     func()
	active bool
}

// Active reports whether the listener is still attached.
func (l *Listener) Active() bool { return l != nil && l.active }

// NewRegistry creates a registry that evaluates on loop frames.
func NewRegistry(loop *frame.Loop, vp Viewport, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{loop: loop, logger: logger, viewport: vp}
}

// SetObserver installs a hook called after every fire.
func (r *Registry) SetObserver(fn func(h *Handle, progress float64)) { r.observer = fn }

// Register adds a trigger. Its geometry is measured now; evaluation
// happens on the next frame, treating the element as not yet reached, so
// an element already past its start fires then.
func (r *Registry) Register(cond Condition, onFire func(progress float64)) (*Handle, error) {
	if cond.Element == nil {
		return nil, ErrNoElement
	}
	r.nextID++
	h := &Handle{id: r.nextID, cond: cond, onFire: onFire, progress: -1, active: true}
	r.measure(h)
	r.entries = append(r.entries, h)
	r.schedule()
	return h, nil
}

// Unregister detaches h. Unregistering twice is a no-op.
func (r *Registry) Unregister(h *Handle) {
	if !h.Active() {
		return
	}
	h.active = false
	for i, e := range r.entries {
		if e == h {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	if len(r.entries) == 0 {
		r.pending.Stop()
		r.pending = nil
	}
}

// Scroll records a new scroll offset. Any number of calls between frames
// produce one evaluation.
func (r *Registry) Scroll(y float64) {
	r.scrollY = y
	r.notify()
	r.schedule()
}

// Resize records a viewport change and marks every trigger for
// re-measurement on the next evaluation.
func (r *Registry) Resize(vp Viewport) {
	r.viewport = vp
	r.notify()
	r.Refresh()
}

// Listen attaches fn to scroll and resize events. Unlike a trigger it
// schedules no frame; fn sees the new ScrollY and Viewport immediately.
func (r *Registry) Listen(fn func()) *Listener {
	l := &Listener{fn: fn, active: true}
	r.listens = append(r.listens, l)
	return l
}

// Unlisten detaches l. Detaching twice, or a nil listener, is a no-op.
func (r *Registry) Unlisten(l *Listener) {
	if !l.Active() {
		return
	}
	l.active = false
	for i, e := range r.listens {
		if e == l {
			r.listens = append(r.listens[:i], r.listens[i+1:]...)
			break
		}
	}
}

// Listeners returns the number of attached listeners.
func (r *Registry) Listeners() int { return len(r.listens) }

func (r *Registry) notify() {
	for _, l := range append([]*Listener(nil), r.listens...) {
		if l.active {
			l.fn()
		}
	}
}

// Refresh marks every trigger for re-measurement, as after a layout change.
func (r *Registry) Refresh() {
	for _, h := range r.entries {
		h.stale = true
	}
	r.schedule()
}

// ScrollY returns the last recorded scroll offset.
func (r *Registry) ScrollY() float64 { return r.scrollY }

// Viewport returns the current viewport.
func (r *Registry) Viewport() Viewport { return r.viewport }

// Active returns the number of registered triggers.
func (r *Registry) Active() int { return len(r.entries) }

// Updates returns how many evaluations ran.
func (r *Registry) Updates() int { return r.updates }

// Handles returns the registered triggers in registration order.
func (r *Registry) Handles() []*Handle {
	out := make([]*Handle, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) schedule() {
	if r.pending.Active() || len(r.entries) == 0 {
		return
	}
	r.pending = r.loop.Once(r.update)
}

func (r *Registry) measure(h *Handle) {
	b := h.cond.Element.Bounds()
	vh := r.viewport.Height
	h.startY = b.Top + h.cond.Start.Element*b.Height - h.cond.Start.Viewport*vh
	end := MustParsePosition(DefaultEnd)
	if h.cond.End != nil {
		end = *h.cond.End
	}
	h.endY = b.Top + end.Element*b.Height - end.Viewport*vh
	h.stale = false
}

func (r *Registry) update(_ time.Duration) {
	r.pending = nil
	r.updates++
	y := r.scrollY

	// onFire may register or unregister triggers.
	batch := r.Handles()
	for _, h := range batch {
		if !h.active {
			continue
		}
		if h.stale {
			r.measure(h)
		}
		switch h.cond.Mode {
		case Once:
			if y >= h.startY {
				r.Unregister(h)
				h.past = true
				r.fire(h, 1)
			}
		case EveryCrossing:
			past := y >= h.startY
			if past != h.past {
				h.past = past
				r.fire(h, b2f(past))
			}
		case Scrubbed:
			p := h.scrubProgress(y)
			if math.Abs(p-h.progress) > Epsilon {
				r.fire(h, p)
			}
		}
	}
}

func (h *Handle) scrubProgress(y float64) float64 {
	span := h.endY - h.startY
	if span <= 0 {
		return b2f(y >= h.startY)
	}
	p := (y - h.startY) / span
	return math.Max(0, math.Min(1, p))
}

func (r *Registry) fire(h *Handle, progress float64) {
	h.progress = progress
	h.fired++
	if h.onFire != nil {
		h.onFire(progress)
	}
	if r.observer != nil {
		r.observer(h, progress)
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
