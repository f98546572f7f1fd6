package trigger

import (
	"math"
	"time"

	"github.com/ivlev/scrollmotion/internal/easing"
	"github.com/ivlev/scrollmotion/internal/frame"
)

// SmoothDuration is how long an animated scroll takes.
const SmoothDuration = 1200 * time.Millisecond

// SmoothScroller animates the scroll offset towards a target with the
// expo-out curve and feeds every intermediate offset to a Registry.
type SmoothScroller struct {
	loop     *frame.Loop
	reg      *Registry
	limit    float64
	duration time.Duration

	from, to float64
	start    time.Duration
	sub      *frame.Subscription
}

// NewSmoothScroller creates a scroller limited to [0, limit].
func NewSmoothScroller(loop *frame.Loop, reg *Registry, limit float64) *SmoothScroller {
	return &SmoothScroller{loop: loop, reg: reg, limit: limit, duration: SmoothDuration}
}

// ScrollTo animates to y. A scroll already in flight is retargeted from
// the current offset.
func (s *SmoothScroller) ScrollTo(y float64) {
	s.from = s.reg.ScrollY()
	s.to = math.Max(0, math.Min(s.limit, y))
	s.start = s.loop.Now()
	if !s.sub.Active() {
		s.sub = s.loop.Add(s.tick)
	}
}

// ScrollBy animates relative to the current target, like a wheel event.
func (s *SmoothScroller) ScrollBy(dy float64) {
	base := s.reg.ScrollY()
	if s.Active() {
		base = s.to
	}
	s.ScrollTo(base + dy)
}

// Jump sets the offset without animating.
func (s *SmoothScroller) Jump(y float64) {
	s.Stop()
	s.to = math.Max(0, math.Min(s.limit, y))
	s.reg.Scroll(s.to)
}

// Stop halts the animation where it is.
func (s *SmoothScroller) Stop() {
	s.sub.Stop()
	s.sub = nil
}

// Active reports whether an animated scroll is in flight.
func (s *SmoothScroller) Active() bool { return s.sub.Active() }

// SetLimit changes the largest reachable offset, as after a resize.
func (s *SmoothScroller) SetLimit(limit float64) {
	s.limit = math.Max(0, limit)
}

// Limit returns the largest reachable offset.
func (s *SmoothScroller) Limit() float64 { return s.limit }

// Target returns the offset being scrolled to.
func (s *SmoothScroller) Target() float64 { return s.to }

func (s *SmoothScroller) tick(now time.Duration) {
	t := float64(now-s.start) / float64(s.duration)
	if t >= 1 {
		s.reg.Scroll(s.to)
		s.Stop()
		return
	}
	s.reg.Scroll(easing.Lerp(s.from, s.to, easing.ExpoOut(t)))
}
