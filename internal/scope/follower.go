package scope

import (
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/timeline"
)

// Lag factors for the cursor ring and dot.
const (
	RingFactor = 0.15
	DotFactor  = 0.4
)

// HoverScale is the ring scale while hovering an interactive element.
const HoverScale = 1.5

// Follower eases an element's x and y towards a pointer position by a
// fixed fraction of the remaining distance every frame.
type Follower struct {
	ctx      *Context
	el       *dom.Element
	factor   float64
	tx, ty   float64
	x, y     float64
	hovering bool
	hover    *timeline.Timeline
}

// Follow attaches a follower to the first element matching selector.
// Under reduced motion no frame callback is registered and Move assigns
// the position directly.
func (c *Context) Follow(selector string, factor float64) (*Follower, error) {
	els, err := c.Query(selector)
	if err != nil {
		return nil, err
	}
	f := &Follower{ctx: c, el: els[0], factor: factor}
	if c.reduced {
		return f, nil
	}
	if _, err := c.OnFrame(f.tick); err != nil {
		return nil, err
	}
	return f, nil
}

// Move sets the pointer position.
func (f *Follower) Move(x, y float64) {
	f.tx, f.ty = x, y
	if f.ctx.reduced {
		f.x, f.y = x, y
		f.apply()
	}
}

// Position returns the follower's current position.
func (f *Follower) Position() (x, y float64) { return f.x, f.y }

// Hover scales the element up while the pointer is over an interactive
// element.
func (f *Follower) Hover(on bool) error {
	if on == f.hovering {
		return nil
	}
	f.hovering = on
	scale := 1.0
	if on {
		scale = HoverScale
	}
	tl, err := f.ctx.animateElement(f.el, timeline.Spec{
		To:       dom.Props{"scale": scale},
		Duration: 300 * time.Millisecond,
	}, f.hover)
	if err != nil {
		return err
	}
	f.hover = tl
	return nil
}

func (f *Follower) tick(time.Duration) {
	f.x += (f.tx - f.x) * f.factor
	f.y += (f.ty - f.y) * f.factor
	f.apply()
}

func (f *Follower) apply() {
	f.el.Set("x", f.x)
	f.el.Set("y", f.y)
}
