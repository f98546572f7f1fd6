package scope

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/timeline"
)

// Spring parameters for the progress bar: stiffness 100 and damping 30 on
// unit mass, i.e. angular frequency 10 and damping ratio 1.5.
const (
	progressFrequency = 10.0
	progressDamping   = 1.5
	progressRestDelta = 0.001
)

// ProgressThreshold is the scroll offset past which the indicator shows.
const ProgressThreshold = 100

// ProgressIndicator renders page scroll progress on an element's scaleX,
// smoothed by a spring, and fades the element in once the page has
// scrolled past ProgressThreshold.
type ProgressIndicator struct {
	ctx     *Context
	el      *dom.Element
	spring  harmonica.Spring
	height  float64
	pos     float64
	vel     float64
	visible bool
	fade    *timeline.Timeline
}

// Progress attaches an indicator to the first element matching selector.
// fps is the frame rate the spring is integrated at.
func (c *Context) Progress(selector string, fps int) (*ProgressIndicator, error) {
	els, err := c.Query(selector)
	if err != nil {
		return nil, err
	}
	dt := frame.IntervalFor(fps).Seconds()
	p := &ProgressIndicator{
		ctx:    c,
		el:     els[0],
		spring: harmonica.NewSpring(dt, progressFrequency, progressDamping),
		height: c.animator.doc.Height(),
	}
	p.el.Apply(dom.Props{"scaleX": 0, "opacity": 0, "scale": 0})
	if c.reduced {
		// Jump straight to each scroll position, without frames.
		if _, err := c.Listen(p.update); err != nil {
			return nil, err
		}
		p.update()
		return p, nil
	}
	if _, err := c.OnFrame(p.tick); err != nil {
		return nil, err
	}
	return p, nil
}

// Value returns the smoothed progress.
func (p *ProgressIndicator) Value() float64 { return p.pos }

// Visible reports whether the indicator is shown.
func (p *ProgressIndicator) Visible() bool { return p.visible }

// Target returns the unsmoothed page progress in [0,1].
func (p *ProgressIndicator) Target() float64 {
	a := p.ctx.animator
	span := p.height - a.registry.Viewport().Height
	if span <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, a.registry.ScrollY()/span))
}

func (p *ProgressIndicator) tick(time.Duration) {
	target := p.Target()
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, target)
	if math.Abs(p.pos-target) < progressRestDelta && math.Abs(p.vel) < progressRestDelta {
		p.pos, p.vel = target, 0
	}
	p.render()
}

// update is the reduced-motion path: no spring, and the fade snaps.
func (p *ProgressIndicator) update() {
	p.pos, p.vel = p.Target(), 0
	p.render()
}

func (p *ProgressIndicator) render() {
	p.el.Set("scaleX", p.pos)

	visible := p.ctx.animator.registry.ScrollY() > ProgressThreshold
	if visible == p.visible {
		return
	}
	p.visible = visible
	v := 0.0
	if visible {
		v = 1
	}
	if tl, err := p.ctx.animateElement(p.el, timeline.Spec{
		To:       dom.Props{"opacity": v, "scale": v},
		Duration: 300 * time.Millisecond,
	}, p.fade); err == nil {
		p.fade = tl
	}
}
