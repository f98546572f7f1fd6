package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/logging"
)

const page = `<html><body>
<section id="e" data-top="1000" data-height="200"></section>
</body></html>`

type fixture struct {
	pump *frame.ManualPump
	loop *frame.Loop
	reg  *Registry
	doc  *dom.Document
	el   *dom.Element
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	el, err := doc.First("#e")
	require.NoError(t, err)

	pump := frame.NewManualPump(60)
	loop := frame.NewLoop(pump)
	reg := NewRegistry(loop, Viewport{Width: 1440, Height: 800}, logging.NewNop())
	return &fixture{pump: pump, loop: loop, reg: reg, doc: doc, el: el}
}

func (f *fixture) scroll(y float64) {
	f.reg.Scroll(y)
	f.pump.Step()
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	f := newFixture(t)
	calls := 0
	h, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8), Mode: Once}, func(float64) { calls++ })
	require.NoError(t, err)

	start, _ := h.Range()
	assert.Equal(t, 360.0, start)

	f.scroll(0)
	assert.Zero(t, calls)
	f.scroll(400)
	assert.Equal(t, 1, calls)
	f.scroll(100)
	f.scroll(500)
	assert.Equal(t, 1, calls)
	assert.False(t, h.Active())
	assert.Zero(t, f.reg.Active())
	assert.Zero(t, f.loop.Pending())
}

func TestAlreadyPastFiresOnFirstUpdate(t *testing.T) {
	f := newFixture(t)
	f.reg.Scroll(2000)

	fired := false
	_, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8)}, func(float64) { fired = true })
	require.NoError(t, err)
	assert.False(t, fired)
	f.pump.Step()
	assert.True(t, fired)
}

func TestEveryCrossingFiresBothDirections(t *testing.T) {
	f := newFixture(t)
	var got []float64
	_, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8), Mode: EveryCrossing}, func(p float64) { got = append(got, p) })
	require.NoError(t, err)

	f.scroll(0)
	f.scroll(400)
	f.scroll(450)
	f.scroll(100)
	f.scroll(500)
	assert.Equal(t, []float64{1, 0, 1}, got)
	assert.Equal(t, 1, f.reg.Active())
}

func TestScrubbedProgressIsIdempotent(t *testing.T) {
	f := newFixture(t)
	start := MustParsePosition("top bottom")
	end := MustParsePosition("bottom top")
	var got []float64
	h, err := f.reg.Register(Condition{Element: f.el, Start: start, End: &end, Mode: Scrubbed}, func(p float64) { got = append(got, p) })
	require.NoError(t, err)

	f.scroll(700)
	first := h.Progress()
	assert.InDelta(t, 0.5, first, 1e-9)

	f.scroll(900)
	f.scroll(700)
	assert.Equal(t, first, h.Progress())

	n := len(got)
	f.scroll(700)
	assert.Len(t, got, n, "unchanged progress is not reported")

	f.scroll(-50)
	assert.Equal(t, 0.0, h.Progress())
	f.scroll(5000)
	assert.Equal(t, 1.0, h.Progress())
}

func TestScrollStormCoalescesToOneUpdatePerFrame(t *testing.T) {
	f := newFixture(t)
	_, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8), Mode: EveryCrossing}, nil)
	require.NoError(t, err)
	f.pump.Step()
	before := f.reg.Updates()

	for y := 0.0; y < 1000; y += 10 {
		f.reg.Scroll(y)
	}
	assert.Equal(t, 1, f.pump.Pending())
	f.pump.Step()
	assert.Equal(t, before+1, f.reg.Updates())
}

func TestGeometryReadOnRegisterAndResizeOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8), Mode: EveryCrossing}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.doc.LayoutReads())

	for y := 0.0; y < 2000; y += 100 {
		f.scroll(y)
	}
	assert.Equal(t, 1, f.doc.LayoutReads())

	f.reg.Resize(Viewport{Width: 390, Height: 700})
	f.reg.Resize(Viewport{Width: 390, Height: 600})
	f.pump.Step()
	assert.Equal(t, 2, f.doc.LayoutReads())
}

func TestResizeMovesThreshold(t *testing.T) {
	f := newFixture(t)
	h, err := f.reg.Register(Condition{Element: f.el, Start: At(0.5), Mode: EveryCrossing}, nil)
	require.NoError(t, err)
	s, _ := h.Range()
	assert.Equal(t, 600.0, s)

	f.reg.Resize(Viewport{Height: 400})
	f.pump.Step()
	s, _ = h.Range()
	assert.Equal(t, 800.0, s)
}

func TestFireInRegistrationOrder(t *testing.T) {
	f := newFixture(t)
	var order []int
	for i := range 3 {
		_, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8)}, func(float64) { order = append(order, i) })
		require.NoError(t, err)
	}
	f.scroll(1000)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestReentrantRegistration(t *testing.T) {
	f := newFixture(t)
	var victim, second *Handle
	var regErr error
	lateFired := false

	_, err := f.reg.Register(Condition{Element: f.el, Start: At(0.8)}, func(float64) {
		f.reg.Unregister(victim)
		second, regErr = f.reg.Register(Condition{Element: f.el, Start: At(0.8)}, func(float64) { lateFired = true })
	})
	require.NoError(t, err)
	victim, err = f.reg.Register(Condition{Element: f.el, Start: At(0.1), Mode: EveryCrossing}, nil)
	require.NoError(t, err)

	f.scroll(1000)
	require.NoError(t, regErr)
	assert.False(t, victim.Active())
	assert.Zero(t, victim.Fired(), "unregistered earlier in the same batch")
	assert.False(t, lateFired)

	f.pump.Step()
	assert.True(t, lateFired)
	assert.False(t, second.Active())
}

func TestRegisterWithoutElement(t *testing.T) {
	f := newFixture(t)
	_, err := f.reg.Register(Condition{}, nil)
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("top 80%")
	require.NoError(t, err)
	assert.Equal(t, Position{Element: 0, Viewport: 0.8}, p)

	p, err = ParsePosition("center center")
	require.NoError(t, err)
	assert.Equal(t, Position{Element: 0.5, Viewport: 0.5}, p)

	p, err = ParsePosition("veryLate")
	require.NoError(t, err)
	assert.Equal(t, At(0.5), p)
	assert.Equal(t, "top 50%", p.String())

	for _, bad := range []string{"", "top", "left 50%", "top abc%", "top 10px"} {
		_, err := ParsePosition(bad)
		assert.ErrorIs(t, err, ErrInvalidPosition, bad)
	}
}

func TestSmoothScrollerEasesIntoTarget(t *testing.T) {
	f := newFixture(t)
	s := NewSmoothScroller(f.loop, f.reg, 3000)

	s.ScrollTo(1000)
	assert.True(t, s.Active())
	f.pump.Advance(300 * time.Millisecond)
	mid := f.reg.ScrollY()
	assert.Greater(t, mid, 800.0, "expo-out covers most of the distance early")
	assert.Less(t, mid, 1000.0)

	f.pump.Advance(SmoothDuration)
	assert.Equal(t, 1000.0, f.reg.ScrollY())
	assert.False(t, s.Active())
	assert.Zero(t, f.loop.Pending())

	s.ScrollTo(9000)
	assert.Equal(t, 3000.0, s.Target())
	s.Jump(-20)
	assert.Equal(t, 0.0, f.reg.ScrollY())
	assert.False(t, s.Active())
}

func TestSmoothScrollerLimit(t *testing.T) {
	f := newFixture(t)
	s := NewSmoothScroller(f.loop, f.reg, 3000)
	s.SetLimit(-5)
	assert.Zero(t, s.Limit())
	s.SetLimit(1200)
	s.Jump(5000)
	assert.Equal(t, 1200.0, f.reg.ScrollY())
}
