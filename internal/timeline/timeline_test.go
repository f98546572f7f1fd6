package timeline

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/easing"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/logging"
)

const cards = `<html><body>
<p class="card">One</p>
<p class="card">Two</p>
<p class="card">Three</p>
</body></html>`

func setup(t *testing.T) (*frame.ManualPump, *frame.Loop, *Engine, []*dom.Element) {
	t.Helper()
	doc, err := dom.ParseString(cards)
	require.NoError(t, err)
	els, err := doc.Query(".card")
	require.NoError(t, err)

	pump := frame.NewManualPump(50)
	loop := frame.NewLoop(pump)
	return pump, loop, NewEngine(loop, logging.NewNop()), els
}

func fadeUp() Spec {
	return Spec{
		Target:   ".card",
		From:     dom.Props{"opacity": 0, "y": 40},
		To:       dom.Props{"opacity": 1, "y": 0},
		Duration: 600 * time.Millisecond,
		Stagger:  80 * time.Millisecond,
		Ease:     "none",
	}
}

func TestPlayStaggersInDocumentOrder(t *testing.T) {
	pump, loop, eng, els := setup(t)

	tl, err := eng.Play(fadeUp(), els)
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, tl.State())
	for _, el := range els {
		assert.Equal(t, 0.0, el.Get("opacity"), "from state renders immediately")
	}

	pump.AdvanceTo(80 * time.Millisecond)
	assert.Greater(t, els[0].Get("opacity"), 0.0)
	assert.Equal(t, 0.0, els[1].Get("opacity"))

	pump.AdvanceTo(100 * time.Millisecond)
	assert.Greater(t, els[1].Get("opacity"), 0.0)

	pump.AdvanceTo(160 * time.Millisecond)
	assert.Equal(t, 0.0, els[2].Get("opacity"))
	pump.AdvanceTo(180 * time.Millisecond)
	assert.Greater(t, els[2].Get("opacity"), 0.0)

	pump.AdvanceTo(600 * time.Millisecond)
	assert.Equal(t, 1.0, els[0].Get("opacity"))
	assert.Less(t, els[2].Get("opacity"), 1.0)

	pump.AdvanceTo(760 * time.Millisecond)
	for _, el := range els {
		assert.Equal(t, 1.0, el.Get("opacity"))
		assert.Equal(t, 0.0, el.Get("y"))
	}
	assert.Equal(t, StateCompleted, tl.State())
	assert.Zero(t, loop.Pending())
	assert.Zero(t, eng.Running())
}

func TestOnCompleteRunsOnce(t *testing.T) {
	pump, _, eng, els := setup(t)
	spec := fadeUp()
	calls := 0
	spec.OnComplete = func() { calls++ }

	_, err := eng.Play(spec, els)
	require.NoError(t, err)
	pump.Advance(2 * time.Second)
	assert.Equal(t, 1, calls)
}

func TestCancelLeavesValues(t *testing.T) {
	pump, loop, eng, els := setup(t)

	tl, err := eng.Play(fadeUp(), els[:1])
	require.NoError(t, err)
	pump.AdvanceTo(300 * time.Millisecond)
	mid := els[0].Get("opacity")
	require.InDelta(t, 0.5, mid, 1e-9)

	tl.Cancel()
	tl.Cancel()
	assert.Equal(t, StateCancelled, tl.State())
	assert.Zero(t, loop.Pending())

	pump.Advance(time.Second)
	assert.Equal(t, mid, els[0].Get("opacity"))

	tl.Start()
	assert.Equal(t, StateCancelled, tl.State(), "cancelled is terminal")
}

func TestSnapAssignsEndStateWithoutFrames(t *testing.T) {
	pump, loop, eng, els := setup(t)

	tl, err := eng.Snap(fadeUp(), els)
	require.NoError(t, err)
	assert.Equal(t, StateSnapped, tl.State())
	assert.Zero(t, loop.Pending())
	assert.Zero(t, pump.Requests())
	for _, el := range els {
		assert.Equal(t, 1.0, el.Get("opacity"))
	}
}

func TestScrubIsPureFunctionOfProgress(t *testing.T) {
	_, loop, eng, els := setup(t)
	spec := fadeUp()
	spec.Stagger = 0

	tl, err := eng.Scrub(spec, els)
	require.NoError(t, err)
	assert.Zero(t, loop.Pending())

	tl.Seek(0.25)
	first := els[0].Get("y")
	tl.Seek(0.9)
	tl.Seek(0.25)
	tl.Seek(0.25)
	assert.Equal(t, first, els[0].Get("y"))
	assert.InDelta(t, 30, first, 1e-9)

	tl.Seek(2)
	assert.Equal(t, 1.0, tl.Progress())
	assert.Equal(t, 0.0, els[0].Get("y"))
}

func TestUnsupportedPropertiesDropped(t *testing.T) {
	_, _, eng, els := setup(t)
	spec := fadeUp()
	spec.From["filter"] = 3
	spec.To["backgroundColor"] = 1

	tl, err := eng.Play(spec, els)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"filter", "backgroundColor"}, tl.Dropped())

	_, err = eng.Play(Spec{To: dom.Props{"filter": 1}}, els)
	assert.ErrorIs(t, err, ErrNothingToAnimate)
	assert.ErrorIs(t, err, dom.ErrUnsupportedProperty)
}

func TestUnsupportedPropertyWarnsOnce(t *testing.T) {
	logger, logs := logging.NewCapture()
	pump := frame.NewManualPump(50)
	eng := NewEngine(frame.NewLoop(pump), logger)
	_, _, _, els := setup(t)

	for range 2 {
		spec := fadeUp()
		spec.To["filter"] = 1
		_, err := eng.Play(spec, els)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, logs.Count(slog.LevelWarn, "dropping unsupported property"))

	spec := fadeUp()
	spec.To["backgroundColor"] = 1
	_, err := eng.Play(spec, els)
	require.NoError(t, err)
	assert.Equal(t, 2, logs.Count(slog.LevelWarn, "dropping unsupported property"))
}

func TestPrepareErrors(t *testing.T) {
	_, _, eng, els := setup(t)

	_, err := eng.Play(fadeUp(), nil)
	assert.ErrorIs(t, err, ErrNoTargets)

	spec := fadeUp()
	spec.Ease = "bogus"
	_, err = eng.Play(spec, els)
	assert.ErrorIs(t, err, easing.ErrUnknown)
}

func TestMissingFromUsesCurrentValue(t *testing.T) {
	pump, _, eng, els := setup(t)
	require.NoError(t, els[0].Set("x", 10))

	_, err := eng.Play(Spec{To: dom.Props{"x": 20}, Duration: 100 * time.Millisecond, Ease: "none"}, els[:1])
	require.NoError(t, err)
	assert.Equal(t, 10.0, els[0].Get("x"))
	pump.Advance(100 * time.Millisecond)
	assert.Equal(t, 20.0, els[0].Get("x"))
}

func TestYoyoRepeat(t *testing.T) {
	pump, loop, eng, els := setup(t)
	spec := Spec{
		From:     dom.Props{"y": 0},
		To:       dom.Props{"y": 20},
		Duration: 200 * time.Millisecond,
		Ease:     "none",
		Repeat:   1,
		Yoyo:     true,
	}
	tl, err := eng.Play(spec, els[:1])
	require.NoError(t, err)

	pump.AdvanceTo(100 * time.Millisecond)
	assert.InDelta(t, 10, els[0].Get("y"), 1e-9)
	pump.AdvanceTo(300 * time.Millisecond)
	assert.InDelta(t, 10, els[0].Get("y"), 1e-9)
	pump.AdvanceTo(400 * time.Millisecond)
	assert.Equal(t, 0.0, els[0].Get("y"))
	assert.Equal(t, StateCompleted, tl.State())
	assert.Zero(t, loop.Pending())
}

func TestInfiniteRepeatRunsUntilCancelled(t *testing.T) {
	pump, loop, eng, els := setup(t)
	spec := Spec{To: dom.Props{"rotate": 360}, Duration: 100 * time.Millisecond, Repeat: -1}

	tl, err := eng.Play(spec, els[:1])
	require.NoError(t, err)
	pump.Advance(5 * time.Second)
	assert.Equal(t, StatePlaying, tl.State())
	assert.Equal(t, 1, loop.Pending())

	tl.Cancel()
	assert.Zero(t, loop.Pending())
}

func TestResetAndRestart(t *testing.T) {
	pump, _, eng, els := setup(t)
	tl, err := eng.Arm(fadeUp(), els[:1])
	require.NoError(t, err)
	assert.Equal(t, StateArmed, tl.State())

	tl.Start()
	pump.Advance(time.Second)
	assert.Equal(t, 1.0, els[0].Get("opacity"))

	tl.Reset()
	assert.Equal(t, StateArmed, tl.State())
	assert.Equal(t, 0.0, els[0].Get("opacity"))
	assert.Zero(t, eng.Running())
}

func TestObserverSeesTransitions(t *testing.T) {
	pump, _, eng, els := setup(t)
	var seen []State
	eng.SetObserver(func(_, to State) { seen = append(seen, to) })

	_, err := eng.Play(fadeUp(), els)
	require.NoError(t, err)
	pump.Advance(time.Second)
	assert.Equal(t, []State{StateArmed, StatePlaying, StateCompleted}, seen)
}
