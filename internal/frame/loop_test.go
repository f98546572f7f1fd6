package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopCoalescesRequests(t *testing.T) {
	pump := NewManualPump(60)
	loop := NewLoop(pump)

	calls := 0
	for i := 0; i < 10; i++ {
		loop.Add(func(time.Duration) { calls++ })
	}

	assert.Equal(t, 1, pump.Pending(), "ten subscribers share one pump request")
	pump.Step()
	assert.Equal(t, 10, calls)
	assert.Equal(t, 1, pump.Pending())
	assert.Equal(t, uint64(1), loop.Frames())
}

func TestLoopOnceRunsSingleFrame(t *testing.T) {
	pump := NewManualPump(60)
	loop := NewLoop(pump)

	calls := 0
	loop.Once(func(time.Duration) { calls++ })
	pump.Step()
	pump.Step()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, loop.Pending())
	assert.Equal(t, 0, pump.Pending())
}

func TestSubscriptionStopDuringTick(t *testing.T) {
	pump := NewManualPump(60)
	loop := NewLoop(pump)

	var second *Subscription
	secondCalls := 0
	loop.Add(func(time.Duration) { second.Stop() })
	second = loop.Add(func(time.Duration) { secondCalls++ })

	pump.Step()
	assert.Equal(t, 0, secondCalls)
	assert.False(t, second.Active())
	assert.Equal(t, 1, loop.Pending())

	second.Stop()
	assert.Equal(t, 1, loop.Pending())
}

func TestSubscriptionAddedDuringTickRunsNextFrame(t *testing.T) {
	pump := NewManualPump(60)
	loop := NewLoop(pump)

	var frames []time.Duration
	loop.Once(func(time.Duration) {
		loop.Once(func(now time.Duration) { frames = append(frames, now) })
	})

	pump.Step()
	require.Empty(t, frames)
	pump.Step()
	require.Len(t, frames, 1)
	assert.Equal(t, 2*pump.Interval(), frames[0])
}

func TestManualPumpAdvance(t *testing.T) {
	pump := NewManualPump(50)
	assert.Equal(t, 20*time.Millisecond, pump.Interval())

	pump.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, pump.Now())
}

func TestIntervalForDefaults(t *testing.T) {
	assert.Equal(t, time.Second/60, IntervalFor(0))
}
