package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/logging"
	"github.com/ivlev/scrollmotion/internal/preference"
	"github.com/ivlev/scrollmotion/internal/scenario"
)

func newTestSession(t *testing.T, q preference.MediaQuery) (*Session, *frame.ManualPump) {
	t.Helper()
	sc, err := scenario.ReadScenario(filepath.Join("testdata", "site.yaml"))
	require.NoError(t, err)
	doc, err := dom.Load(filepath.Join("testdata", "page.html"))
	require.NoError(t, err)

	pump := frame.NewManualPump(50)
	s, err := NewSession(doc, sc, pump, Options{FPS: 50, Query: q, Logger: logging.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.MountAll()
	return s, pump
}

func TestSessionKeyRemount(t *testing.T) {
	s, pump := newTestSession(t, preference.NewSwitch(preference.Normal))
	pump.Advance(2 * time.Second)

	require.NoError(t, s.SetKey("hero", "v2"))
	st := s.State()
	assert.Equal(t, "v2", st.Sections[0].Key)
	assert.Equal(t, 2, st.Sections[0].Runs)

	lines, err := s.Doc.Query(".title-line")
	require.NoError(t, err)
	assert.Equal(t, 0.0, lines[0].Get("opacity"), "title lines replay from their from state")

	assert.ErrorIs(t, s.SetKey("nope", "x"), ErrUnknownSection)
}

func TestSessionUnmountAndMount(t *testing.T) {
	s, pump := newTestSession(t, preference.NewSwitch(preference.Normal))
	triggers := s.Registry.Active()
	require.Positive(t, triggers)

	require.NoError(t, s.Unmount("about"))
	require.NoError(t, s.Unmount("about"))
	assert.Less(t, s.Registry.Active(), triggers)
	assert.False(t, s.State().Sections[1].Mounted)

	require.NoError(t, s.Mount("about"))
	assert.Equal(t, triggers, s.Registry.Active())
	pump.Step()
	assert.ErrorIs(t, s.Unmount("nope"), ErrUnknownSection)
}

func TestSessionResizeUpdatesScrollLimit(t *testing.T) {
	s, _ := newTestSession(t, preference.NewSwitch(preference.Normal))
	assert.Equal(t, 1600.0, s.Scroller.Limit())

	require.NoError(t, s.Apply(scenario.Event{Action: scenario.ActionResize, Width: 390, Height: 844}))
	assert.Equal(t, 2400.0-844, s.Scroller.Limit())
	assert.Equal(t, 390.0, s.State().Width)
}

func TestSessionSmoothScrollAndPointer(t *testing.T) {
	s, pump := newTestSession(t, preference.NewSwitch(preference.Normal))
	require.NoError(t, s.Apply(scenario.Event{Action: scenario.ActionSmoothScroll, Value: 1000}))
	require.NoError(t, s.Apply(scenario.Event{Action: scenario.ActionPointer, X: 300, Y: 40}))
	require.NoError(t, s.Apply(scenario.Event{Action: scenario.ActionHover, On: true}))
	pump.Advance(2 * time.Second)

	assert.Equal(t, 1000.0, s.Registry.ScrollY())
	cursor, err := s.Doc.First("#cursor")
	require.NoError(t, err)
	assert.InDelta(t, 300, cursor.Get("x"), 1)
	assert.Equal(t, 1.5, cursor.Get("scale"))

	assert.Error(t, s.Apply(scenario.Event{Action: "teleport"}))
}

func TestSessionPreferenceFromFileIsFixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion")
	require.NoError(t, os.WriteFile(path, []byte("reduce\n"), 0o644))

	s, _ := newTestSession(t, preference.FileQuery{Path: path})
	assert.Equal(t, "reduce", s.State().Preference)
	assert.ErrorIs(t, s.SetPreference(preference.Normal), ErrPreferenceFixed)
}
