package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollmotion/internal/config"
	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/logging"
	"github.com/ivlev/scrollmotion/internal/renderer"
	"github.com/ivlev/scrollmotion/internal/scenario"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Scenario = filepath.Join("testdata", "site.yaml")
	cfg.FPS = 20
	cfg.Workers = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

type fakeEncoder struct {
	dir, pattern, out string
	fps               int
}

func (f *fakeEncoder) Encode(_ context.Context, dir, pattern string, fps int, out string) error {
	f.dir, f.pattern, f.fps, f.out = dir, pattern, fps, out
	return nil
}

func findBox(t *testing.T, f renderer.Frame, label string) renderer.Box {
	t.Helper()
	for _, b := range f.Boxes {
		if strings.HasPrefix(b.Label, label) {
			return b
		}
	}
	t.Fatalf("no box %q in frame %d", label, f.Index)
	return renderer.Box{}
}

func TestSimulationPlaysScript(t *testing.T) {
	sim := NewSimulation(testConfig(t), logging.NewNop())
	sc, doc, err := sim.Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "page.html"), sim.Config.Document)

	report, err := sim.Play(context.Background(), sc, doc)
	require.NoError(t, err)

	// 4s at 20fps, plus the initial frame.
	require.Len(t, report.Frames, 81)
	first := report.Frames[0]
	assert.Equal(t, 0.0, findBox(t, first, "p.card").Props["opacity"], "armed cards render their from state")

	last := report.Frames[len(report.Frames)-1]
	assert.Equal(t, 900.0, last.ScrollY)
	assert.Empty(t, findBox(t, last, "p.card").Props, "revealed cards are back at rest")
	assert.Empty(t, findBox(t, last, "h1.title-line").Props)

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "nope")

	final := report.Final
	require.Len(t, final.Sections, 3)
	assert.True(t, final.Sections[0].Mounted)
	require.NotNil(t, final.Sections[0].Cursor)
	assert.InDelta(t, 200, final.Sections[0].Cursor[0], 1)
	require.NotNil(t, final.Sections[0].Progress)
	assert.InDelta(t, 900.0/1600.0, *final.Sections[0].Progress, 0.01)
	assert.False(t, final.Sections[2].Mounted, "owner is missing")
	require.NotEmpty(t, final.Counters.Diagnostics)
	assert.Contains(t, final.Counters.Diagnostics[0], "ghost")
	assert.Equal(t, 2, final.Counters.Runs)
	assert.Positive(t, final.Counters.Tweens["completed"])
}

func TestSimulationReducedMotion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Preference = "reduce"
	sim := NewSimulation(cfg, logging.NewNop())
	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	first := report.Frames[0]
	assert.Empty(t, findBox(t, first, "p.card").Props, "end state assigned at mount")
	assert.Empty(t, findBox(t, first, "h1.title-line").Props)
	assert.Equal(t, 2, report.Final.Counters.Fallbacks["reduced"])
	assert.Zero(t, report.Final.Counters.Tweens["playing"])
	assert.True(t, report.Final.Sections[0].Reduced)
}

func TestSimulationArtifacts(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.Snapshots = filepath.Join(dir, "frames")
	cfg.SnapshotEvery = 20
	cfg.Preview = filepath.Join(dir, "preview.mp4")
	cfg.Audit = true

	enc := &fakeEncoder{}
	sim := NewSimulation(cfg, logging.NewNop())
	sim.Encoder = enc
	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Snapshots, 5)
	for _, p := range report.Snapshots {
		assert.FileExists(t, p)
	}
	assert.Equal(t, cfg.Snapshots, enc.dir)
	assert.Equal(t, renderer.FramePattern, enc.pattern)
	assert.Equal(t, 1, enc.fps)
	assert.Equal(t, cfg.Preview, report.Preview)

	require.Len(t, report.Audit, 2)
	for _, f := range report.Audit {
		assert.False(t, f.Blank, f.Region)
	}

	out := filepath.Join(dir, "report", "run.yaml")
	require.NoError(t, WriteReport(report, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scroll_y: 900")
}

func TestSimulationPreferenceEvent(t *testing.T) {
	cfg := testConfig(t)
	sim := NewSimulation(cfg, logging.NewNop())
	sc, doc, err := sim.Load()
	require.NoError(t, err)
	sc.Script = append(sc.Script, scenario.Event{At: 2, Action: scenario.ActionPreference, Preference: "reduce"})

	report, err := sim.Play(context.Background(), sc, doc)
	require.NoError(t, err)
	assert.Equal(t, "reduce", report.Final.Preference)
	assert.Equal(t, 2, report.Final.Sections[0].Runs, "remounted on the change")
	assert.Equal(t, 2, report.Final.Counters.Fallbacks["reduced"])
	assert.Empty(t, findBox(t, report.Frames[len(report.Frames)-1], "p.card").Props)
}

func TestDurationFallsBackToScript(t *testing.T) {
	sim := NewSimulation(config.Default(), logging.NewNop())
	sc, _, err := NewSimulation(testConfig(t), logging.NewNop()).Load()
	require.NoError(t, err)
	sc.Duration = 0
	assert.Equal(t, secondsToDuration(1)+Tail, sim.duration(sc))

	sim.Config.Duration = 0.5
	assert.Equal(t, secondsToDuration(0.5), sim.duration(sc))
}

func TestLoadRequiresDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nsections: []\n"), 0o644))
	cfg := config.Default()
	cfg.Scenario = path
	_, _, err := NewSimulation(cfg, logging.NewNop()).Load()
	assert.Error(t, err)

	cfg.Document = filepath.Join("testdata", "page.html")
	sc, doc, err := NewSimulation(cfg, logging.NewNop()).Load()
	require.NoError(t, err)
	assert.Equal(t, float64(cfg.Width), sc.Viewport.Width)
	assert.IsType(t, &dom.Document{}, doc)
}

func TestAuditFlagsHiddenSection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit = true
	sim := NewSimulation(cfg, logging.NewNop())
	sc, doc, err := sim.Load()
	require.NoError(t, err)
	// Without the scroll the cards stay armed at opacity 0.
	sc.Script = nil

	report, err := sim.Play(context.Background(), sc, doc)
	require.NoError(t, err)
	require.Len(t, report.Audit, 2)
	assert.Equal(t, "hero", report.Audit[0].Region)
	assert.False(t, report.Audit[0].Blank)
	assert.Equal(t, "about", report.Audit[1].Region)
	assert.True(t, report.Audit[1].Blank)
}
