package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/effects"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

const page = `<html><body>
<header id="hero" data-top="0" data-height="900">
  <h1 class="title-line">Hello</h1>
  <img class="hero-image" data-top="300">
</header>
<section id="about" data-top="900" data-height="1200">
  <h2 class="heading">About</h2>
  <div class="stat" data-count="50">0</div>
  <p class="card">One</p>
  <p class="card">Two</p>
</section>
<footer data-top="2100" data-height="300"><p>bye</p></footer>
</body></html>`

const scenarioYAML = `
version: "1.0"
viewport: {width: 1440, height: 800}
sections:
  - name: about
    selector: "#about"
    tweens:
      - target: .card
        effect: fade-up
        from: {y: small, stagger: tight}
      - target: .heading
        from: {opacity: 0, x: -50, duration: slow, ease: power3.out}
        trigger: {start: "top 80%"}
      - target: .stat
        to: {count: 50, duration: 2}
        immediate: true
script:
  - {at: 2, action: scroll, value: 600}
  - {at: 0.5, action: preference, preference: reduce}
  - {at: 2, action: unmount, section: about}
`

func TestParseScenarioSortsScript(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	require.Len(t, sc.Script, 3)
	assert.Equal(t, ActionPreference, sc.Script[0].Action)
	assert.Equal(t, ActionScroll, sc.Script[1].Action, "ties keep file order")
	assert.Equal(t, ActionUnmount, sc.Script[2].Action)
}

func TestTweenAnimation(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	tweens := sc.Sections[0].Tweens

	cards, err := tweens[0].Animation()
	require.NoError(t, err)
	assert.Equal(t, 30.0, cards.From["y"], "named distance overrides the effect")
	assert.Equal(t, 0.0, cards.From["opacity"], "effect from state kept")
	assert.Equal(t, effects.Staggers["tight"], cards.Stagger)
	assert.Equal(t, effects.Durations["normal"], cards.Duration)
	require.NotNil(t, cards.Trigger)
	assert.Equal(t, "normal", cards.Trigger.Start)

	heading, err := tweens[1].Animation()
	require.NoError(t, err)
	assert.Equal(t, time.Second, heading.Duration)
	assert.Equal(t, "power3.out", heading.Ease)
	assert.Equal(t, -50.0, heading.From["x"])
	require.NotNil(t, heading.Trigger)
	assert.Equal(t, "top 80%", heading.Trigger.Start)
	assert.Equal(t, trigger.Once, heading.Trigger.Mode)

	stat, err := tweens[2].Animation()
	require.NoError(t, err)
	assert.Nil(t, stat.Trigger)
	assert.Equal(t, 2*time.Second, stat.Duration)
	assert.Equal(t, 50.0, stat.To["count"])
}

func TestDecodeVars(t *testing.T) {
	v, err := DecodeVars(map[string]any{
		"duration": 0.8, "delay": "fast", "stagger": 0.1, "repeat": -1, "yoyo": true,
		"rotate": "full", "scale": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 800*time.Millisecond, v.Duration.Duration())
	assert.Equal(t, 300*time.Millisecond, v.Delay.Duration())
	assert.Equal(t, 100*time.Millisecond, v.Stagger.Duration())
	assert.Equal(t, -1, *v.Repeat)
	assert.True(t, *v.Yoyo)
	assert.Equal(t, dom.Props{"rotate": 360, "scale": 1}, v.Props)

	_, err = DecodeVars(map[string]any{"duration": "forever"})
	assert.ErrorIs(t, err, ErrBadVar)
	_, err = DecodeVars(map[string]any{"y": "50%"})
	assert.ErrorIs(t, err, ErrBadVar)

	empty, err := DecodeVars(nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Duration)
	assert.Empty(t, empty.Props)
}

func TestBadModeAndEffect(t *testing.T) {
	_, err := Tween{Target: ".x", Effect: "explode"}.Animation()
	assert.ErrorIs(t, err, effects.ErrUnknown)

	_, err = Tween{Target: ".x", Trigger: &Trigger{Mode: "sometimes"}}.Animation()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	require.NoError(t, Validate(sc, doc))

	sc.Sections[0].Tweens = append(sc.Sections[0].Tweens,
		Tween{Target: ".missing"},
		Tween{Target: ".card", From: map[string]any{"ease": "wobble", "filter": 2}},
		Tween{Target: ".card", Trigger: &Trigger{Start: "middle 20%"}},
	)
	sc.Script = append(sc.Script, Event{At: 3, Action: "teleport"}, Event{At: 4, Action: ActionKey, Section: "blog"})

	err = Validate(sc, doc)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{".missing", "wobble", "filter", "middle 20%", "teleport", `"blog"`} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestSectionBuildMountsAllTweens(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	sec, err := sc.Sections[0].Build(60, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, "about", sec.Name)
	assert.Equal(t, "#about", sec.Selector)
	assert.NotNil(t, sec.Setup)

	bad := Section{Name: "x", Tweens: []Tween{{Target: ".a", From: map[string]any{"y": []int{1}}}}}
	_, err = bad.Build(60, Hooks{})
	assert.ErrorIs(t, err, ErrBadVar)
}

func TestScenarioWriteRead(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, WriteScenario(sc, path))

	loaded, err := ReadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, sc.Viewport, loaded.Viewport)
	assert.Equal(t, len(sc.Sections[0].Tweens), len(loaded.Sections[0].Tweens))
	assert.Equal(t, sc.Script, loaded.Script)
}

func TestGenerateScenarioPath(t *testing.T) {
	path := GenerateScenarioPath(DefaultDir)

	if !strings.Contains(path, "scenario_") {
		t.Errorf("Path should contain 'scenario_': %s", path)
	}
	if !strings.HasPrefix(path, filepath.Join("internal", "scenarios")) {
		t.Errorf("Path should be in internal/scenarios: %s", path)
	}
}

func TestFindLatestScenario(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		filepath.Join(dir, "scenario_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "scenario_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "scenario_2026-02-11_15-30-00.yaml"),
	}
	for i, f := range files {
		if err := os.WriteFile(f, []byte("version: '1.0'"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(f, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}

	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("newest, but not a scenario"), 0644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(5 * time.Hour)
	if err := os.Chtimes(notes, later, later); err != nil {
		t.Fatal(err)
	}

	latest, err := FindLatestScenario(dir)
	if err != nil {
		t.Fatalf("FindLatestScenario failed: %v", err)
	}
	if latest != files[2] {
		t.Errorf("Expected %s, got %s", files[2], latest)
	}

	if _, err := FindLatestScenario(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestDirector(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	director := NewDirector(1440, 800)
	sc, err := director.GenerateScenario(doc, "page.html", 10.0)
	require.NoError(t, err)

	if sc.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", sc.Version)
	}
	require.Len(t, sc.Sections, 3)
	assert.Equal(t, "hero", sc.Sections[0].Name)
	assert.Equal(t, "#hero", sc.Sections[0].Selector)
	assert.Equal(t, "footer-3", sc.Sections[2].Name)
	assert.Equal(t, "footer:nth-of-type(1)", sc.Sections[2].Selector)

	hero := sc.Sections[0].Tweens
	require.NotEmpty(t, hero)
	assert.Equal(t, Tween{Target: ".title-line", Effect: "title-lines"}, hero[0])

	var effectsUsed []string
	for _, tw := range sc.Sections[1].Tweens {
		effectsUsed = append(effectsUsed, tw.Target+"="+tw.Effect)
	}
	assert.Contains(t, effectsUsed, ".heading=rise")
	assert.Contains(t, effectsUsed, ".card=fade-up")
	assert.Contains(t, effectsUsed, ".stat=counter")

	// intro scroll plus one smooth scroll per later section
	require.Len(t, sc.Script, 3)
	assert.Equal(t, 900.0, sc.Script[1].Value)
	assert.Equal(t, 1.0, sc.Script[1].At)
	assert.Equal(t, 2100.0, sc.Script[2].Value)
	assert.Equal(t, 4.0, sc.Script[2].At)

	require.NoError(t, Validate(sc, doc))
}

func TestDirectorNoSections(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><p>flat</p></body></html>`)
	require.NoError(t, err)
	_, err = NewDirector(1440, 800).GenerateScenario(doc, "", 5)
	assert.Error(t, err)
}
