package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/scrollmotion/internal/config"
	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/frame"
	"github.com/ivlev/scrollmotion/internal/preference"
	"github.com/ivlev/scrollmotion/internal/renderer"
	"github.com/ivlev/scrollmotion/internal/scenario"
	"github.com/ivlev/scrollmotion/internal/scope"
	"github.com/ivlev/scrollmotion/internal/system"
	"github.com/ivlev/scrollmotion/internal/video"
	"github.com/ivlev/scrollmotion/internal/visibility"
)

// Tail is how long a session keeps running after its last scripted event
// when no duration is configured.
const Tail = 2 * time.Second

// auditInset keeps section outlines out of the visibility audit.
const auditInset = 8

// Report is the result of a simulation.
type Report struct {
	Build     string               `yaml:"build,omitempty"`
	Document  string               `yaml:"document"`
	Scenario  string               `yaml:"scenario"`
	FPS       int                  `yaml:"fps"`
	Duration  float64              `yaml:"duration"`
	Final     State                `yaml:"final"`
	Frames    []renderer.Frame     `yaml:"frames,omitempty"`
	Errors    []string             `yaml:"script_errors,omitempty"`
	Snapshots []string             `yaml:"snapshots,omitempty"`
	Preview   string               `yaml:"preview,omitempty"`
	Audit     []visibility.Finding `yaml:"audit,omitempty"`
	Stats     Stats                `yaml:"stats"`
}

// Stats times each stage of a run.
type Stats struct {
	Total     time.Duration `yaml:"total"`
	Simulate  time.Duration `yaml:"simulate"`
	Render    time.Duration `yaml:"render"`
	Encode    time.Duration `yaml:"encode"`
	FrameRate float64       `yaml:"simulated_fps"`
	Process   system.Sample `yaml:"process"`
}

// Simulation plays a scenario against a document offline on a manual
// frame pump, so the result does not depend on wall-clock timing.
type Simulation struct {
	Config    *config.Config
	Logger    *slog.Logger
	Encoder   video.Encoder
	Observers []scope.Observer
}

// NewSimulation creates a simulation. The encoder is only used when a
// preview is requested.
func NewSimulation(cfg *config.Config, logger *slog.Logger) *Simulation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulation{Config: cfg, Logger: logger}
}

// Load reads the scenario and the document it names. The config's
// document wins over the scenario's; a relative scenario document path is
// resolved against the scenario file. A zero scenario viewport takes the
// configured size.
func (p *Simulation) Load() (*scenario.Scenario, *dom.Document, error) {
	sc, err := scenario.ReadScenario(p.Config.Scenario)
	if err != nil {
		return nil, nil, err
	}
	docPath := p.Config.Document
	if docPath == "" && sc.Document != "" {
		docPath = sc.Document
		if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(filepath.Dir(p.Config.Scenario), docPath)
		}
	}
	if docPath == "" {
		return nil, nil, fmt.Errorf("no document: set one in the scenario or the config")
	}
	doc, err := dom.Load(docPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load document: %w", err)
	}
	p.Config.Document = docPath

	if sc.Viewport.Width <= 0 {
		sc.Viewport.Width = float64(p.Config.Width)
	}
	if sc.Viewport.Height <= 0 {
		sc.Viewport.Height = float64(p.Config.Height)
	}
	return sc, doc, nil
}

// Run loads, simulates and writes every requested artifact.
func (p *Simulation) Run(ctx context.Context) (*Report, error) {
	sc, doc, err := p.Load()
	if err != nil {
		return nil, err
	}
	if err := scenario.Validate(sc, doc); err != nil {
		p.Logger.Warn("scenario has problems, affected tweens will be skipped", "err", err)
	}
	return p.Play(ctx, sc, doc)
}

// Play simulates sc on doc.
func (p *Simulation) Play(ctx context.Context, sc *scenario.Scenario, doc *dom.Document) (*Report, error) {
	cfg := p.Config
	startTime := time.Now()

	var box inbox
	query, err := p.query(&box)
	if err != nil {
		return nil, err
	}

	pump := frame.NewManualPump(cfg.FPS)
	session, err := NewSession(doc, sc, pump, Options{
		FPS:       cfg.FPS,
		Query:     query,
		Logger:    p.Logger,
		Observers: p.Observers,
	})
	if err != nil {
		return nil, err
	}
	defer session.Close()

	duration := p.duration(sc)
	report := &Report{
		Build:    cfg.BuildVersion,
		Document: cfg.Document,
		Scenario: cfg.Scenario,
		FPS:      cfg.FPS,
		Duration: duration.Seconds(),
	}

	script := append([]scenario.Event(nil), sc.Script...)
	sort.SliceStable(script, func(i, j int) bool { return script[i].At < script[j].At })

	width, height := int(sc.Viewport.Width), int(sc.Viewport.Height)
	session.MountAll()

	// Events due at a frame's time apply before that frame is delivered.
	next := 0
	total := int(math.Ceil(float64(duration) / float64(pump.Interval())))
	for i := 0; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		now := time.Duration(i) * pump.Interval()
		for next < len(script) && secondsToDuration(script[next].At) <= now {
			ev := script[next]
			next++
			if err := session.Apply(ev); err != nil {
				msg := fmt.Sprintf("%.2fs %s: %v", ev.At, ev.Action, err)
				report.Errors = append(report.Errors, msg)
				p.Logger.Warn("script event failed", "at", ev.At, "action", ev.Action, "err", err)
			}
			if ev.Action == scenario.ActionResize {
				width, height = int(ev.Width), int(ev.Height)
			}
		}
		box.drain()
		if i > 0 {
			pump.Step()
		}
		if i%cfg.SnapshotEvery == 0 || i == total {
			report.Frames = append(report.Frames,
				renderer.Capture(doc, i, pump.Now(), session.Registry.ScrollY(), width, height))
		}
	}
	report.Final = session.State()
	simulateTime := time.Since(startTime)

	renderStart := time.Now()
	if cfg.Snapshots != "" {
		w := renderer.NewWriter(cfg.Snapshots, cfg.Workers)
		report.Snapshots, err = w.WriteFrames(ctx, report.Frames)
		if err != nil {
			return nil, fmt.Errorf("write snapshots: %w", err)
		}
		p.Logger.Info("snapshots written", "dir", cfg.Snapshots, "frames", len(report.Snapshots))
	}
	if cfg.Audit {
		report.Audit = p.audit(session, doc, width)
	}
	renderTime := time.Since(renderStart)

	encodeStart := time.Now()
	if cfg.Preview != "" && len(report.Snapshots) > 0 {
		enc := p.Encoder
		if enc == nil {
			enc = video.NewFFmpegEncoder(cfg.VideoEncoder, cfg.Quality)
		}
		// Snapshots are taken every SnapshotEvery frames.
		fps := int(math.Max(1, math.Round(float64(cfg.FPS)/float64(cfg.SnapshotEvery))))
		if err := enc.Encode(ctx, cfg.Snapshots, renderer.FramePattern, fps, cfg.Preview); err != nil {
			return nil, err
		}
		report.Preview = cfg.Preview
	}
	encodeTime := time.Since(encodeStart)

	totalTime := time.Since(startTime)
	report.Stats = Stats{
		Total:     totalTime,
		Simulate:  simulateTime,
		Render:    renderTime,
		Encode:    encodeTime,
		FrameRate: float64(total) / math.Max(simulateTime.Seconds(), 1e-9),
		Process:   system.TakeSample(),
	}
	if cfg.ShowStats {
		p.showStats(report)
	}
	return report, nil
}

// query builds the preference source. File changes arrive on the
// watcher goroutine and are queued in box until the next frame.
func (p *Simulation) query(box *inbox) (preference.MediaQuery, error) {
	if p.Config.PreferenceFile != "" {
		return preference.Delivered{
			Query: preference.FileQuery{Path: p.Config.PreferenceFile},
			Post:  box.post,
		}, nil
	}
	pref, err := preference.Parse(p.Config.Preference)
	if err != nil {
		return nil, err
	}
	return preference.NewSwitch(pref), nil
}

// duration picks the session length: config, then scenario, then the
// last event plus Tail.
func (p *Simulation) duration(sc *scenario.Scenario) time.Duration {
	switch {
	case p.Config.Duration > 0:
		return secondsToDuration(p.Config.Duration)
	case sc.Duration > 0:
		return secondsToDuration(sc.Duration)
	}
	last := 0.0
	for _, ev := range sc.Script {
		last = math.Max(last, ev.At)
	}
	return secondsToDuration(last) + Tail
}

// audit paints the final state of the whole page and checks that each
// mounted section shows content. Section boxes themselves are left out of
// the painting so only their contents count.
func (p *Simulation) audit(s *Session, doc *dom.Document, width int) []visibility.Finding {
	page := renderer.Capture(doc, -1, s.Loop.Now(), 0, width, int(math.Ceil(doc.Height())))

	owners := make(map[string]dom.Rect)
	var regions []visibility.Region
	for _, name := range s.order {
		owner := s.Owner(name)
		if owner == nil {
			continue
		}
		b := owner.Layout()
		owners[owner.Describe()] = b
		r := image.Rect(int(b.Left), int(b.Top), int(b.Left+b.Width), int(b.Bottom())).Inset(auditInset)
		regions = append(regions, visibility.Region{Name: name, Rect: r})
	}
	boxes := page.Boxes[:0]
	for _, b := range page.Boxes {
		if r, ok := owners[b.Label]; ok && r == b.Rect {
			continue
		}
		boxes = append(boxes, b)
	}
	page.Boxes = boxes

	findings := visibility.NewContrastDetector().Audit(renderer.Render(page), regions)
	if err := visibility.Blank(findings); err != nil {
		p.Logger.Warn("visibility audit", "err", err)
	}
	return findings
}

func (p *Simulation) showStats(r *Report) {
	st := r.Stats
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Simulation: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Simulated FPS: %.2f\n"+
			"Goroutines: %d | RSS: %.1f MiB | CPU: %.1f%%\n"+
			"----------------------------\n",
		r.Build, st.Total.Seconds(), st.Simulate.Seconds(), st.Render.Seconds(), st.Encode.Seconds(), st.FrameRate,
		st.Process.Goroutines, float64(st.Process.RSSBytes)/(1<<20), st.Process.CPUPercent,
	)

	logEntry := fmt.Sprintf("[%s] Build: %s | Scenario: %s | Frames: %d | Total: %.2fs | Simulate: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		r.Build,
		filepath.Base(r.Scenario),
		r.Final.Frames,
		st.Total.Seconds(),
		st.Simulate.Seconds(),
		st.Render.Seconds(),
		st.FrameRate,
	)
	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		p.Logger.Warn("write benchmark.log", "err", err)
		return
	}
	defer f.Close()
	f.WriteString(logEntry)
}

// WriteReport writes r as YAML to path.
func WriteReport(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// inbox carries work from other goroutines onto the simulation loop.
type inbox struct {
	mu  sync.Mutex
	fns []func()
}

func (b *inbox) post(fn func()) {
	b.mu.Lock()
	b.fns = append(b.fns, fn)
	b.mu.Unlock()
}

func (b *inbox) drain() {
	b.mu.Lock()
	fns := b.fns
	b.fns = nil
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
