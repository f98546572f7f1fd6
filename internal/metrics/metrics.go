// Package metrics exposes animation runtime counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivlev/scrollmotion/internal/scope"
	"github.com/ivlev/scrollmotion/internal/timeline"
	"github.com/ivlev/scrollmotion/internal/trigger"
)

// Recorder collects runtime metrics on its own registry. It implements
// scope.Observer; Attach wires the remaining hooks.
type Recorder struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	reverts     *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	transitions *prometheus.CounterVec
	fires       *prometheus.CounterVec
	frames      prometheus.Counter
	active      prometheus.Gauge
	playing     prometheus.Gauge
	triggers    prometheus.Gauge
	live        prometheus.Gauge
	scrollY     prometheus.Gauge
}

// NewRecorder creates a recorder with every metric registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollmotion_context_runs_total",
			Help: "Section setups run, by section and motion preference.",
		}, []string{"section", "reduced"}),
		reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollmotion_context_reverts_total",
			Help: "Contexts reverted, by section.",
		}, []string{"section"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollmotion_fallbacks_total",
			Help: "Motion replaced by end states, by section and reason.",
		}, []string{"section", "reason"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollmotion_diagnostics_total",
			Help: "Non-fatal setup problems, by section and kind.",
		}, []string{"section", "kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollmotion_tween_transitions_total",
			Help: "Tween state transitions, by target state.",
		}, []string{"state"}),
		fires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollmotion_trigger_fires_total",
			Help: "Trigger activations, by mode.",
		}, []string{"mode"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrollmotion_frames_total",
			Help: "Frames delivered by the loop.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollmotion_frame_subscribers",
			Help: "Frame callbacks alive after the last frame.",
		}),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollmotion_tweens_playing",
			Help: "Tweens currently advancing.",
		}),
		triggers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollmotion_triggers_registered",
			Help: "Scroll triggers currently registered.",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollmotion_contexts_live",
			Help: "Contexts run and not yet reverted.",
		}),
		scrollY: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollmotion_scroll_offset_pixels",
			Help: "Last scroll offset seen by the trigger registry.",
		}),
	}
	r.registry.MustRegister(
		r.runs, r.reverts, r.fallbacks, r.diagnostics, r.transitions, r.fires,
		r.frames, r.active, r.playing, r.triggers, r.live, r.scrollY,
	)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Hooks are the per-component callbacks a Recorder feeds on. Callers
// that already observe a component chain these into their own observer.
type Hooks struct {
	Transition func(from, to timeline.State)
	Fire       func(h *trigger.Handle, progress float64)
	Frame      func(now time.Duration, active int)
}

// Hooks returns callbacks bound to a's engine, registry and loop.
func (r *Recorder) Hooks(a *scope.Animator) Hooks {
	engine := a.Engine()
	reg := a.Registry()
	return Hooks{
		Transition: func(_, to timeline.State) {
			r.transitions.WithLabelValues(to.String()).Inc()
			r.playing.Set(float64(engine.Running()))
		},
		Fire: func(h *trigger.Handle, _ float64) {
			r.fires.WithLabelValues(h.Mode().String()).Inc()
			r.triggers.Set(float64(reg.Active()))
		},
		Frame: func(_ time.Duration, active int) {
			r.frames.Inc()
			r.active.Set(float64(active))
			r.triggers.Set(float64(reg.Active()))
			r.live.Set(float64(a.Live()))
			r.scrollY.Set(reg.ScrollY())
		},
	}
}

// Attach makes the recorder the only observer of a and its components.
func (r *Recorder) Attach(a *scope.Animator) {
	h := r.Hooks(a)
	a.SetObserver(r)
	a.Engine().SetObserver(h.Transition)
	a.Registry().SetObserver(h.Fire)
	a.Loop().SetObserver(h.Frame)
}

func (r *Recorder) ContextRun(section string, reduced bool) {
	label := "false"
	if reduced {
		label = "true"
	}
	r.runs.WithLabelValues(section, label).Inc()
}

func (r *Recorder) ContextReverted(section string, _ int) {
	r.reverts.WithLabelValues(section).Inc()
}

func (r *Recorder) Fallback(section string, reason scope.FallbackReason) {
	r.fallbacks.WithLabelValues(section, string(reason)).Inc()
}

func (r *Recorder) Diagnostic(section string, err error) {
	kind := "other"
	var setup *scope.SetupError
	switch {
	case scope.IsResolution(err):
		kind = "resolution"
	case errors.As(err, &setup) && setup.Panic:
		kind = "panic"
	case errors.As(err, &setup):
		kind = "setup"
	}
	r.diagnostics.WithLabelValues(section, kind).Inc()
}
