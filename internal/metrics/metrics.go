// Package metrics exposes Prometheus collectors for the frame loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "airmouse"

// Frame outcomes.
const (
	OutcomeNoHand       = "no_hand"
	OutcomePartial      = "partial"
	OutcomeIdle         = "idle"
	OutcomeAction       = "action"
	OutcomeReadFailed   = "read_failed"
	OutcomeDetectFailed = "detect_failed"
	OutcomeDisabled     = "disabled"
)

// Collector records frame-loop metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	frames         *prometheus.CounterVec
	actions        *prometheus.CounterVec
	suppressions   *prometheus.CounterVec
	unmeasurable   *prometheus.CounterVec
	effectorErrors *prometheus.CounterVec
	latency        prometheus.Histogram
	fps            prometheus.Gauge
	enabled        prometheus.Gauge
}

// New creates a Collector with all series registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames processed, by outcome.",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions fired, by rule and kind.",
		}, []string{"rule", "kind"}),
		suppressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_suppressions_total",
			Help:      "Matched rules skipped because their cooldown class was active.",
		}, []string{"rule", "class"}),
		unmeasurable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmeasurable_total",
			Help:      "Matched rules whose landmark distance could not be measured.",
		}, []string{"rule"}),
		effectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effector_errors_total",
			Help:      "Actions the OS effectors failed to perform, by kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_processing_seconds",
			Help:      "Time from captured frame to dispatched action.",
			Buckets:   []float64{.001, .0025, .005, .01, .016, .025, .033, .05, .1, .25},
		}),
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frames_per_second",
			Help:      "Smoothed frame rate seen by the gesture session.",
		}),
		enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enabled",
			Help:      "1 while gesture control is enabled.",
		}),
	}

	c.registry.MustRegister(
		c.frames, c.actions, c.suppressions, c.unmeasurable,
		c.effectorErrors, c.latency, c.fps, c.enabled,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Hooks returns router hooks that record fired, suppressed and unmeasurable rules.
func (c *Collector) Hooks() gesture.Hooks {
	return gesture.Hooks{
		OnFire: func(rule gesture.Rule, action gesture.Action) {
			c.actions.WithLabelValues(rule.Name, string(action.Kind)).Inc()
		},
		OnSuppress: func(rule gesture.Rule) {
			c.suppressions.WithLabelValues(rule.Name, string(rule.Class)).Inc()
		},
		OnUnmeasurable: func(rule gesture.Rule) {
			c.unmeasurable.WithLabelValues(rule.Name).Inc()
		},
	}
}

// Frame counts one frame with the given outcome.
func (c *Collector) Frame(outcome string) {
	c.frames.WithLabelValues(outcome).Inc()
}

// ObserveLatency records how long a frame took.
func (c *Collector) ObserveLatency(d time.Duration) {
	c.latency.Observe(d.Seconds())
}

// EffectorError counts a failed action.
func (c *Collector) EffectorError(kind gesture.ActionKind) {
	c.effectorErrors.WithLabelValues(string(kind)).Inc()
}

// SetFPS publishes the current frame rate estimate.
func (c *Collector) SetFPS(fps float64) {
	c.fps.Set(fps)
}

// SetEnabled publishes the enabled state.
func (c *Collector) SetEnabled(on bool) {
	if on {
		c.enabled.Set(1)
	} else {
		c.enabled.Set(0)
	}
}
