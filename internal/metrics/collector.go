// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records orchestration metrics. A nil *Collector is valid and
// records nothing, so callers never need to guard their instrumentation.
type Collector struct {
	sessionsTotal   *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec

	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec

	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec

	milestonesTotal   *prometheus.CounterVec
	synthesisDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector registers maestro metrics with reg. Passing nil registers on
// the default prometheus registry.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.sessionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions run",
		},
		[]string{"mode", "status"},
	)

	c.sessionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall clock duration of a full session",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of agent turns taken",
		},
		[]string{"mode", "role", "status"},
	)

	c.turnDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Duration of a single agent turn",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode", "role"},
	)

	c.providerRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of LLM provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.providerRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "LLM provider request duration",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.milestonesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "milestones_total",
			Help:      "Total number of project milestones processed",
		},
		[]string{"status"},
	)

	c.synthesisDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Duration of the final document synthesis",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

func (c *Collector) RecordSession(mode, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.sessionsTotal.WithLabelValues(mode, status).Inc()
	c.sessionDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (c *Collector) RecordTurn(mode, role, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.turnsTotal.WithLabelValues(mode, role, status).Inc()
	c.turnDuration.WithLabelValues(mode, role).Observe(duration.Seconds())
}

func (c *Collector) RecordProviderRequest(provider, model, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.providerRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.providerRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

func (c *Collector) RecordMilestone(status string) {
	if c == nil {
		return
	}
	c.milestonesTotal.WithLabelValues(status).Inc()
}

func (c *Collector) RecordSynthesis(duration time.Duration) {
	if c == nil {
		return
	}
	c.synthesisDuration.Observe(duration.Seconds())
}
