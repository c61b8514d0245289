package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeInvariant = "invariant"
	OutcomeError     = "error"
)

// CalculationMetrics records how the pricing engine is exercised.
type CalculationMetrics struct {
	duration      *prometheus.HistogramVec
	calculations  *prometheus.CounterVec
	fallbackRates *prometheus.CounterVec
	flagged       prometheus.Counter
	reloads       *prometheus.CounterVec
}

// NewCalculationMetrics registers the engine metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewCalculationMetrics(reg prometheus.Registerer) *CalculationMetrics {
	if reg == nil {
		return &CalculationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pricing",
		Name:      "calculation_duration_seconds",
		Help:      "Duration of pricing engine calculations in seconds.",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
	}, []string{"operation"})
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricing",
		Name:      "calculations_total",
		Help:      "Pricing engine calculations by operation and outcome.",
	}, []string{"operation", "outcome"})
	fallbackRates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricing",
		Name:      "fallback_uplift_rate_total",
		Help:      "Price breakdowns that used the global uplift rate for an unknown category.",
	}, []string{"category"})
	flagged := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricing",
		Name:      "price_deviation_flagged_total",
		Help:      "Proposed prices flagged for manual review.",
	})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricing",
		Name:      "config_reloads_total",
		Help:      "Configuration snapshot reloads by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, calculations, fallbackRates, flagged, reloads)
	return &CalculationMetrics{
		duration:      duration,
		calculations:  calculations,
		fallbackRates: fallbackRates,
		flagged:       flagged,
		reloads:       reloads,
	}
}

// Observe records one calculation and its outcome.
func (m *CalculationMetrics) Observe(operation, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
	m.calculations.WithLabelValues(operation, normalizeLabel(outcome)).Inc()
}

// IncFallbackRate counts a category priced with the global rate.
func (m *CalculationMetrics) IncFallbackRate(category string) {
	if m == nil || m.fallbackRates == nil {
		return
	}
	m.fallbackRates.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncFlagged counts a price routed to manual approval.
func (m *CalculationMetrics) IncFlagged() {
	if m == nil || m.flagged == nil {
		return
	}
	m.flagged.Inc()
}

// IncReload counts a configuration reload attempt.
func (m *CalculationMetrics) IncReload(outcome string) {
	if m == nil || m.reloads == nil {
		return
	}
	m.reloads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
