package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	Transitions      *prometheus.CounterVec
	TransitionErrors *prometheus.CounterVec
	HandlersTotal    prometheus.Gauge
	SlotsResolved    *prometheus.CounterVec
	CallbackFailures *prometheus.CounterVec
	AliasCycles      prometheus.Counter

	// Performance metrics
	StoreOperationLatency *prometheus.HistogramVec
	TopicsPerRecord       prometheus.Histogram
}

// New registers consent collectors with the default Prometheus registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers consent collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so collectors never clash.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentkit_transitions_total",
			Help: "Total number of consent transitions, labeled by operation",
		}, []string{"operation"}),
		TransitionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentkit_transition_errors_total",
			Help: "Total number of consent transitions that returned an error, labeled by operation",
		}, []string{"operation"}),
		HandlersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "consentkit_handlers_total",
			Help: "Current number of registered consent handlers",
		}),
		SlotsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentkit_slots_resolved_total",
			Help: "Total number of slot resolutions, labeled by slot",
		}, []string{"slot"}),
		CallbackFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentkit_callback_failures_total",
			Help: "Total number of lifecycle callbacks that returned an error, labeled by slot",
		}, []string{"slot"}),
		AliasCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "consentkit_alias_depth_exceeded_total",
			Help: "Total number of slot resolutions aborted by the alias depth limit",
		}),

		// Performance metrics
		StoreOperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentkit_store_operation_latency_seconds",
			Help:    "Latency of consent store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		TopicsPerRecord: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "consentkit_topics_per_record",
			Help:    "Distribution of topic counts in the persisted consent record",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}
}

// IncrementTransition counts one transition. Topics are caller-chosen, so they
// are never used as a label.
func (m *Metrics) IncrementTransition(operation string) {
	m.Transitions.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementTransitionError(operation string) {
	m.TransitionErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementHandlers() {
	m.HandlersTotal.Inc()
}

func (m *Metrics) IncrementSlotResolved(slot string) {
	m.SlotsResolved.WithLabelValues(slot).Inc()
}

func (m *Metrics) IncrementCallbackFailure(slot string) {
	m.CallbackFailures.WithLabelValues(slot).Inc()
}

func (m *Metrics) IncrementAliasCycle() {
	m.AliasCycles.Inc()
}

// ObserveStoreOperationLatency records the latency of a store operation.
func (m *Metrics) ObserveStoreOperationLatency(operation string, durationSeconds float64) {
	m.StoreOperationLatency.WithLabelValues(operation).Observe(durationSeconds)
}

// ObserveTopicsPerRecord records how many topics the persisted record holds.
func (m *Metrics) ObserveTopicsPerRecord(count float64) {
	m.TopicsPerRecord.Observe(count)
}
