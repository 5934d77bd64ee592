package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistererIsolatesCollectors(t *testing.T) {
	a := NewWithRegisterer(prometheus.NewRegistry())
	b := NewWithRegisterer(prometheus.NewRegistry())

	a.IncrementTransition("opt_in")
	a.IncrementTransition("opt_in")
	a.IncrementAliasCycle()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Transitions.WithLabelValues("opt_in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.AliasCycles))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Transitions.WithLabelValues("opt_in")))
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWithRegisterer(reg)
	require.Panics(t, func() { NewWithRegisterer(reg) })
}

func TestObservers(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveStoreOperationLatency("write", 0.002)
	m.ObserveTopicsPerRecord(3)
	m.IncrementHandlers()
	m.IncrementCallbackFailure("at_opt_in")

	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreOperationLatency))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlersTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallbackFailures.WithLabelValues("at_opt_in")))
}
