package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	dErrors "consentkit/pkg/domain-errors"
	tu "consentkit/pkg/testutil"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		build func(rec *tu.Recorder) *models.Handler
		slot  models.SlotName
		want  []string
	}{
		{
			name: "absent slot is a no-op",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").Build()
			},
			slot: models.SlotAtOptIn,
			want: nil,
		},
		{
			name: "callable is invoked once",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").On(models.SlotAtOptIn, rec.Fn("load")).Build()
			},
			slot: models.SlotAtOptIn,
			want: []string{"load"},
		},
		{
			name: "alias resolves target slot",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").
					On(models.SlotIfOptedIn, rec.Fn("load")).
					Alias(models.SlotAtOptIn, models.SlotIfOptedIn).
					Build()
			},
			slot: models.SlotAtOptIn,
			want: []string{"load"},
		},
		{
			name: "alias to missing slot is a no-op",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").Alias(models.SlotAtOptIn, "nowhere").Build()
			},
			slot: models.SlotAtOptIn,
			want: nil,
		},
		{
			name: "sequence runs aliases and callables in order",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").
					On("fnA", rec.Fn("A")).
					Sequence(models.SlotAtOptIn, models.To("fnA"), models.Call(rec.Fn("B"))).
					Build()
			},
			slot: models.SlotAtOptIn,
			want: []string{"A", "B"},
		},
		{
			name: "sequence skips unresolvable alias",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").
					Sequence(models.SlotAtReset, models.Call(rec.Fn("A")), models.To("missing"), models.Call(rec.Fn("B"))).
					Build()
			},
			slot: models.SlotAtReset,
			want: []string{"A", "B"},
		},
		{
			name: "chained aliases through a nested sequence",
			build: func(rec *tu.Recorder) *models.Handler {
				return tu.NewHandlerBuilder("ads").
					On("load", rec.Fn("load")).
					Sequence("boot", models.To("load"), models.Call(rec.Fn("track"))).
					Alias(models.SlotIfOptedIn, "boot").
					Alias(models.SlotAtOptIn, models.SlotIfOptedIn).
					Build()
			},
			slot: models.SlotAtOptIn,
			want: []string{"load", "track"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tu.NewRecorder()
			h := tt.build(rec)

			err := New().Resolve(ctx, h, tt.slot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Calls())
		})
	}
}

func TestResolveNilHandler(t *testing.T) {
	assert.NoError(t, New().Resolve(context.Background(), nil, models.SlotAtOptIn))
}

func TestResolveCallableWithoutFunc(t *testing.T) {
	h := models.NewHandler("ads", map[models.SlotName]models.Slot{
		models.SlotAtOptIn: {Kind: models.SlotCallable},
		models.SlotAtReady: models.Alias(models.SlotAtOptIn),
	})

	assert.NotPanics(t, func() {
		assert.NoError(t, New().Resolve(context.Background(), h, models.SlotAtOptIn))
		assert.NoError(t, New().Resolve(context.Background(), h, models.SlotAtReady))
	})
}

func TestResolveCallbackErrorStopsSequence(t *testing.T) {
	rec := tu.NewRecorder()
	boom := errors.New("boom")
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)
	h := tu.NewHandlerBuilder("ads").
		Sequence(models.SlotAtOptIn,
			models.Call(rec.Fn("A")),
			models.Call(rec.Failing("B", boom)),
			models.Call(rec.Fn("C")),
		).
		Build()

	err := New(WithMetrics(m)).Resolve(context.Background(), h, models.SlotAtOptIn)
	require.ErrorIs(t, err, boom)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCallbackFailed))
	assert.Equal(t, []string{"A", "B"}, rec.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallbackFailures.WithLabelValues(string(models.SlotAtOptIn))))
}

func TestResolveAliasCycleIsBounded(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	t.Run("self alias", func(t *testing.T) {
		h := tu.NewHandlerBuilder("ads").Alias("a", "a").Build()

		err := New(WithMetrics(m)).Resolve(context.Background(), h, "a")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAliasCycle))
	})

	t.Run("mutual aliases through a sequence", func(t *testing.T) {
		rec := tu.NewRecorder()
		h := tu.NewHandlerBuilder("ads").
			Sequence("a", models.Call(rec.Fn("tick")), models.To("b")).
			Alias("b", "a").
			Build()

		err := New(WithMaxDepth(4), WithMetrics(m)).Resolve(context.Background(), h, "a")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAliasCycle))
		// a(0) b(1) a(2) b(3) a(4) b(5) -> stop; "tick" ran at depths 0, 2, 4.
		assert.Len(t, rec.Calls(), 3)
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AliasCycles))
}

func TestResolveDepthWithinBoundSucceeds(t *testing.T) {
	rec := tu.NewRecorder()
	b := tu.NewHandlerBuilder("ads").On("s3", rec.Fn("end"))
	b.Alias("s2", "s3").Alias("s1", "s2").Alias("s0", "s1")

	err := New(WithMaxDepth(3)).Resolve(context.Background(), b.Build(), "s0")
	require.NoError(t, err)
	assert.Equal(t, []string{"end"}, rec.Calls())

	err = New(WithMaxDepth(2)).Resolve(context.Background(), b.Build(), "s0")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAliasCycle))
}

func TestWithMaxDepthIgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultMaxDepth, New(WithMaxDepth(0)).MaxDepth())
	assert.Equal(t, 8, New(WithMaxDepth(8)).MaxDepth())
}
