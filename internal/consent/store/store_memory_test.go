package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentkit/internal/consent/events"
	"consentkit/internal/consent/kv"
	"consentkit/internal/consent/models"
)

func TestStoreAgainstMemoryBackend(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	st := New(backend, nil)

	require.NoError(t, st.SetStatus(ctx, "ads", models.StatusAllow))
	require.NoError(t, st.SetStatus(ctx, "stats", models.StatusBlock))

	raw, ok, err := backend.Get(ctx, DefaultName)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ads=allow,stats=block", raw)

	record, err := st.Statuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Topic{"ads", "stats"}, record.Topics())

	require.NoError(t, st.Reset(ctx, "ads"))
	require.NoError(t, st.Reset(ctx, "stats"))

	_, ok, err = backend.Get(ctx, DefaultName)
	require.NoError(t, err)
	assert.False(t, ok, "empty record must delete the value, not store an empty string")
}

func TestStoreSkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, DefaultName, "ads=allow,junk,a=b=c,=allow,stats=maybe", kv.Attributes{}))
	st := New(backend, nil)

	record, err := st.Statuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Topic]models.Status{"ads": models.StatusAllow}, record.Map())

	// The next write drops the malformed parts.
	require.NoError(t, st.SetStatus(ctx, "stats", models.StatusBlock))
	raw, _, err := backend.Get(ctx, DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "ads=allow,stats=block", raw)
}

func TestStoreNotifiesThroughBus(t *testing.T) {
	ctx := context.Background()
	bus := events.New()
	var got []any
	bus.Subscribe(events.SetStatus, func(_ context.Context, args ...any) error {
		got = append(got, args...)
		return nil
	})
	st := New(kv.NewMemory(), bus)

	require.NoError(t, st.SetStatus(ctx, "ads", models.StatusAllow))
	assert.Equal(t, []any{models.Topic("ads"), models.StatusAllow}, got)
}

func TestStoreNormalizesUnrecognizedStatus(t *testing.T) {
	ctx := context.Background()
	bus := events.New()
	var got [][]any
	bus.Subscribe(events.SetStatus, func(_ context.Context, args ...any) error {
		got = append(got, args)
		return nil
	})
	backend := kv.NewMemory()
	st := New(backend, bus)

	require.NoError(t, st.SetStatus(ctx, "ads", models.StatusAllow))
	require.NoError(t, st.SetStatus(ctx, "ads", models.Status("maybe")))

	assert.Equal(t, [][]any{
		{models.Topic("ads"), models.StatusAllow},
		{models.Topic("ads"), models.StatusUnknown},
	}, got)
	_, ok, err := backend.Get(ctx, DefaultName)
	require.NoError(t, err)
	assert.False(t, ok)
}
