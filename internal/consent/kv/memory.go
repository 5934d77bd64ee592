package kv

import (
	"context"
	"time"

	platformsync "consentkit/pkg/platform/sync"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory keeps values in process memory. It is the default backend for tests
// and for single-process hosts that do not need persistence across restarts.
type Memory struct {
	locks  *platformsync.ShardedMutex
	shards []map[string]memoryEntry
	now    func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory constructs an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	locks := platformsync.NewShardedMutex(16)
	m := &Memory{
		locks:  locks,
		shards: make([]map[string]memoryEntry, locks.Len()),
		now:    time.Now,
	}
	for i := range m.shards {
		m.shards[i] = make(map[string]memoryEntry)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, name string) (string, bool, error) {
	m.locks.Lock(name)
	defer m.locks.Unlock(name)
	shard := m.shards[m.locks.ShardFor(name)]
	entry, ok := shard[name]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(shard, name)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, name, value string, attrs Attributes) error {
	if attrs.MaxAge < 0 {
		return m.Delete(context.Background(), name, attrs)
	}
	m.locks.Lock(name)
	defer m.locks.Unlock(name)
	m.shards[m.locks.ShardFor(name)][name] = memoryEntry{
		value:     value,
		expiresAt: attrs.expiresAt(m.now()),
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, name string, _ Attributes) error {
	m.locks.Lock(name)
	defer m.locks.Unlock(name)
	delete(m.shards[m.locks.ShardFor(name)], name)
	return nil
}

var _ Store = (*Memory)(nil)
