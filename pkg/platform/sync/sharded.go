package sync

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 32

// ShardedMutex spreads locking across N mutexes picked by a hash of the key,
// so unrelated keys rarely contend. Callers may also use ShardFor to index
// their own per-shard data.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex with n shards (32 when n <= 0).
func NewShardedMutex(n int) *ShardedMutex {
	if n <= 0 {
		n = defaultShards
	}
	return &ShardedMutex{shards: make([]sync.Mutex, n)}
}

// Lock acquires the lock for key's shard.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.ShardFor(key)].Lock()
}

// Unlock releases the lock for key's shard.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.ShardFor(key)].Unlock()
}

// Len is the number of shards.
func (m *ShardedMutex) Len() int {
	return len(m.shards)
}

// ShardFor returns the shard index for key. Empty keys use shard 0.
func (m *ShardedMutex) ShardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
