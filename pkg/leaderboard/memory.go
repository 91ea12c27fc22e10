package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is an in-process RankingIndex with the same ordering semantics
// as the Redis implementation. It backs unit tests and local development
// without a cache instance.
type MemoryIndex struct {
	mu    sync.RWMutex
	sets  map[string][]Entry // ascending by (score, member)
	flags map[string]bool
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		sets:  make(map[string][]Entry),
		flags: make(map[string]bool),
	}
}

func (m *MemoryIndex) Upsert(_ context.Context, key, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.sets[key]
	for i, e := range set {
		if e.Member == member {
			set = append(set[:i], set[i+1:]...)
			break
		}
	}
	set = append(set, Entry{Member: member, Score: score})
	sort.Slice(set, func(i, j int) bool {
		if set[i].Score != set[j].Score {
			return set[i].Score < set[j].Score
		}
		return set[i].Member < set[j].Member
	})
	m.sets[key] = set
	return nil
}

func (m *MemoryIndex) RemoveAll(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.sets, key)
		delete(m.flags, key)
	}
	return nil
}

func (m *MemoryIndex) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.sets[key]) > 0 {
		return true, nil
	}
	return m.flags[key], nil
}

func (m *MemoryIndex) Cardinality(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.sets[key])), nil
}

func (m *MemoryIndex) RankDesc(_ context.Context, key, member string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.sets[key]
	n := len(set)
	for i := n - 1; i >= 0; i-- {
		if set[i].Member == member {
			return int64(n - 1 - i), true, nil
		}
	}
	return 0, false, nil
}

func (m *MemoryIndex) RangeDesc(_ context.Context, key string, start, stop int64) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.sets[key]
	n := int64(len(set))
	if n == 0 {
		return nil, nil
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}

	out := make([]Entry, 0, stop-start+1)
	for rank := start; rank <= stop; rank++ {
		out = append(out, set[n-1-rank])
	}
	return out, nil
}

func (m *MemoryIndex) RangeAll(_ context.Context, key string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.sets[key]
	out := make([]Entry, len(set))
	copy(out, set)
	return out, nil
}

func (m *MemoryIndex) SetFlag(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = true
	return nil
}

func (m *MemoryIndex) HasFlag(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[key], nil
}
