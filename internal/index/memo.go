package index

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo caches built indexes per tree snapshot. Concurrent requests for
// the same snapshot share one build; a snapshot with a new fingerprint
// always gets a fresh build while the stale entry stays readable until
// replaced.
type Memo struct {
	indexer *Indexer

	mu      sync.RWMutex
	entries map[string]*SymbolIndex

	group singleflight.Group
}

// NewMemo creates a memoization table around an indexer.
func NewMemo(indexer *Indexer) *Memo {
	return &Memo{
		indexer: indexer,
		entries: make(map[string]*SymbolIndex),
	}
}

func memoKey(fingerprint, pattern string) string {
	return fingerprint + "|" + pattern
}

// Get returns the index for the given tree snapshot, building it at most
// once per (fingerprint, pattern) no matter how many callers arrive.
func (m *Memo) Get(ctx context.Context, root, fingerprint, pattern string) (*SymbolIndex, error) {
	if pattern == "" {
		pattern = m.indexer.cfg.FilePattern
	}
	key := memoKey(fingerprint, pattern)

	m.mu.RLock()
	idx, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return idx, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		idx, ok := m.entries[key]
		m.mu.RUnlock()
		if ok {
			return idx, nil
		}

		built, buildErr := m.indexer.Build(ctx, root, fingerprint, pattern)
		if buildErr != nil {
			// Failed builds are never published
			return nil, buildErr
		}

		m.mu.Lock()
		m.entries[key] = built
		m.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SymbolIndex), nil
}

// Invalidate drops all memoized indexes for a fingerprint, across patterns.
func (m *Memo) Invalidate(fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := fingerprint + "|"
	for key := range m.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.entries, key)
		}
	}
}

// Len reports how many indexes are memoized.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
