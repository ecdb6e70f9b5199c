package graph

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"scout/internal/index"
)

// Memo caches built graphs per tree snapshot, sharing one build among
// concurrent callers the same way the index memo does.
type Memo struct {
	mu      sync.RWMutex
	entries map[string]*Graph
	group   singleflight.Group
}

// NewMemo creates an empty graph memoization table.
func NewMemo() *Memo {
	return &Memo{entries: make(map[string]*Graph)}
}

// Get returns the graph for the index's snapshot, building it at most once
// per (fingerprint, pattern).
func (m *Memo) Get(ctx context.Context, idx *index.SymbolIndex) (*Graph, error) {
	key := idx.Fingerprint + "|" + idx.Pattern

	m.mu.RLock()
	g, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		g, ok := m.entries[key]
		m.mu.RUnlock()
		if ok {
			return g, nil
		}

		built, buildErr := Build(ctx, idx)
		if buildErr != nil {
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
	return v.(*Graph), nil
}
