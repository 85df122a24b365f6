// Package memtable implements the in-memory, key-ordered table of version
// chains that is the engine's mutable source of truth.
package memtable

import (
	"slices"
	"sort"
	"sync"

	"github.com/hupe1980/vecrow/internal/mvcc"
	"github.com/hupe1980/vecrow/model"
)

// MemTable holds, per key, the chain of versions in append order (newest last).
//
// A single RWMutex guards the whole table: writers to different keys
// serialize, readers run concurrently with each other. There is no conflict
// detection; the last writer to acquire a timestamp produces the newest
// visible version.
type MemTable struct {
	mu     sync.RWMutex
	chains map[string][]model.VersionedRow
	keys   []string // sorted
}

// New creates an empty MemTable.
func New() *MemTable {
	return &MemTable{
		chains: make(map[string][]model.VersionedRow),
	}
}

// Upsert appends v to the chain for its key, creating the chain if absent.
func (m *MemTable) Upsert(v model.VersionedRow) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(v.Row.Key)
	chain, ok := m.chains[key]
	if !ok {
		i := sort.SearchStrings(m.keys, key)
		m.keys = slices.Insert(m.keys, i, key)
	}
	m.chains[key] = append(chain, v)
}

// GetVisible returns the newest version of key visible at ts.
func (m *MemTable) GetVisible(key model.RowKey, ts model.Timestamp) (model.VersionedRow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return latestVisible(m.chains[string(key)], ts)
}

// ScanVisible returns, in ascending key order, the version of every key
// visible at ts. Keys with no visible version are skipped.
func (m *MemTable) ScanVisible(ts model.Timestamp) []model.VersionedRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.VersionedRow, 0, len(m.keys))
	for _, key := range m.keys {
		if v, ok := latestVisible(m.chains[key], ts); ok {
			out = append(out, v)
		}
	}
	return out
}

// Versions returns a copy of the full chain for key, oldest first.
func (m *MemTable) Versions(key model.RowKey) []model.VersionedRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.chains[string(key)])
}

// Snapshot returns every stored version, in key order and then chain order.
func (m *MemTable) Snapshot() []model.VersionedRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.VersionedRow
	for _, key := range m.keys {
		out = append(out, m.chains[key]...)
	}
	return out
}

// Len returns the number of distinct keys.
func (m *MemTable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

func latestVisible(chain []model.VersionedRow, ts model.Timestamp) (model.VersionedRow, bool) {
	for i := len(chain) - 1; i >= 0; i-- {
		if mvcc.VisibleAt(&chain[i], ts) {
			return chain[i], true
		}
	}
	return model.VersionedRow{}, false
}
