package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/id"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a fully in-memory archive store. Safe for concurrent
// access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore returns a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Push adds a terminal run entry to the archive.
func (m *MemoryStore) Push(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	cp.State = entry.State.Clone()
	m.entries[entry.ID.String()] = &cp
	return nil
}

// List returns entries matching the options, newest first.
func (m *MemoryStore) List(_ context.Context, opts ListOpts) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Entry
	for _, e := range m.entries {
		if opts.Status != "" && e.Status != opts.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchivedAt.After(out[j].ArchivedAt) })
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Get retrieves an entry by ID.
func (m *MemoryStore) Get(_ context.Context, entryID id.ArchiveID) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[entryID.String()]
	if !ok {
		return nil, plancraft.ErrArchiveNotFound
	}
	cp := *e
	cp.State = e.State.Clone()
	return &cp, nil
}

// MarkReplayed records that an entry has been replayed.
func (m *MemoryStore) MarkReplayed(_ context.Context, entryID id.ArchiveID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[entryID.String()]
	if !ok {
		return plancraft.ErrArchiveNotFound
	}
	now := time.Now().UTC()
	e.ReplayedAt = &now
	return nil
}

// Purge removes entries archived before the given time.
func (m *MemoryStore) Purge(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key, e := range m.entries {
		if e.ArchivedAt.Before(before) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Count returns the total number of archived entries.
func (m *MemoryStore) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}
