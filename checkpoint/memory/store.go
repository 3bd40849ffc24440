// Package memory implements checkpoint.Store entirely in memory. Safe
// for concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/id"
)

var _ checkpoint.Store = (*Store)(nil)

// Store is a fully in-memory implementation of checkpoint.Store.
type Store struct {
	mu sync.RWMutex

	threads     map[string]*checkpoint.Thread
	checkpoints map[string][]*checkpoint.Checkpoint // key: thread ID, sorted by Seq
	interrupts  map[string]*checkpoint.PendingInterrupt

	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		threads:     make(map[string]*checkpoint.Thread),
		checkpoints: make(map[string][]*checkpoint.Checkpoint),
		interrupts:  make(map[string]*checkpoint.PendingInterrupt),
	}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is still open.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return plancraft.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Data is retained so post-mortem reads in
// tests still work.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CreateThread persists a new thread record.
func (m *Store) CreateThread(_ context.Context, t *checkpoint.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return plancraft.ErrStoreClosed
	}

	key := t.ID.String()
	if _, exists := m.threads[key]; exists {
		return plancraft.ErrThreadExists
	}
	cp := *t
	m.threads[key] = &cp
	return nil
}

// GetThread retrieves a thread by ID.
func (m *Store) GetThread(_ context.Context, threadID id.ThreadID) (*checkpoint.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[threadID.String()]
	if !ok {
		return nil, plancraft.ErrThreadNotFound
	}
	cp := *t
	return &cp, nil
}

// UpdateThread persists changes to an existing thread.
func (m *Store) UpdateThread(_ context.Context, t *checkpoint.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := t.ID.String()
	if _, ok := m.threads[key]; !ok {
		return plancraft.ErrThreadNotFound
	}
	cp := *t
	cp.UpdatedAt = time.Now().UTC()
	m.threads[key] = &cp
	return nil
}

// ListThreads returns threads matching the status filter, newest first.
// An empty status matches everything.
func (m *Store) ListThreads(_ context.Context, status checkpoint.Status, limit int) ([]*checkpoint.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*checkpoint.Thread
	for _, t := range m.threads {
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SaveCheckpoint appends a state snapshot to the thread timeline.
func (m *Store) SaveCheckpoint(_ context.Context, cp *checkpoint.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return plancraft.ErrStoreClosed
	}

	key := cp.ThreadID.String()
	snap := *cp
	snap.State = cp.State.Clone()
	m.checkpoints[key] = append(m.checkpoints[key], &snap)
	sort.Slice(m.checkpoints[key], func(i, j int) bool {
		return m.checkpoints[key][i].Seq < m.checkpoints[key][j].Seq
	})
	return nil
}

// LatestCheckpoint returns the highest-Seq snapshot for a thread.
func (m *Store) LatestCheckpoint(_ context.Context, threadID id.ThreadID) (*checkpoint.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.checkpoints[threadID.String()]
	if len(cps) == 0 {
		return nil, plancraft.ErrCheckpointNotFound
	}
	last := cps[len(cps)-1]
	snap := *last
	snap.State = last.State.Clone()
	return &snap, nil
}

// ListCheckpoints returns the full timeline in Seq order.
func (m *Store) ListCheckpoints(_ context.Context, threadID id.ThreadID) ([]*checkpoint.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.checkpoints[threadID.String()]
	out := make([]*checkpoint.Checkpoint, len(cps))
	for i, cp := range cps {
		snap := *cp
		snap.State = cp.State.Clone()
		out[i] = &snap
	}
	return out, nil
}

// RollbackTo drops every snapshot newer than seq.
func (m *Store) RollbackTo(_ context.Context, threadID id.ThreadID, seq int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := threadID.String()
	cps := m.checkpoints[key]
	kept := cps[:0]
	found := false
	for _, cp := range cps {
		if cp.Seq <= seq {
			kept = append(kept, cp)
		}
		if cp.Seq == seq {
			found = true
		}
	}
	if !found {
		return plancraft.ErrCheckpointNotFound
	}
	m.checkpoints[key] = kept
	return nil
}

// SavePendingInterrupt records the suspension awaiting input, replacing
// any previous record for the thread.
func (m *Store) SavePendingInterrupt(_ context.Context, pi *checkpoint.PendingInterrupt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return plancraft.ErrStoreClosed
	}

	cp := *pi
	m.interrupts[pi.ThreadID.String()] = &cp
	return nil
}

// GetPendingInterrupt returns the suspension awaiting input, if any.
func (m *Store) GetPendingInterrupt(_ context.Context, threadID id.ThreadID) (*checkpoint.PendingInterrupt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pi, ok := m.interrupts[threadID.String()]
	if !ok {
		return nil, plancraft.ErrNoPendingInterrupt
	}
	cp := *pi
	return &cp, nil
}

// ClearPendingInterrupt removes the record once the answer is applied.
// Clearing an absent record is not an error.
func (m *Store) ClearPendingInterrupt(_ context.Context, threadID id.ThreadID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.interrupts, threadID.String())
	return nil
}
