// Package archive keeps snapshots of terminal runs, completed or
// failed, outside the live checkpoint timeline, for inspection and
// replay. Archiving a thread captures its final state and terminal
// reason; replaying marks the entry and hands back the original input
// so a fresh thread can be started from it.
package archive

import (
	"context"
	"time"

	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/id"
	"github.com/plancraft/plancraft/state"
)

// Entry is one archived terminal run.
type Entry struct {
	ID         id.ArchiveID      `json:"id"`
	ThreadID   id.ThreadID       `json:"thread_id"`
	Status     checkpoint.Status `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Category   string            `json:"error_category,omitempty"`
	State      state.State       `json:"state"`
	ArchivedAt time.Time         `json:"archived_at"`
	ReplayedAt *time.Time        `json:"replayed_at,omitempty"`
}

// ListOpts controls filtering for archive list queries.
type ListOpts struct {
	// Limit is the maximum number of entries to return. Zero means no
	// limit.
	Limit int
	// Status filters by terminal status. Empty means all.
	Status checkpoint.Status
}

// Store defines the persistence contract for the run archive.
type Store interface {
	// Push adds a terminal run entry to the archive.
	Push(ctx context.Context, entry *Entry) error

	// List returns archive entries matching the given options, newest
	// first.
	List(ctx context.Context, opts ListOpts) ([]*Entry, error)

	// Get retrieves an archive entry by ID.
	Get(ctx context.Context, entryID id.ArchiveID) (*Entry, error)

	// MarkReplayed records that an entry has been replayed.
	MarkReplayed(ctx context.Context, entryID id.ArchiveID) error

	// Purge removes entries archived before the given time. Returns the
	// number of entries removed.
	Purge(ctx context.Context, before time.Time) (int64, error)

	// Count returns the total number of archived entries.
	Count(ctx context.Context) (int64, error)
}

// Service provides high-level archive operations over a Store.
type Service struct {
	store Store
}

// NewService creates an archive service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Archive captures a terminal thread and its final state.
func (s *Service) Archive(ctx context.Context, t *checkpoint.Thread, final state.State) error {
	entry := &Entry{
		ID:         id.NewArchiveID(),
		ThreadID:   t.ID,
		Status:     t.Status,
		Reason:     t.Error,
		Category:   t.Category,
		State:      final.Clone(),
		ArchivedAt: time.Now().UTC(),
	}
	return s.store.Push(ctx, entry)
}

// Replay marks the entry replayed and returns the original user input
// plus the archived state, from which the caller starts a fresh thread.
func (s *Service) Replay(ctx context.Context, entryID id.ArchiveID) (*Entry, error) {
	entry, err := s.store.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkReplayed(ctx, entryID); err != nil {
		return nil, err
	}
	return entry, nil
}

// Store returns the underlying archive store for direct access to List,
// Get, Purge, and Count operations.
func (s *Service) Store() Store { return s.store }
