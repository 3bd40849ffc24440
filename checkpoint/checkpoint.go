// Package checkpoint defines the persistence interface for planning
// threads: thread records, per-transition state snapshots, and the
// durable pending-interrupt record. Backends live in subpackages
// (memory, sqlite, redis); the scheduler depends only on Store.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/id"
	"github.com/plancraft/plancraft/state"
)

// Status is the externally visible lifecycle state of a thread.
type Status string

const (
	StatusRunning     Status = "RUNNING"
	StatusInterrupted Status = "INTERRUPTED"
	StatusCompleted   Status = "COMPLETED"
	StatusFailed      Status = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Thread is the durable record of one planning run.
type Thread struct {
	ID        id.ThreadID `json:"id"`
	Status    Status      `json:"status"`
	Error     string      `json:"error,omitempty"`
	Category  string      `json:"error_category,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Checkpoint is one state snapshot, taken after every node transition.
// Seq is a dense per-thread sequence number starting at 0: the timeline
// of a thread is its checkpoints in Seq order, and resuming always
// starts from the highest Seq.
type Checkpoint struct {
	ID        id.CheckpointID `json:"id"`
	ThreadID  id.ThreadID     `json:"thread_id"`
	Seq       int             `json:"seq"`
	NextNode  string          `json:"next_node"`
	State     state.State     `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// PendingInterrupt is the durable record of a suspension awaiting human
// input. At most one exists per thread. Its envelope is the stamped
// envelope surfaced to callers, stored verbatim so status queries and
// replays return identical bytes.
type PendingInterrupt struct {
	ID        id.InterruptID `json:"id"`
	ThreadID  id.ThreadID    `json:"thread_id"`
	Envelope  hitl.Envelope  `json:"envelope"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store is the persistence interface. Implementations must be safe for
// concurrent use and must return the plancraft sentinel errors for
// missing records so callers can branch with errors.Is.
type Store interface {
	// Threads.
	CreateThread(ctx context.Context, t *Thread) error
	GetThread(ctx context.Context, threadID id.ThreadID) (*Thread, error)
	UpdateThread(ctx context.Context, t *Thread) error
	ListThreads(ctx context.Context, status Status, limit int) ([]*Thread, error)

	// Checkpoints.
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error
	LatestCheckpoint(ctx context.Context, threadID id.ThreadID) (*Checkpoint, error)
	ListCheckpoints(ctx context.Context, threadID id.ThreadID) ([]*Checkpoint, error)
	// RollbackTo removes every checkpoint with Seq greater than seq,
	// making the checkpoint at seq the new head of the timeline.
	RollbackTo(ctx context.Context, threadID id.ThreadID, seq int) error

	// Pending interrupts.
	SavePendingInterrupt(ctx context.Context, pi *PendingInterrupt) error
	GetPendingInterrupt(ctx context.Context, threadID id.ThreadID) (*PendingInterrupt, error)
	ClearPendingInterrupt(ctx context.Context, threadID id.ThreadID) error

	// Migrate runs schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// EncodeState serializes a state snapshot for storage.
func EncodeState(st state.State) ([]byte, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// DecodeState deserializes a stored snapshot. A snapshot that fails to
// decode is reported as a corrupt checkpoint, which is fatal for the
// thread.
func DecodeState(b []byte) (state.State, error) {
	var st state.State
	if err := json.Unmarshal(b, &st); err != nil {
		return state.State{}, fmt.Errorf("%w: %v", plancraft.ErrCorruptCheckpoint, err)
	}
	return st, nil
}
