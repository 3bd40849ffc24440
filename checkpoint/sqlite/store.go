// Package sqlite implements checkpoint.Store on SQLite via database/sql.
// Suitable for single-process deployments that need durability without an
// external database.
//
// Usage:
//
//	db, err := sql.Open("sqlite3", "file:plancraft.db?_fk=1")
//	s := sqlitestore.New(db)
//	if err := s.Migrate(ctx); err != nil { ... }
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/id"
)

var _ checkpoint.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements checkpoint.Store backed by SQLite. The caller owns
// the *sql.DB lifecycle; Close is a no-op.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new SQLite-backed store.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("plancraft/sqlite: migrate: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op because the caller owns the *sql.DB lifecycle.
func (s *Store) Close() error { return nil }

// CreateThread persists a new thread record.
func (s *Store) CreateThread(ctx context.Context, t *checkpoint.Thread) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plancraft_threads (id, status, error, error_category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID.String(), string(t.Status), t.Error, t.Category,
		t.CreatedAt.UTC().Format(time.RFC3339Nano), t.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return plancraft.ErrThreadExists
		}
		return fmt.Errorf("plancraft/sqlite: create thread: %w", err)
	}
	return nil
}

// GetThread retrieves a thread by ID.
func (s *Store) GetThread(ctx context.Context, threadID id.ThreadID) (*checkpoint.Thread, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, error, error_category, created_at, updated_at
		FROM plancraft_threads WHERE id = ?`, threadID.String())
	t, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plancraft.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: get thread: %w", err)
	}
	return t, nil
}

// UpdateThread persists changes to an existing thread.
func (s *Store) UpdateThread(ctx context.Context, t *checkpoint.Thread) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE plancraft_threads
		SET status = ?, error = ?, error_category = ?, updated_at = ?
		WHERE id = ?`,
		string(t.Status), t.Error, t.Category,
		time.Now().UTC().Format(time.RFC3339Nano), t.ID.String())
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: update thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: update thread rows: %w", err)
	}
	if n == 0 {
		return plancraft.ErrThreadNotFound
	}
	return nil
}

// ListThreads returns threads matching the status filter, newest first.
func (s *Store) ListThreads(ctx context.Context, status checkpoint.Status, limit int) ([]*checkpoint.Thread, error) {
	q := `SELECT id, status, error, error_category, created_at, updated_at FROM plancraft_threads`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: list threads: %w", err)
	}
	defer rows.Close()

	var out []*checkpoint.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("plancraft/sqlite: scan thread: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveCheckpoint appends a state snapshot to the thread timeline.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	blob, err := checkpoint.EncodeState(cp.State)
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: save checkpoint: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plancraft_checkpoints (id, thread_id, seq, next_node, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cp.ID.String(), cp.ThreadID.String(), cp.Seq, cp.NextNode, blob,
		cp.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: save checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the highest-Seq snapshot for a thread.
func (s *Store) LatestCheckpoint(ctx context.Context, threadID id.ThreadID) (*checkpoint.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, seq, next_node, state, created_at
		FROM plancraft_checkpoints WHERE thread_id = ?
		ORDER BY seq DESC LIMIT 1`, threadID.String())
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plancraft.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: latest checkpoint: %w", err)
	}
	return cp, nil
}

// ListCheckpoints returns the full timeline in Seq order.
func (s *Store) ListCheckpoints(ctx context.Context, threadID id.ThreadID) ([]*checkpoint.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, seq, next_node, state, created_at
		FROM plancraft_checkpoints WHERE thread_id = ?
		ORDER BY seq ASC`, threadID.String())
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*checkpoint.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("plancraft/sqlite: scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// RollbackTo drops every snapshot newer than seq.
func (s *Store) RollbackTo(ctx context.Context, threadID id.ThreadID, seq int) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM plancraft_checkpoints WHERE thread_id = ? AND seq = ?`,
		threadID.String(), seq).Scan(&exists)
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: rollback lookup: %w", err)
	}
	if exists == 0 {
		return plancraft.ErrCheckpointNotFound
	}
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM plancraft_checkpoints WHERE thread_id = ? AND seq > ?`,
		threadID.String(), seq)
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: rollback: %w", err)
	}
	return nil
}

// SavePendingInterrupt records the suspension awaiting input, replacing
// any previous record for the thread.
func (s *Store) SavePendingInterrupt(ctx context.Context, pi *checkpoint.PendingInterrupt) error {
	blob, err := encodeEnvelope(pi.Envelope)
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: save interrupt: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plancraft_interrupts (thread_id, id, envelope, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (thread_id) DO UPDATE SET id = excluded.id,
			envelope = excluded.envelope, created_at = excluded.created_at`,
		pi.ThreadID.String(), pi.ID.String(), blob,
		pi.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: save interrupt: %w", err)
	}
	return nil
}

// GetPendingInterrupt returns the suspension awaiting input, if any.
func (s *Store) GetPendingInterrupt(ctx context.Context, threadID id.ThreadID) (*checkpoint.PendingInterrupt, error) {
	var (
		piID      string
		blob      []byte
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, envelope, created_at FROM plancraft_interrupts WHERE thread_id = ?`,
		threadID.String()).Scan(&piID, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plancraft.ErrNoPendingInterrupt
	}
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: get interrupt: %w", err)
	}

	env, err := decodeEnvelope(blob)
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: get interrupt: %w", err)
	}
	parsedID, err := id.ParseInterruptID(piID)
	if err != nil {
		return nil, fmt.Errorf("plancraft/sqlite: get interrupt id: %w", err)
	}
	return &checkpoint.PendingInterrupt{
		ID:        parsedID,
		ThreadID:  threadID,
		Envelope:  env,
		CreatedAt: parseTime(createdAt),
	}, nil
}

// ClearPendingInterrupt removes the record once the answer is applied.
func (s *Store) ClearPendingInterrupt(ctx context.Context, threadID id.ThreadID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM plancraft_interrupts WHERE thread_id = ?`, threadID.String())
	if err != nil {
		return fmt.Errorf("plancraft/sqlite: clear interrupt: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*checkpoint.Thread, error) {
	var (
		rawID, status, errMsg, category string
		createdAt, updatedAt            string
	)
	if err := row.Scan(&rawID, &status, &errMsg, &category, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	tid, err := id.ParseThreadID(rawID)
	if err != nil {
		return nil, err
	}
	return &checkpoint.Thread{
		ID:        tid,
		Status:    checkpoint.Status(status),
		Error:     errMsg,
		Category:  category,
		CreatedAt: parseTime(createdAt),
		UpdatedAt: parseTime(updatedAt),
	}, nil
}

func scanCheckpoint(row rowScanner) (*checkpoint.Checkpoint, error) {
	var (
		rawID, rawThreadID, nextNode, createdAt string
		seq                                     int
		blob                                    []byte
	)
	if err := row.Scan(&rawID, &rawThreadID, &seq, &nextNode, &blob, &createdAt); err != nil {
		return nil, err
	}
	cpID, err := id.ParseCheckpointID(rawID)
	if err != nil {
		return nil, err
	}
	tid, err := id.ParseThreadID(rawThreadID)
	if err != nil {
		return nil, err
	}
	st, err := checkpoint.DecodeState(blob)
	if err != nil {
		return nil, err
	}
	return &checkpoint.Checkpoint{
		ID:        cpID,
		ThreadID:  tid,
		Seq:       seq,
		NextNode:  nextNode,
		State:     st,
		CreatedAt: parseTime(createdAt),
	}, nil
}

func encodeEnvelope(env hitl.Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func decodeEnvelope(b []byte) (hitl.Envelope, error) {
	var env hitl.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return hitl.Envelope{}, err
	}
	return env, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation detects a primary-key conflict without importing the
// driver's error types into the store surface.
func isUniqueViolation(err error) bool {
	return err != nil && containsAny(err.Error(), "UNIQUE constraint failed", "constraint violation")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
