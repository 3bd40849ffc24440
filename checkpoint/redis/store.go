// Package redis implements checkpoint.Store using Redis. Threads are
// stored as Hashes, checkpoint timelines as Sorted Sets ordered by
// sequence number, and pending interrupts as JSON values. Suitable for
// multi-process deployments sharing one planning store.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/id"
)

var _ checkpoint.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements checkpoint.Store backed by Redis.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Migrate is a no-op for Redis; there is no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op because the caller owns the client lifecycle.
func (s *Store) Close() error { return nil }

// CreateThread persists a new thread record.
func (s *Store) CreateThread(ctx context.Context, t *checkpoint.Thread) error {
	tID := t.ID.String()
	key := threadKey(tID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("plancraft/redis: create thread exists: %w", err)
	}
	if exists > 0 {
		return plancraft.ErrThreadExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, threadToMap(t))
	pipe.SAdd(ctx, threadIDsKey, tID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("plancraft/redis: create thread: %w", err)
	}
	return nil
}

// GetThread retrieves a thread by ID.
func (s *Store) GetThread(ctx context.Context, threadID id.ThreadID) (*checkpoint.Thread, error) {
	vals, err := s.client.HGetAll(ctx, threadKey(threadID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: get thread: %w", err)
	}
	if len(vals) == 0 {
		return nil, plancraft.ErrThreadNotFound
	}
	return mapToThread(vals)
}

// UpdateThread persists changes to an existing thread.
func (s *Store) UpdateThread(ctx context.Context, t *checkpoint.Thread) error {
	key := threadKey(t.ID.String())
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("plancraft/redis: update thread exists: %w", err)
	}
	if exists == 0 {
		return plancraft.ErrThreadNotFound
	}

	m := threadToMap(t)
	m["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.client.HSet(ctx, key, m).Result(); err != nil {
		return fmt.Errorf("plancraft/redis: update thread: %w", err)
	}
	return nil
}

// ListThreads returns threads matching the status filter.
func (s *Store) ListThreads(ctx context.Context, status checkpoint.Status, limit int) ([]*checkpoint.Thread, error) {
	ids, err := s.client.SMembers(ctx, threadIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: list threads smembers: %w", err)
	}

	var threads []*checkpoint.Thread
	for _, tID := range ids {
		vals, getErr := s.client.HGetAll(ctx, threadKey(tID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		t, convErr := mapToThread(vals)
		if convErr != nil {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		threads = append(threads, t)
		if limit > 0 && len(threads) >= limit {
			break
		}
	}
	return threads, nil
}

// SaveCheckpoint appends a state snapshot to the thread timeline.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	blob, err := checkpoint.EncodeState(cp.State)
	if err != nil {
		return fmt.Errorf("plancraft/redis: save checkpoint: %w", err)
	}
	tID := cp.ThreadID.String()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, checkpointKey(tID, cp.Seq),
		"id", cp.ID.String(),
		"thread_id", tID,
		"seq", strconv.Itoa(cp.Seq),
		"next_node", cp.NextNode,
		"state", string(blob),
		"created_at", cp.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.ZAdd(ctx, checkpointIndexKey(tID), goredis.Z{
		Score:  float64(cp.Seq),
		Member: strconv.Itoa(cp.Seq),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("plancraft/redis: save checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the highest-Seq snapshot for a thread.
func (s *Store) LatestCheckpoint(ctx context.Context, threadID id.ThreadID) (*checkpoint.Checkpoint, error) {
	tID := threadID.String()
	seqs, err := s.client.ZRevRange(ctx, checkpointIndexKey(tID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: latest checkpoint index: %w", err)
	}
	if len(seqs) == 0 {
		return nil, plancraft.ErrCheckpointNotFound
	}
	seq, err := strconv.Atoi(seqs[0])
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: latest checkpoint seq: %w", err)
	}
	return s.getCheckpoint(ctx, tID, seq)
}

// ListCheckpoints returns the full timeline in Seq order.
func (s *Store) ListCheckpoints(ctx context.Context, threadID id.ThreadID) ([]*checkpoint.Checkpoint, error) {
	tID := threadID.String()
	seqs, err := s.client.ZRange(ctx, checkpointIndexKey(tID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: list checkpoints index: %w", err)
	}

	out := make([]*checkpoint.Checkpoint, 0, len(seqs))
	for _, raw := range seqs {
		seq, convErr := strconv.Atoi(raw)
		if convErr != nil {
			continue
		}
		cp, getErr := s.getCheckpoint(ctx, tID, seq)
		if getErr != nil {
			continue
		}
		out = append(out, cp)
	}
	return out, nil
}

// RollbackTo drops every snapshot newer than seq.
func (s *Store) RollbackTo(ctx context.Context, threadID id.ThreadID, seq int) error {
	tID := threadID.String()
	idxKey := checkpointIndexKey(tID)

	if err := s.client.ZScore(ctx, idxKey, strconv.Itoa(seq)).Err(); err != nil {
		if errors.Is(err, goredis.Nil) {
			return plancraft.ErrCheckpointNotFound
		}
		return fmt.Errorf("plancraft/redis: rollback lookup: %w", err)
	}

	newer, err := s.client.ZRangeByScore(ctx, idxKey, &goredis.ZRangeBy{
		Min: "(" + strconv.Itoa(seq),
		Max: "+inf",
	}).Result()
	if err != nil {
		return fmt.Errorf("plancraft/redis: rollback range: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, raw := range newer {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			pipe.Del(ctx, checkpointKey(tID, n))
		}
		pipe.ZRem(ctx, idxKey, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("plancraft/redis: rollback: %w", err)
	}
	return nil
}

// SavePendingInterrupt records the suspension awaiting input, replacing
// any previous record for the thread.
func (s *Store) SavePendingInterrupt(ctx context.Context, pi *checkpoint.PendingInterrupt) error {
	blob, err := json.Marshal(pi)
	if err != nil {
		return fmt.Errorf("plancraft/redis: save interrupt: %w", err)
	}
	if err := s.client.Set(ctx, interruptKey(pi.ThreadID.String()), blob, 0).Err(); err != nil {
		return fmt.Errorf("plancraft/redis: save interrupt: %w", err)
	}
	return nil
}

// GetPendingInterrupt returns the suspension awaiting input, if any.
func (s *Store) GetPendingInterrupt(ctx context.Context, threadID id.ThreadID) (*checkpoint.PendingInterrupt, error) {
	raw, err := s.client.Get(ctx, interruptKey(threadID.String())).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, plancraft.ErrNoPendingInterrupt
	}
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: get interrupt: %w", err)
	}

	var pi checkpoint.PendingInterrupt
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, fmt.Errorf("plancraft/redis: decode interrupt: %w", err)
	}
	return &pi, nil
}

// ClearPendingInterrupt removes the record once the answer is applied.
func (s *Store) ClearPendingInterrupt(ctx context.Context, threadID id.ThreadID) error {
	if err := s.client.Del(ctx, interruptKey(threadID.String())).Err(); err != nil {
		return fmt.Errorf("plancraft/redis: clear interrupt: %w", err)
	}
	return nil
}

func (s *Store) getCheckpoint(ctx context.Context, tID string, seq int) (*checkpoint.Checkpoint, error) {
	vals, err := s.client.HGetAll(ctx, checkpointKey(tID, seq)).Result()
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: get checkpoint: %w", err)
	}
	if len(vals) == 0 {
		return nil, plancraft.ErrCheckpointNotFound
	}
	return mapToCheckpoint(vals)
}

func threadToMap(t *checkpoint.Thread) map[string]any {
	return map[string]any{
		"id":             t.ID.String(),
		"status":         string(t.Status),
		"error":          t.Error,
		"error_category": t.Category,
		"created_at":     t.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":     t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func mapToThread(vals map[string]string) (*checkpoint.Thread, error) {
	tid, err := id.ParseThreadID(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: thread id: %w", err)
	}
	return &checkpoint.Thread{
		ID:        tid,
		Status:    checkpoint.Status(vals["status"]),
		Error:     vals["error"],
		Category:  vals["error_category"],
		CreatedAt: parseTime(vals["created_at"]),
		UpdatedAt: parseTime(vals["updated_at"]),
	}, nil
}

func mapToCheckpoint(vals map[string]string) (*checkpoint.Checkpoint, error) {
	cpID, err := id.ParseCheckpointID(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: checkpoint id: %w", err)
	}
	tid, err := id.ParseThreadID(vals["thread_id"])
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: checkpoint thread id: %w", err)
	}
	seq, err := strconv.Atoi(vals["seq"])
	if err != nil {
		return nil, fmt.Errorf("plancraft/redis: checkpoint seq: %w", err)
	}
	st, err := checkpoint.DecodeState([]byte(vals["state"]))
	if err != nil {
		return nil, err
	}
	return &checkpoint.Checkpoint{
		ID:        cpID,
		ThreadID:  tid,
		Seq:       seq,
		NextNode:  vals["next_node"],
		State:     st,
		CreatedAt: parseTime(vals["created_at"]),
	}, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
