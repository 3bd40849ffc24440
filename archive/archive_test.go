package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/id"
	"github.com/plancraft/plancraft/state"
)

func TestArchiveAndReplay(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	th := &checkpoint.Thread{
		ID:       id.NewThreadID(),
		Status:   checkpoint.StatusFailed,
		Error:    "node visit ceiling exceeded",
		Category: "STATE_ERROR",
	}
	final := state.New("쇼핑몰 기획")
	final.CurrentStep = "write"

	if err := svc.Archive(ctx, th, final); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.Store().List(ctx, ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ThreadID != th.ID || entry.Status != checkpoint.StatusFailed {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Reason != "node visit ceiling exceeded" || entry.Category != "STATE_ERROR" {
		t.Errorf("terminal reason = %q / %q", entry.Reason, entry.Category)
	}
	if entry.ReplayedAt != nil {
		t.Error("fresh entry marked replayed")
	}

	replayed, err := svc.Replay(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if replayed.State.UserInput != "쇼핑몰 기획" {
		t.Errorf("replayed input = %q", replayed.State.UserInput)
	}

	got, err := svc.Store().Get(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReplayedAt == nil {
		t.Error("replay not recorded")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	for _, status := range []checkpoint.Status{checkpoint.StatusCompleted, checkpoint.StatusFailed, checkpoint.StatusCompleted} {
		th := &checkpoint.Thread{ID: id.NewThreadID(), Status: status}
		if err := svc.Archive(ctx, th, state.New("입력")); err != nil {
			t.Fatal(err)
		}
	}

	completed, err := svc.Store().List(ctx, ListOpts{Status: checkpoint.StatusCompleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 2 {
		t.Errorf("completed = %d, want 2", len(completed))
	}

	n, err := svc.Store().Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestPurge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old := &Entry{ID: id.NewArchiveID(), ThreadID: id.NewThreadID(),
		Status: checkpoint.StatusCompleted, ArchivedAt: time.Now().UTC().Add(-48 * time.Hour)}
	recent := &Entry{ID: id.NewArchiveID(), ThreadID: id.NewThreadID(),
		Status: checkpoint.StatusCompleted, ArchivedAt: time.Now().UTC()}
	if err := store.Push(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := store.Push(ctx, recent); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Purge(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := store.Get(ctx, old.ID); !errors.Is(err, plancraft.ErrArchiveNotFound) {
		t.Errorf("purged entry err = %v", err)
	}
	if _, err := store.Get(ctx, recent.ID); err != nil {
		t.Errorf("recent entry err = %v", err)
	}
}

func TestReplayMissing(t *testing.T) {
	svc := NewService(NewMemoryStore())
	if _, err := svc.Replay(context.Background(), id.NewArchiveID()); !errors.Is(err, plancraft.ErrArchiveNotFound) {
		t.Errorf("err = %v", err)
	}
}
