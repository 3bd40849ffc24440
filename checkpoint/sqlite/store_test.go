package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/id"
	"github.com/plancraft/plancraft/state"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+t.TempDir()+"/test.db?_fk=1")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestThreadRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	th := &checkpoint.Thread{
		ID:        id.NewThreadID(),
		Status:    checkpoint.StatusRunning,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.CreateThread(ctx, th); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateThread(ctx, th); !errors.Is(err, plancraft.ErrThreadExists) {
		t.Errorf("duplicate create err = %v", err)
	}

	got, err := s.GetThread(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != th.ID || got.Status != checkpoint.StatusRunning {
		t.Errorf("got = %+v", got)
	}

	got.Status = checkpoint.StatusFailed
	got.Error = "boom"
	got.Category = "STATE_ERROR"
	if err := s.UpdateThread(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetThread(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != checkpoint.StatusFailed || got.Error != "boom" || got.Category != "STATE_ERROR" {
		t.Errorf("after update = %+v", got)
	}

	if _, err := s.GetThread(ctx, id.NewThreadID()); !errors.Is(err, plancraft.ErrThreadNotFound) {
		t.Errorf("missing thread err = %v", err)
	}

	failed, err := s.ListThreads(ctx, checkpoint.StatusFailed, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 {
		t.Errorf("failed threads = %d, want 1", len(failed))
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	th := &checkpoint.Thread{ID: id.NewThreadID(), Status: checkpoint.StatusRunning,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := s.CreateThread(ctx, th); err != nil {
		t.Fatal(err)
	}

	st := state.New("한국어 입력도 그대로 저장된다")
	st.Analysis = &state.Analysis{Topic: "쇼핑몰", KeyFeatures: []string{"장바구니", "결제"}}
	st = st.Apply(state.WithHistory(state.StepRecord{Step: "analyze", Status: state.StatusSuccess}))

	for seq, node := range []string{"analyze", "structure"} {
		err := s.SaveCheckpoint(ctx, &checkpoint.Checkpoint{
			ID: id.NewCheckpointID(), ThreadID: th.ID, Seq: seq,
			NextNode: node, State: st, CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("save %d: %v", seq, err)
		}
	}

	latest, err := s.LatestCheckpoint(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Seq != 1 || latest.NextNode != "structure" {
		t.Errorf("latest = seq %d node %q", latest.Seq, latest.NextNode)
	}
	if latest.State.Analysis == nil || latest.State.Analysis.Topic != "쇼핑몰" {
		t.Errorf("state round trip lost analysis: %+v", latest.State.Analysis)
	}
	if len(latest.State.StepHistory) != 1 {
		t.Errorf("history length = %d", len(latest.State.StepHistory))
	}

	all, err := s.ListCheckpoints(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("timeline = %d, want 2", len(all))
	}

	if err := s.RollbackTo(ctx, th.ID, 0); err != nil {
		t.Fatal(err)
	}
	latest, err = s.LatestCheckpoint(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Seq != 0 {
		t.Errorf("after rollback seq = %d", latest.Seq)
	}
	if err := s.RollbackTo(ctx, th.ID, 5); !errors.Is(err, plancraft.ErrCheckpointNotFound) {
		t.Errorf("rollback missing seq err = %v", err)
	}
}

func TestPendingInterruptRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	tid := id.NewThreadID()

	if _, err := s.GetPendingInterrupt(ctx, tid); !errors.Is(err, plancraft.ErrNoPendingInterrupt) {
		t.Errorf("missing interrupt err = %v", err)
	}

	env := hitl.Build(tid.String(), "analyze", hitl.Request{
		Type:     hitl.TypeOptionSelection,
		Question: "어떤 플랫폼으로 만들까요?",
		Options: []state.Option{
			{Title: "웹", Description: "Web"},
			{Title: "직접 입력", Description: "원하는 방향을 직접 설명"},
		},
		InterruptID: "platform",
	}, 0, "").Stamp(time.Now())

	pi := &checkpoint.PendingInterrupt{
		ID: id.NewInterruptID(), ThreadID: tid, Envelope: env, CreatedAt: time.Now().UTC(),
	}
	if err := s.SavePendingInterrupt(ctx, pi); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPendingInterrupt(ctx, tid)
	if err != nil {
		t.Fatal(err)
	}
	if got.Envelope.EventID != env.EventID || len(got.Envelope.Options) != 2 {
		t.Errorf("stored envelope = %+v", got.Envelope)
	}
	if got.Envelope.Options[0].Title != "웹" {
		t.Errorf("option text corrupted: %+v", got.Envelope.Options[0])
	}

	// Saving again replaces the record.
	retry := env
	retry.RetryCount = 1
	retry.Error = "unknown option"
	pi2 := &checkpoint.PendingInterrupt{ID: id.NewInterruptID(), ThreadID: tid,
		Envelope: retry, CreatedAt: time.Now().UTC()}
	if err := s.SavePendingInterrupt(ctx, pi2); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetPendingInterrupt(ctx, tid)
	if err != nil {
		t.Fatal(err)
	}
	if got.Envelope.RetryCount != 1 || got.Envelope.Error != "unknown option" {
		t.Errorf("replaced envelope = %+v", got.Envelope)
	}

	if err := s.ClearPendingInterrupt(ctx, tid); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPendingInterrupt(ctx, tid); !errors.Is(err, plancraft.ErrNoPendingInterrupt) {
		t.Errorf("after clear err = %v", err)
	}
}
