package hooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/id"
)

// recorder implements every hook and records the order of invocations.
type recorder struct {
	events []string
	fail   bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnRunStarted(context.Context, *checkpoint.Thread) error {
	r.events = append(r.events, "run_started")
	return r.maybeErr()
}

func (r *recorder) OnStepCompleted(_ context.Context, _ *checkpoint.Thread, step string, _ time.Duration) error {
	r.events = append(r.events, "step_completed:"+step)
	return r.maybeErr()
}

func (r *recorder) OnStepFailed(_ context.Context, _ *checkpoint.Thread, step string, _ error) error {
	r.events = append(r.events, "step_failed:"+step)
	return r.maybeErr()
}

func (r *recorder) OnInterrupted(_ context.Context, _ *checkpoint.Thread, env hitl.Envelope) error {
	r.events = append(r.events, "interrupted:"+env.NodeRef)
	return r.maybeErr()
}

func (r *recorder) OnResumed(context.Context, *checkpoint.Thread, hitl.ResumeCommand) error {
	r.events = append(r.events, "resumed")
	return r.maybeErr()
}

func (r *recorder) OnRunCompleted(context.Context, *checkpoint.Thread, time.Duration) error {
	r.events = append(r.events, "run_completed")
	return r.maybeErr()
}

func (r *recorder) OnRunFailed(context.Context, *checkpoint.Thread, error) error {
	r.events = append(r.events, "run_failed")
	return r.maybeErr()
}

func (r *recorder) maybeErr() error {
	if r.fail {
		return errors.New("hook error")
	}
	return nil
}

// startedOnly implements only RunStarted.
type startedOnly struct {
	count int
}

func (s *startedOnly) Name() string { return "started-only" }
func (s *startedOnly) OnRunStarted(context.Context, *checkpoint.Thread) error {
	s.count++
	return nil
}

func testRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testThread() *checkpoint.Thread {
	return &checkpoint.Thread{ID: id.NewThreadID(), Status: checkpoint.StatusRunning}
}

func TestRegistryDispatchesToImplementedHooks(t *testing.T) {
	reg := testRegistry()
	rec := &recorder{}
	only := &startedOnly{}
	reg.Register(rec)
	reg.Register(only)

	ctx := context.Background()
	th := testThread()
	reg.EmitRunStarted(ctx, th)
	reg.EmitStepCompleted(ctx, th, "analyze", time.Millisecond)
	reg.EmitStepFailed(ctx, th, "write", errors.New("boom"))
	reg.EmitInterrupted(ctx, th, hitl.Envelope{NodeRef: "analyze"})
	reg.EmitResumed(ctx, th, hitl.ResumeCommand{})
	reg.EmitRunCompleted(ctx, th, time.Second)

	want := []string{
		"run_started", "step_completed:analyze", "step_failed:write",
		"interrupted:analyze", "resumed", "run_completed",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v", rec.events)
	}
	for i, e := range want {
		if rec.events[i] != e {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], e)
		}
	}
	if only.count != 1 {
		t.Errorf("started-only invoked %d times, want 1", only.count)
	}
}

func TestRegistryHookErrorsAreSwallowed(t *testing.T) {
	reg := testRegistry()
	rec := &recorder{fail: true}
	reg.Register(rec)

	// Must not panic or propagate.
	reg.EmitRunStarted(context.Background(), testThread())
	reg.EmitRunFailed(context.Background(), testThread(), errors.New("terminal"))

	if len(rec.events) != 2 {
		t.Errorf("events = %v", rec.events)
	}
}

func TestExtensionsAccessor(t *testing.T) {
	reg := testRegistry()
	if len(reg.Extensions()) != 0 {
		t.Error("fresh registry not empty")
	}
	reg.Register(&startedOnly{})
	if len(reg.Extensions()) != 1 {
		t.Error("extension not listed")
	}
}
