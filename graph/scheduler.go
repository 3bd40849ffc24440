package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/agent"
	"github.com/plancraft/plancraft/archive"
	"github.com/plancraft/plancraft/artifact"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/hooks"
	"github.com/plancraft/plancraft/id"
	"github.com/plancraft/plancraft/state"
)

// Result is the outcome of driving a thread. Exactly one of the terminal
// conditions holds: Interrupt is non-nil when the run suspended for human
// input, otherwise Thread.Status tells whether it completed or failed.
type Result struct {
	Thread    *checkpoint.Thread
	State     state.State
	Interrupt *hitl.Envelope
}

// Scheduler sequences pipeline steps over a checkpoint store. Every node
// transition is durably checkpointed before the next step runs, so a
// crashed or suspended run resumes from its last recorded position.
type Scheduler struct {
	store     checkpoint.Store
	runner    *agent.Runner
	steps     map[string]agent.Step
	hooks     *hooks.Registry
	archives  *archive.Service
	artifacts *artifact.Store
	cfg       plancraft.Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig overrides the default tunables.
func WithConfig(cfg plancraft.Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithHooks attaches an extension registry notified of lifecycle events.
func WithHooks(r *hooks.Registry) Option {
	return func(s *Scheduler) { s.hooks = r }
}

// WithArchive attaches an archive that receives every terminal thread.
func WithArchive(a *archive.Service) Option {
	return func(s *Scheduler) { s.archives = a }
}

// WithArtifacts attaches a store that persists final plan documents.
func WithArtifacts(a *artifact.Store) Option {
	return func(s *Scheduler) { s.artifacts = a }
}

// NewScheduler builds a Scheduler over the given store, runner, and step
// set. The step map is keyed by node name; control nodes (option_pause,
// complete) need no entry.
func NewScheduler(store checkpoint.Store, runner *agent.Runner, steps map[string]agent.Step, opts ...Option) (*Scheduler, error) {
	if store == nil {
		return nil, plancraft.ErrNoStore
	}
	if runner == nil {
		return nil, errors.New("plancraft: runner is required")
	}
	s := &Scheduler{
		store:  store,
		runner: runner,
		steps:  steps,
		cfg:    plancraft.DefaultConfig(),
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run starts a new thread from the initial state and drives it until it
// completes, fails, or suspends for human input. The thread id must be
// fresh; starting an existing thread returns ErrThreadExists.
func (s *Scheduler) Run(ctx context.Context, threadID id.ThreadID, initial state.State) (*Result, error) {
	now := s.now()
	th := &checkpoint.Thread{
		ID:        threadID,
		Status:    checkpoint.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateThread(ctx, th); err != nil {
		return nil, err
	}

	cp := &checkpoint.Checkpoint{
		ID:        id.NewCheckpointID(),
		ThreadID:  threadID,
		Seq:       0,
		NextNode:  EntryNode,
		State:     initial,
		CreatedAt: now,
	}
	if err := s.store.SaveCheckpoint(ctx, cp); err != nil {
		return nil, err
	}

	if s.hooks != nil {
		s.hooks.EmitRunStarted(ctx, th)
	}
	return s.drive(ctx, th, cp)
}

// Resume answers the pending interrupt of a suspended thread and drives
// it forward. An invalid answer re-issues the envelope with the error
// annotated and an incremented retry count; once retries are exhausted
// the run auto-continues without the answer.
func (s *Scheduler) Resume(ctx context.Context, threadID id.ThreadID, cmd hitl.ResumeCommand) (*Result, error) {
	th, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if th.Status != checkpoint.StatusInterrupted {
		return nil, fmt.Errorf("%w: thread is %s", plancraft.ErrThreadNotResumable, th.Status)
	}
	pi, err := s.store.GetPendingInterrupt(ctx, threadID)
	if err != nil {
		return nil, err
	}
	cp, err := s.store.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}

	env := pi.Envelope
	if vErr := hitl.Validate(env, cmd, s.cfg.MaxUserInputLen); vErr != nil {
		retry := env.RetryCount + 1
		if retry < s.cfg.HITLMaxRetries {
			return s.reissue(ctx, th, env, retry, vErr.Error())
		}
		return s.autoContinue(ctx, th, cp, env)
	}

	st := hitl.Apply(cp.State, env, cmd, s.now())
	if s.hooks != nil {
		s.hooks.EmitResumed(ctx, th, cmd)
	}
	if err := s.store.ClearPendingInterrupt(ctx, threadID); err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, th, checkpoint.StatusRunning, "", ""); err != nil {
		return nil, err
	}

	// A custom-input selection immediately raises the free-text
	// follow-up; a real answer goes back through analysis.
	next := NodeAnalyze
	if st.PendingFreeText {
		next = NodeOptionPause
	}
	cp, err = s.checkpointAfter(ctx, cp, next, st)
	if err != nil {
		return nil, err
	}
	return s.drive(ctx, th, cp)
}

// Continue drives a non-terminal thread forward from the head of its
// checkpoint timeline. Used after a crash or a rollback: an interrupted
// thread re-enters its suspension and surfaces the persisted envelope
// again, a running one picks up at its next node.
func (s *Scheduler) Continue(ctx context.Context, threadID id.ThreadID) (*Result, error) {
	th, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if th.Status.Terminal() {
		return nil, fmt.Errorf("%w: thread is %s", plancraft.ErrThreadNotResumable, th.Status)
	}
	cp, err := s.store.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return s.drive(ctx, th, cp)
}

// Status reports a thread's current position: its record, the state at
// the head of its timeline, and the pending envelope if it is suspended.
// The envelope is returned verbatim as persisted.
func (s *Scheduler) Status(ctx context.Context, threadID id.ThreadID) (*Result, error) {
	th, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	res := &Result{Thread: th}
	cp, err := s.store.LatestCheckpoint(ctx, threadID)
	if err == nil {
		res.State = cp.State
	} else if !errors.Is(err, plancraft.ErrCheckpointNotFound) {
		return nil, err
	}
	if th.Status == checkpoint.StatusInterrupted {
		pi, err := s.store.GetPendingInterrupt(ctx, threadID)
		if err != nil {
			return nil, err
		}
		res.Interrupt = &pi.Envelope
	}
	return res, nil
}

// drive advances the thread from the given checkpoint until a terminal
// node, a suspension, or a fatal error.
func (s *Scheduler) drive(ctx context.Context, th *checkpoint.Thread, cp *checkpoint.Checkpoint) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, st := cp.NextNode, cp.State

		if cp.Seq >= s.cfg.MaxNodeVisits {
			err := fmt.Errorf("%w: %d node visits", plancraft.ErrIterationCeiling, cp.Seq)
			return s.fail(ctx, th, st, err, plancraft.CategoryState)
		}

		switch node {
		case NodeComplete:
			return s.complete(ctx, th, st)
		case NodeOptionPause:
			return s.suspend(ctx, th, st)
		}

		step, ok := s.steps[node]
		if !ok {
			err := fmt.Errorf("plancraft: no step registered for node %q", node)
			return s.fail(ctx, th, st, err, plancraft.CategoryState)
		}

		started := s.now()
		next, err := s.runner.Exec(ctx, th.ID.String(), step, st)
		if err != nil {
			if s.hooks != nil {
				s.hooks.EmitStepFailed(ctx, th, node, err)
			}
			cat := plancraft.Classify(err)
			// Persist the annotated state before failing so the
			// timeline shows what the step saw.
			if _, cpErr := s.checkpointAfter(ctx, cp, node, next); cpErr != nil {
				s.logger.Error("checkpoint after fatal step failed",
					slog.String("thread_id", th.ID.String()),
					slog.String("error", cpErr.Error()),
				)
			}
			return s.fail(ctx, th, next, err, cat)
		}
		if s.hooks != nil {
			s.hooks.EmitStepCompleted(ctx, th, node, s.now().Sub(started))
		}

		nextNode := Route(node, next, s.cfg.MaxRefineLoops)
		cp, err = s.checkpointAfter(ctx, cp, nextNode, next)
		if err != nil {
			return nil, err
		}
	}
}

// suspend raises the interrupt described by the state, or returns the
// already-persisted envelope verbatim when the suspension was recorded
// by an earlier attempt.
func (s *Scheduler) suspend(ctx context.Context, th *checkpoint.Thread, st state.State) (*Result, error) {
	if pi, err := s.store.GetPendingInterrupt(ctx, th.ID); err == nil {
		return &Result{Thread: th, State: st, Interrupt: &pi.Envelope}, nil
	} else if !errors.Is(err, plancraft.ErrNoPendingInterrupt) {
		return nil, err
	}

	env := hitl.Build(th.ID.String(), NodeOptionPause, interruptRequest(st), st.HITLRetries, "")
	return s.persistInterrupt(ctx, th, st, env)
}

// reissue re-raises the current interrupt with the validation error
// annotated and the retry count advanced. The thread stays interrupted.
func (s *Scheduler) reissue(ctx context.Context, th *checkpoint.Thread, env hitl.Envelope, retry int, vErr string) (*Result, error) {
	req := hitl.Request{
		Type:            env.Type,
		Question:        env.Question,
		Options:         env.Options,
		AllowCustom:     env.AllowCustom,
		InputSchemaName: env.InputSchemaName,
		InterruptID:     env.InterruptID,
	}
	next := hitl.Build(th.ID.String(), env.NodeRef, req, retry, vErr)

	cp, err := s.store.LatestCheckpoint(ctx, th.ID)
	if err != nil {
		return nil, err
	}
	return s.persistInterrupt(ctx, th, cp.State, next)
}

// persistInterrupt stamps the envelope, durably records it, marks the
// thread interrupted, and surfaces the envelope.
func (s *Scheduler) persistInterrupt(ctx context.Context, th *checkpoint.Thread, st state.State, env hitl.Envelope) (*Result, error) {
	stamped := env.Stamp(s.now())
	pi := &checkpoint.PendingInterrupt{
		ID:        id.NewInterruptID(),
		ThreadID:  th.ID,
		Envelope:  stamped,
		CreatedAt: stamped.Timestamp,
	}
	if err := s.store.SavePendingInterrupt(ctx, pi); err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, th, checkpoint.StatusInterrupted, "", ""); err != nil {
		return nil, err
	}
	if s.hooks != nil {
		s.hooks.EmitInterrupted(ctx, th, stamped)
	}
	return &Result{Thread: th, State: st, Interrupt: &stamped}, nil
}

// autoContinue resolves a retry-exhausted interrupt without an answer
// and drives the run forward from analysis.
func (s *Scheduler) autoContinue(ctx context.Context, th *checkpoint.Thread, cp *checkpoint.Checkpoint, env hitl.Envelope) (*Result, error) {
	s.logger.Warn("resume retries exhausted, auto-continuing",
		slog.String("thread_id", th.ID.String()),
		slog.String("interrupt_id", env.InterruptID),
	)
	st := hitl.AutoContinue(cp.State, env, s.now())
	if err := s.store.ClearPendingInterrupt(ctx, th.ID); err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, th, checkpoint.StatusRunning, "", ""); err != nil {
		return nil, err
	}
	cp, err := s.checkpointAfter(ctx, cp, NodeAnalyze, st)
	if err != nil {
		return nil, err
	}
	return s.drive(ctx, th, cp)
}

// complete finalizes a successful run: the thread is marked completed,
// the plan document is written to the artifact store, and the terminal
// thread is archived.
func (s *Scheduler) complete(ctx context.Context, th *checkpoint.Thread, st state.State) (*Result, error) {
	if err := s.setStatus(ctx, th, checkpoint.StatusCompleted, "", ""); err != nil {
		return nil, err
	}
	if s.artifacts != nil && st.FinalOutput != "" {
		if _, err := s.artifacts.Save(th.ID, st.FinalOutput); err != nil {
			s.logger.Warn("artifact save failed",
				slog.String("thread_id", th.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	s.archiveTerminal(ctx, th, st)
	if s.hooks != nil {
		s.hooks.EmitRunCompleted(ctx, th, s.now().Sub(st.StartedAt))
	}
	return &Result{Thread: th, State: st}, nil
}

// fail marks the thread failed with the classified error and archives it.
func (s *Scheduler) fail(ctx context.Context, th *checkpoint.Thread, st state.State, runErr error, cat plancraft.Category) (*Result, error) {
	if err := s.setStatus(ctx, th, checkpoint.StatusFailed, runErr.Error(), string(cat)); err != nil {
		return nil, errors.Join(runErr, err)
	}
	s.archiveTerminal(ctx, th, st)
	if s.hooks != nil {
		s.hooks.EmitRunFailed(ctx, th, runErr)
	}
	return &Result{Thread: th, State: st}, runErr
}

func (s *Scheduler) archiveTerminal(ctx context.Context, th *checkpoint.Thread, st state.State) {
	if s.archives == nil {
		return
	}
	if err := s.archives.Archive(ctx, th, st); err != nil {
		s.logger.Warn("archive failed",
			slog.String("thread_id", th.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Scheduler) setStatus(ctx context.Context, th *checkpoint.Thread, status checkpoint.Status, errStr, cat string) error {
	th.Status = status
	th.Error = errStr
	th.Category = cat
	th.UpdatedAt = s.now()
	return s.store.UpdateThread(ctx, th)
}

// checkpointAfter records the next position on the thread timeline.
func (s *Scheduler) checkpointAfter(ctx context.Context, prev *checkpoint.Checkpoint, nextNode string, st state.State) (*checkpoint.Checkpoint, error) {
	cp := &checkpoint.Checkpoint{
		ID:        id.NewCheckpointID(),
		ThreadID:  prev.ThreadID,
		Seq:       prev.Seq + 1,
		NextNode:  nextNode,
		State:     st,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveCheckpoint(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// interruptRequest derives the interrupt to raise from the state: a
// free-text follow-up when one is pending, otherwise the analyzer's
// clarification options surfaced as-is with custom input allowed.
func interruptRequest(st state.State) hitl.Request {
	if st.PendingFreeText {
		return hitl.Request{
			Type:        hitl.TypeTextInput,
			Question:    "원하시는 방향을 직접 입력해 주세요.",
			InterruptID: InterruptFreeText,
		}
	}
	question := st.OptionQuestion
	if question == "" {
		question = "어떤 방향으로 기획을 진행할까요?"
	}
	return hitl.Request{
		Type:        hitl.TypeOptionSelection,
		Question:    question,
		Options:     st.Options,
		AllowCustom: true,
		InterruptID: InterruptClarify,
	}
}
