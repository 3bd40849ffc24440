// Package agent implements the planning pipeline steps: context
// gathering, analysis, structuring, writing, review, refinement, and
// formatting. Every step consumes an immutable state snapshot and
// returns a new one; the Runner wraps execution with validation, the
// middleware chain, failure classification, and the audit trail.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/middleware"
	"github.com/plancraft/plancraft/state"
)

// Step is one unit of pipeline work.
type Step interface {
	// Name is the stable step identifier used in history and routing.
	Name() string

	// Requires lists the state fields that must be present before Run
	// is called. Missing fields fail the step without any external call.
	Requires() []string

	// Run derives the next state from the current one. Implementations
	// must not mutate st.
	Run(ctx context.Context, st state.State) (state.State, error)
}

// Degrader is implemented by steps that can produce a usable state when
// their model call fails with a survivable error. The degraded state
// keeps the pipeline moving instead of failing the run.
type Degrader interface {
	Degrade(st state.State) state.State
}

// Summarizer lets a step describe its outcome for the audit trail.
type Summarizer interface {
	Summary(next state.State) string
}

// Runner executes steps uniformly: required-field validation, the
// middleware chain, exactly one history record per execution, and
// survivable-failure degradation.
type Runner struct {
	logger  *slog.Logger
	chain   middleware.Middleware
	timeout time.Duration
}

// NewRunner builds a Runner. The middleware list is composed outermost
// first; a zero timeout disables the per-step deadline.
func NewRunner(logger *slog.Logger, timeout time.Duration, mws ...middleware.Middleware) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, chain: middleware.Chain(mws...), timeout: timeout}
}

// Exec runs one step against the state. The returned state always
// carries exactly one new history record for this execution. A nil
// error means the pipeline can continue, possibly on a degraded state;
// a non-nil error means the failure is fatal for the run and the
// returned state carries the classified error annotation.
func (r *Runner) Exec(ctx context.Context, threadID string, step Step, st state.State) (state.State, error) {
	now := func() time.Time { return time.Now().UTC() }

	if err := st.RequireFields(step.Requires()...); err != nil {
		err = fmt.Errorf("step %s: %w", step.Name(), err)
		rec := state.StepRecord{
			Step:      step.Name(),
			Status:    state.StatusFailed,
			Error:     err.Error(),
			Category:  string(plancraft.CategoryValidation),
			Timestamp: now(),
		}
		return st.Apply(
			state.WithError(err.Error(), string(plancraft.CategoryValidation)),
			state.WithHistory(rec),
		), err
	}

	info := middleware.StepInfo{
		ThreadID: threadID,
		Step:     step.Name(),
		Timeout:  int64(r.timeout),
	}

	var next state.State
	runErr := r.chain(ctx, info, func(ctx context.Context) error {
		var err error
		next, err = step.Run(ctx, st)
		return err
	})

	if runErr == nil {
		rec := state.StepRecord{
			Step:      step.Name(),
			Status:    state.StatusSuccess,
			Timestamp: now(),
		}
		if sum, ok := step.(Summarizer); ok {
			rec.Summary = sum.Summary(next)
		}
		return next.Apply(state.ClearError(), state.WithHistory(rec)), nil
	}

	cat := plancraft.Classify(runErr)
	rec := state.StepRecord{
		Step:      step.Name(),
		Status:    state.StatusFailed,
		Error:     runErr.Error(),
		Category:  string(cat),
		Timestamp: now(),
	}

	if !cat.Fatal() {
		if d, ok := step.(Degrader); ok {
			r.logger.Warn("step degraded",
				slog.String("step", step.Name()),
				slog.String("thread_id", threadID),
				slog.String("category", string(cat)),
				slog.String("error", runErr.Error()),
			)
			degraded := d.Degrade(st)
			return degraded.Apply(
				state.WithError(runErr.Error(), string(cat)),
				state.WithHistory(rec),
			), nil
		}
	}

	return st.Apply(
		state.WithError(runErr.Error(), string(cat)),
		state.WithHistory(rec),
	), fmt.Errorf("step %s: %w", step.Name(), runErr)
}
