// Package hooks defines the extension system for plancraft. Extensions
// are notified of thread lifecycle events (run started, step completed,
// interrupted, resumed, etc.) and can react to them: logging, metrics,
// auditing.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hooks

import (
	"context"
	"time"

	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// RunStarted is called when a planning run begins.
type RunStarted interface {
	OnRunStarted(ctx context.Context, t *checkpoint.Thread) error
}

// StepCompleted is called after a pipeline step completes.
type StepCompleted interface {
	OnStepCompleted(ctx context.Context, t *checkpoint.Thread, stepName string, elapsed time.Duration) error
}

// StepFailed is called when a pipeline step fails, survivably or not.
type StepFailed interface {
	OnStepFailed(ctx context.Context, t *checkpoint.Thread, stepName string, err error) error
}

// Interrupted is called when a run suspends for human input.
type Interrupted interface {
	OnInterrupted(ctx context.Context, t *checkpoint.Thread, env hitl.Envelope) error
}

// Resumed is called when a suspended run accepts an answer and resumes.
type Resumed interface {
	OnResumed(ctx context.Context, t *checkpoint.Thread, cmd hitl.ResumeCommand) error
}

// RunCompleted is called after a planning run finishes successfully.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, t *checkpoint.Thread, elapsed time.Duration) error
}

// RunFailed is called when a planning run fails terminally.
type RunFailed interface {
	OnRunFailed(ctx context.Context, t *checkpoint.Thread, err error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
