package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
)

// LoggingExtension emits one structured log line per lifecycle event.
type LoggingExtension struct {
	logger *slog.Logger
}

// NewLoggingExtension creates the extension with the given logger.
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExtension{logger: logger}
}

func (l *LoggingExtension) Name() string { return "logging" }

func (l *LoggingExtension) OnRunStarted(_ context.Context, t *checkpoint.Thread) error {
	l.logger.Info("run started", slog.String("thread_id", t.ID.String()))
	return nil
}

func (l *LoggingExtension) OnStepCompleted(_ context.Context, t *checkpoint.Thread, stepName string, elapsed time.Duration) error {
	l.logger.Info("run step completed",
		slog.String("thread_id", t.ID.String()),
		slog.String("step", stepName),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

func (l *LoggingExtension) OnStepFailed(_ context.Context, t *checkpoint.Thread, stepName string, err error) error {
	l.logger.Warn("run step failed",
		slog.String("thread_id", t.ID.String()),
		slog.String("step", stepName),
		slog.String("error", err.Error()),
	)
	return nil
}

func (l *LoggingExtension) OnInterrupted(_ context.Context, t *checkpoint.Thread, env hitl.Envelope) error {
	l.logger.Info("run interrupted",
		slog.String("thread_id", t.ID.String()),
		slog.String("node", env.NodeRef),
		slog.String("type", env.Type),
		slog.Int("retry_count", env.RetryCount),
	)
	return nil
}

func (l *LoggingExtension) OnResumed(_ context.Context, t *checkpoint.Thread, _ hitl.ResumeCommand) error {
	l.logger.Info("run resumed", slog.String("thread_id", t.ID.String()))
	return nil
}

func (l *LoggingExtension) OnRunCompleted(_ context.Context, t *checkpoint.Thread, elapsed time.Duration) error {
	l.logger.Info("run completed",
		slog.String("thread_id", t.ID.String()),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

func (l *LoggingExtension) OnRunFailed(_ context.Context, t *checkpoint.Thread, err error) error {
	l.logger.Error("run failed",
		slog.String("thread_id", t.ID.String()),
		slog.String("error", err.Error()),
	)
	return nil
}
