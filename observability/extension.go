package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/hooks"
)

// meterName is the instrumentation scope for lifecycle metrics.
const meterName = "github.com/plancraft/plancraft/observability"

// Compile-time interface checks.
var (
	_ hooks.Extension    = (*MetricsExtension)(nil)
	_ hooks.RunStarted   = (*MetricsExtension)(nil)
	_ hooks.RunCompleted = (*MetricsExtension)(nil)
	_ hooks.RunFailed    = (*MetricsExtension)(nil)
	_ hooks.Interrupted  = (*MetricsExtension)(nil)
	_ hooks.Resumed      = (*MetricsExtension)(nil)
	_ hooks.StepFailed   = (*MetricsExtension)(nil)
)

// MetricsExtension records thread lifecycle metrics. Register it on the
// engine to automatically track run rates, terminal outcomes, run
// duration, interrupt raise/answer counts, and step failures by
// category.
type MetricsExtension struct {
	runsStarted   metric.Int64Counter
	runsCompleted metric.Int64Counter
	runsFailed    metric.Int64Counter
	runDuration   metric.Float64Histogram
	interrupts    metric.Int64Counter
	resumes       metric.Int64Counter
	stepFailures  metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. Without a configured provider the instruments are
// noops and the extension is free.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific
// MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Instrument creation errors leave noop instruments behind, so the
	// extension degrades gracefully.
	m := &MetricsExtension{}
	m.runsStarted, _ = meter.Int64Counter(
		"plancraft.run.started",
		metric.WithDescription("Planning runs started"),
	)
	m.runsCompleted, _ = meter.Int64Counter(
		"plancraft.run.completed",
		metric.WithDescription("Planning runs completed successfully"),
	)
	m.runsFailed, _ = meter.Int64Counter(
		"plancraft.run.failed",
		metric.WithDescription("Planning runs failed terminally"),
	)
	m.runDuration, _ = meter.Float64Histogram(
		"plancraft.run.duration",
		metric.WithDescription("End-to-end run duration in seconds"),
		metric.WithUnit("s"),
	)
	m.interrupts, _ = meter.Int64Counter(
		"plancraft.interrupt.raised",
		metric.WithDescription("Human-input interrupts raised"),
	)
	m.resumes, _ = meter.Int64Counter(
		"plancraft.interrupt.answered",
		metric.WithDescription("Human-input interrupts answered"),
	)
	m.stepFailures, _ = meter.Int64Counter(
		"plancraft.step.failures",
		metric.WithDescription("Pipeline step failures"),
	)
	return m
}

// Name implements hooks.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnRunStarted implements hooks.RunStarted.
func (m *MetricsExtension) OnRunStarted(ctx context.Context, _ *checkpoint.Thread) error {
	m.runsStarted.Add(ctx, 1)
	return nil
}

// OnRunCompleted implements hooks.RunCompleted.
func (m *MetricsExtension) OnRunCompleted(ctx context.Context, _ *checkpoint.Thread, elapsed time.Duration) error {
	m.runsCompleted.Add(ctx, 1)
	m.runDuration.Record(ctx, elapsed.Seconds())
	return nil
}

// OnRunFailed implements hooks.RunFailed.
func (m *MetricsExtension) OnRunFailed(ctx context.Context, t *checkpoint.Thread, _ error) error {
	m.runsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", t.Category),
	))
	return nil
}

// OnInterrupted implements hooks.Interrupted.
func (m *MetricsExtension) OnInterrupted(ctx context.Context, _ *checkpoint.Thread, env hitl.Envelope) error {
	m.interrupts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", env.Type),
		attribute.Int("retry", env.RetryCount),
	))
	return nil
}

// OnResumed implements hooks.Resumed.
func (m *MetricsExtension) OnResumed(ctx context.Context, _ *checkpoint.Thread, _ hitl.ResumeCommand) error {
	m.resumes.Add(ctx, 1)
	return nil
}

// OnStepFailed implements hooks.StepFailed.
func (m *MetricsExtension) OnStepFailed(ctx context.Context, _ *checkpoint.Thread, stepName string, _ error) error {
	m.stepFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", stepName),
	))
	return nil
}
