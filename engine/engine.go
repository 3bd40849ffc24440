// Package engine wires the planning subsystems together: the model
// client, search backends, pipeline steps, middleware chain, scheduler,
// hooks, archive, and artifact store. It is the single entry point an
// application embeds; the subsystem packages never import each other's
// wiring.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel/metric"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/agent"
	"github.com/plancraft/plancraft/archive"
	"github.com/plancraft/plancraft/artifact"
	"github.com/plancraft/plancraft/backoff"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/graph"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/hooks"
	"github.com/plancraft/plancraft/id"
	"github.com/plancraft/plancraft/llm"
	mw "github.com/plancraft/plancraft/middleware"
	"github.com/plancraft/plancraft/search"
	"github.com/plancraft/plancraft/state"
)

// llmRetryAttempts bounds rate-limit retries around every model call.
const llmRetryAttempts = 3

// Engine is the assembled planning service.
type Engine struct {
	store     checkpoint.Store
	llmClient llm.Client
	rag       search.Client
	web       search.Client
	logger    *slog.Logger
	cfg       plancraft.Config
	hooks     *hooks.Registry
	archives  *archive.Service
	artifacts *artifact.Store
	bo        backoff.Strategy
	mws       []mw.Middleware
	meter     metric.MeterProvider

	scheduler *graph.Scheduler
	locks     threadLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the checkpoint store. Required.
func WithStore(s checkpoint.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLLM sets the model client. Required.
func WithLLM(c llm.Client) Option {
	return func(e *Engine) { e.llmClient = c }
}

// WithRAG sets the internal document search backend.
func WithRAG(c search.Client) Option {
	return func(e *Engine) { e.rag = c }
}

// WithWebSearch sets the web search backend. Results are memoized per
// query for the life of the engine.
func WithWebSearch(c search.Client) Option {
	return func(e *Engine) { e.web = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig overrides the default tunables.
func WithConfig(cfg plancraft.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithExtension registers a lifecycle extension.
func WithExtension(ext hooks.Extension) Option {
	return func(e *Engine) { e.hooks.Register(ext) }
}

// WithArchive sets the store that receives terminal runs.
func WithArchive(s archive.Store) Option {
	return func(e *Engine) { e.archives = archive.NewService(s) }
}

// WithArtifacts sets the store that persists final plan documents.
func WithArtifacts(a *artifact.Store) Option {
	return func(e *Engine) { e.artifacts = a }
}

// WithBackoff sets the retry delay strategy for rate-limited model
// calls. Defaults to backoff.DefaultStrategy.
func WithBackoff(b backoff.Strategy) Option {
	return func(e *Engine) { e.bo = b }
}

// WithMiddleware appends middleware to the step execution chain, after
// the default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, m) }
}

// WithMeterProvider sets a custom OTel MeterProvider for step metrics.
// If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meter = mp }
}

// New assembles an Engine. A checkpoint store and a model client are
// required; everything else has a working default.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		cfg:    plancraft.DefaultConfig(),
	}
	e.hooks = hooks.NewRegistry(e.logger)
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		return nil, plancraft.ErrNoStore
	}
	if e.llmClient == nil {
		return nil, errors.New("plancraft: llm client is required")
	}
	if e.bo == nil {
		e.bo = backoff.DefaultStrategy()
	}

	client := llm.Client(llm.WithRetry(e.llmClient, e.bo, llmRetryAttempts))
	web := e.web
	if web != nil {
		web = search.NewCache(web)
	}

	var metricsMw mw.Middleware
	if e.meter != nil {
		metricsMw = mw.MetricsWithMeter(e.meter.Meter("github.com/plancraft/plancraft"))
	} else {
		metricsMw = mw.Metrics()
	}
	chain := []mw.Middleware{
		mw.Recover(e.logger),
		metricsMw,
		mw.Logging(e.logger),
		mw.Timeout(e.logger),
	}
	chain = append(chain, e.mws...)

	runner := agent.NewRunner(e.logger, e.cfg.StepTimeout, chain...)
	steps := map[string]agent.Step{
		graph.NodeContextGathering: &agent.ContextGathering{RAG: e.rag, Web: web, Logger: e.logger},
		graph.NodeAnalyze:          &agent.Analyzer{LLM: client},
		graph.NodeGeneralResponse:  &agent.GeneralResponse{LLM: client},
		graph.NodeStructure:        &agent.Structurer{LLM: client},
		graph.NodeWrite:            &agent.Writer{LLM: client},
		graph.NodeReview:           &agent.Reviewer{LLM: client},
		graph.NodeRefine:           &agent.Refiner{LLM: client},
		graph.NodeFormat:           &agent.Formatter{LLM: client, Logger: e.logger},
	}

	schedOpts := []graph.Option{
		graph.WithLogger(e.logger),
		graph.WithConfig(e.cfg),
		graph.WithHooks(e.hooks),
	}
	if e.archives != nil {
		schedOpts = append(schedOpts, graph.WithArchive(e.archives))
	}
	if e.artifacts != nil {
		schedOpts = append(schedOpts, graph.WithArtifacts(e.artifacts))
	}
	sched, err := graph.NewScheduler(e.store, runner, steps, schedOpts...)
	if err != nil {
		return nil, err
	}
	e.scheduler = sched
	return e, nil
}

// RunRequest describes a new planning run.
type RunRequest struct {
	// UserInput is the planning request. Required.
	UserInput string `json:"user_input"`

	// ThreadID optionally pins the run to a pre-allocated thread id.
	// It must be a thread TypeID ("thr_..."), e.g. one generated with
	// id.NewThreadID by a caller that needs the id before the run
	// starts. Empty means a fresh id is generated.
	ThreadID string `json:"thread_id,omitempty"`

	// FileContent is optional attached reference material.
	FileContent string `json:"file_content,omitempty"`

	// Preset selects the model tier: fast, balanced, or quality.
	Preset string `json:"preset,omitempty"`
}

func (e *Engine) validate(req RunRequest) error {
	input := req.UserInput
	if input == "" {
		return fmt.Errorf("%w: user_input is required", plancraft.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(input); n > e.cfg.MaxUserInputLen {
		return fmt.Errorf("%w: user_input is %d characters, limit %d", plancraft.ErrInvalidInput, n, e.cfg.MaxUserInputLen)
	}
	if n := utf8.RuneCountInString(req.FileContent); n > e.cfg.MaxFileContentLen {
		return fmt.Errorf("%w: file_content is %d characters, limit %d", plancraft.ErrInvalidInput, n, e.cfg.MaxFileContentLen)
	}
	if len(req.ThreadID) > e.cfg.MaxThreadIDLen {
		return fmt.Errorf("%w: thread_id exceeds %d bytes", plancraft.ErrInvalidInput, e.cfg.MaxThreadIDLen)
	}
	return nil
}

// Run starts a new planning thread and drives it until it completes,
// fails, or suspends for human input. Concurrent operations on the same
// thread are serialized.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*graph.Result, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	threadID := id.NewThreadID()
	if req.ThreadID != "" {
		parsed, err := id.ParseThreadID(req.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("%w: thread_id must be a thread id (thr_...): %v", plancraft.ErrInvalidInput, err)
		}
		threadID = parsed
	}

	initial := state.New(req.UserInput)
	initial.FileContent = req.FileContent
	initial.Preset = req.Preset

	unlock := e.locks.acquire(threadID.String())
	defer unlock()
	return e.scheduler.Run(ctx, threadID, initial)
}

// Resume answers the pending interrupt of a suspended thread.
func (e *Engine) Resume(ctx context.Context, threadID string, cmd hitl.ResumeCommand) (*graph.Result, error) {
	tid, err := id.ParseThreadID(threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plancraft.ErrInvalidInput, err)
	}
	unlock := e.locks.acquire(tid.String())
	defer unlock()
	return e.scheduler.Resume(ctx, tid, cmd)
}

// Status reports a thread's current position, including the pending
// interrupt envelope when it is suspended.
func (e *Engine) Status(ctx context.Context, threadID string) (*graph.Result, error) {
	tid, err := id.ParseThreadID(threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plancraft.ErrInvalidInput, err)
	}
	return e.scheduler.Status(ctx, tid)
}

// Timeline returns a thread's checkpoints in sequence order.
func (e *Engine) Timeline(ctx context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	tid, err := id.ParseThreadID(threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plancraft.ErrInvalidInput, err)
	}
	return e.store.ListCheckpoints(ctx, tid)
}

// ListThreads returns thread records, optionally filtered by status.
func (e *Engine) ListThreads(ctx context.Context, status checkpoint.Status, limit int) ([]*checkpoint.Thread, error) {
	return e.store.ListThreads(ctx, status, limit)
}

// Rollback rewinds a thread to the checkpoint at seq, discards the
// later timeline, and re-drives the run from there. Any pending
// interrupt is dropped; if the rolled-back position suspends again the
// re-issued envelope is identical to the original.
func (e *Engine) Rollback(ctx context.Context, threadID string, seq int) (*graph.Result, error) {
	tid, err := id.ParseThreadID(threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plancraft.ErrInvalidInput, err)
	}
	unlock := e.locks.acquire(tid.String())
	defer unlock()

	th, err := e.store.GetThread(ctx, tid)
	if err != nil {
		return nil, err
	}
	if err := e.store.RollbackTo(ctx, tid, seq); err != nil {
		return nil, err
	}
	if err := e.store.ClearPendingInterrupt(ctx, tid); err != nil {
		return nil, err
	}
	th.Status = checkpoint.StatusRunning
	th.Error = ""
	th.Category = ""
	if err := e.store.UpdateThread(ctx, th); err != nil {
		return nil, err
	}
	return e.scheduler.Continue(ctx, tid)
}

// Replay starts a fresh thread from an archived terminal run, reusing
// its original input. The archive entry is marked replayed.
func (e *Engine) Replay(ctx context.Context, archiveID string) (*graph.Result, error) {
	if e.archives == nil {
		return nil, errors.New("plancraft: no archive configured")
	}
	aid, err := id.ParseArchiveID(archiveID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plancraft.ErrInvalidInput, err)
	}
	entry, err := e.archives.Replay(ctx, aid)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, RunRequest{
		UserInput:   entry.State.UserInput,
		FileContent: entry.State.FileContent,
		Preset:      entry.State.Preset,
	})
}

// Archive returns the archive service, or nil when none is configured.
func (e *Engine) Archive() *archive.Service { return e.archives }

// Hooks returns the extension registry.
func (e *Engine) Hooks() *hooks.Registry { return e.hooks }

// Config returns the engine's tunables.
func (e *Engine) Config() plancraft.Config { return e.cfg }

// Ping checks checkpoint store connectivity.
func (e *Engine) Ping(ctx context.Context) error { return e.store.Ping(ctx) }

// Shutdown notifies extensions and releases the checkpoint store.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.hooks.EmitShutdown(ctx)
	return e.store.Close()
}

// threadLocks serializes operations per thread id.
type threadLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *threadLocks) acquire(key string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	tm, ok := l.m[key]
	if !ok {
		tm = &sync.Mutex{}
		l.m[key] = tm
	}
	l.mu.Unlock()

	tm.Lock()
	return tm.Unlock
}
