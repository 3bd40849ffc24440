package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/plancraft/plancraft/archive"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/engine"
)

// API wires the Forge-style HTTP handlers for the planning service.
type API struct {
	eng    *engine.Engine
	router forge.Router
}

// New creates an API from an Engine.
func New(eng *engine.Engine, router forge.Router) *API {
	return &API{eng: eng, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router
// with full OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	a.registerThreadRoutes(router)
	a.registerArchiveRoutes(router)
	a.registerStatsRoutes(router)
}

// registerThreadRoutes registers planning thread routes.
func (a *API) registerThreadRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("threads"))

	_ = g.POST("/threads", a.startThread,
		forge.WithSummary("Start planning thread"),
		forge.WithDescription("Starts a planning run; returns the completed plan or a pending interrupt."),
		forge.WithOperationID("startThread"),
		forge.WithRequestSchema(engine.RunRequest{}),
		forge.WithCreatedResponse(ThreadResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/threads", a.listThreads,
		forge.WithSummary("List threads"),
		forge.WithDescription("Returns thread records filtered by status."),
		forge.WithOperationID("listThreads"),
		forge.WithRequestSchema(ListThreadsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Thread list", []*checkpoint.Thread{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/threads/:threadId", a.getThread,
		forge.WithSummary("Get thread"),
		forge.WithDescription("Returns a thread's current position, including the pending interrupt when suspended."),
		forge.WithOperationID("getThread"),
		forge.WithResponseSchema(http.StatusOK, "Thread status", ThreadResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/threads/:threadId/resume", a.resumeThread,
		forge.WithSummary("Resume thread"),
		forge.WithDescription("Answers a pending interrupt and drives the run forward."),
		forge.WithOperationID("resumeThread"),
		forge.WithRequestSchema(ResumeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Thread status after resume", ThreadResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/threads/:threadId/timeline", a.threadTimeline,
		forge.WithSummary("Thread timeline"),
		forge.WithDescription("Returns a thread's checkpoints in sequence order."),
		forge.WithOperationID("threadTimeline"),
		forge.WithResponseSchema(http.StatusOK, "Checkpoint timeline", []*checkpoint.Checkpoint{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/threads/:threadId/rollback", a.rollbackThread,
		forge.WithSummary("Rollback thread"),
		forge.WithDescription("Rewinds a thread to an earlier checkpoint and re-drives the run from there."),
		forge.WithOperationID("rollbackThread"),
		forge.WithRequestSchema(RollbackRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Thread status after rollback", ThreadResponse{}),
		forge.WithErrorResponses(),
	)
}

// registerArchiveRoutes registers run archive routes.
func (a *API) registerArchiveRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("archive"))

	_ = g.GET("/archive", a.listArchive,
		forge.WithSummary("List archived runs"),
		forge.WithDescription("Returns archived terminal runs, newest first."),
		forge.WithOperationID("listArchive"),
		forge.WithRequestSchema(ListArchiveRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Archive entries", []*archive.Entry{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/archive/:entryId", a.getArchive,
		forge.WithSummary("Get archived run"),
		forge.WithDescription("Returns details of a specific archived run."),
		forge.WithOperationID("getArchive"),
		forge.WithResponseSchema(http.StatusOK, "Archive entry details", &archive.Entry{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/archive/:entryId/replay", a.replayArchive,
		forge.WithSummary("Replay archived run"),
		forge.WithDescription("Starts a fresh thread from an archived run's original input."),
		forge.WithOperationID("replayArchive"),
		forge.WithCreatedResponse(ThreadResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/archive/purge", a.purgeArchive,
		forge.WithSummary("Purge archive"),
		forge.WithDescription("Removes old archive entries."),
		forge.WithOperationID("purgeArchive"),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeArchiveResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/archive/count", a.archiveCount,
		forge.WithSummary("Archive count"),
		forge.WithDescription("Returns the total number of archived runs."),
		forge.WithOperationID("archiveCount"),
		forge.WithResponseSchema(http.StatusOK, "Archive count", ArchiveCountResponse{}),
		forge.WithErrorResponses(),
	)
}

// registerStatsRoutes registers aggregate statistics routes.
func (a *API) registerStatsRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("stats"))

	_ = g.GET("/stats", a.stats,
		forge.WithSummary("Planning stats"),
		forge.WithDescription("Returns aggregate statistics for threads and the archive."),
		forge.WithOperationID("planningStats"),
		forge.WithResponseSchema(http.StatusOK, "Planning statistics", StatsResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/healthz", a.health,
		forge.WithSummary("Health check"),
		forge.WithDescription("Checks checkpoint store connectivity."),
		forge.WithOperationID("healthz"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}
