package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/plancraft/plancraft/checkpoint"
)

func (a *API) stats(ctx forge.Context) error {
	c := ctx.Context()

	var counts ThreadCounts
	for _, status := range []checkpoint.Status{
		checkpoint.StatusRunning, checkpoint.StatusInterrupted,
		checkpoint.StatusCompleted, checkpoint.StatusFailed,
	} {
		threads, err := a.eng.ListThreads(c, status, 0)
		if err != nil {
			return err
		}
		switch status {
		case checkpoint.StatusRunning:
			counts.Running = len(threads)
		case checkpoint.StatusInterrupted:
			counts.Interrupted = len(threads)
		case checkpoint.StatusCompleted:
			counts.Completed = len(threads)
		case checkpoint.StatusFailed:
			counts.Failed = len(threads)
		}
	}

	var archived int64
	if svc := a.eng.Archive(); svc != nil {
		n, err := svc.Store().Count(c)
		if err != nil {
			return err
		}
		archived = n
	}

	return ctx.JSON(http.StatusOK, StatsResponse{
		Threads:      counts,
		ArchiveCount: archived,
	})
}

func (a *API) health(ctx forge.Context) error {
	if err := a.eng.Ping(ctx.Context()); err != nil {
		return forge.InternalError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}
