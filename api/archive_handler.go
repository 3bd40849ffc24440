package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/plancraft/plancraft/archive"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/id"
)

func (a *API) archiveService() (*archive.Service, error) {
	svc := a.eng.Archive()
	if svc == nil {
		return nil, forge.InternalError(fmt.Errorf("no archive configured"))
	}
	return svc, nil
}

func (a *API) listArchive(ctx forge.Context, req *ListArchiveRequest) ([]*archive.Entry, error) {
	svc, err := a.archiveService()
	if err != nil {
		return nil, err
	}

	entries, err := svc.Store().List(ctx.Context(), archive.ListOpts{
		Limit:  defaultLimit(req.Limit),
		Status: checkpoint.Status(req.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}

	return entries, ctx.JSON(http.StatusOK, entries)
}

func (a *API) getArchive(ctx forge.Context, _ *GetArchiveRequest) (*archive.Entry, error) {
	svc, err := a.archiveService()
	if err != nil {
		return nil, err
	}

	entryID, err := id.ParseArchiveID(ctx.Param("entryId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid archive entry ID: %v", err))
	}

	entry, err := svc.Store().Get(ctx.Context(), entryID)
	if err != nil {
		return nil, mapEngineError(err)
	}

	return entry, ctx.JSON(http.StatusOK, entry)
}

func (a *API) replayArchive(ctx forge.Context, _ *ReplayArchiveRequest) (*ThreadResponse, error) {
	res, err := a.eng.Replay(ctx.Context(), ctx.Param("entryId"))
	if err != nil {
		return nil, mapEngineError(err)
	}

	resp := threadResponse(res)
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) purgeArchive(ctx forge.Context) error {
	svc, err := a.archiveService()
	if err != nil {
		return err
	}

	// Purge entries older than 30 days.
	before := time.Now().UTC().Add(-30 * 24 * time.Hour)

	count, err := svc.Store().Purge(ctx.Context(), before)
	if err != nil {
		return fmt.Errorf("purge archive: %w", err)
	}

	return ctx.JSON(http.StatusOK, PurgeArchiveResponse{Purged: count})
}

func (a *API) archiveCount(ctx forge.Context) error {
	svc, err := a.archiveService()
	if err != nil {
		return err
	}

	count, err := svc.Store().Count(ctx.Context())
	if err != nil {
		return fmt.Errorf("count archive: %w", err)
	}

	return ctx.JSON(http.StatusOK, ArchiveCountResponse{Count: count})
}
