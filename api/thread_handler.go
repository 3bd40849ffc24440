package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/plancraft/plancraft"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/engine"
	"github.com/plancraft/plancraft/hitl"
)

func (a *API) startThread(ctx forge.Context, req *engine.RunRequest) (*ThreadResponse, error) {
	res, err := a.eng.Run(ctx.Context(), *req)
	if err != nil {
		return nil, mapEngineError(err)
	}

	resp := threadResponse(res)
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) listThreads(ctx forge.Context, req *ListThreadsRequest) ([]*checkpoint.Thread, error) {
	threads, err := a.eng.ListThreads(ctx.Context(), checkpoint.Status(req.Status), defaultLimit(req.Limit))
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	return threads, ctx.JSON(http.StatusOK, threads)
}

func (a *API) getThread(ctx forge.Context, _ *GetThreadRequest) (*ThreadResponse, error) {
	res, err := a.eng.Status(ctx.Context(), ctx.Param("threadId"))
	if err != nil {
		return nil, mapEngineError(err)
	}

	resp := threadResponse(res)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) resumeThread(ctx forge.Context, req *ResumeRequest) (*ThreadResponse, error) {
	res, err := a.eng.Resume(ctx.Context(), ctx.Param("threadId"), hitl.ResumeCommand{
		SelectedOption: req.SelectedOption,
		TextInput:      req.TextInput,
		Fields:         req.Fields,
	})
	if err != nil {
		return nil, mapEngineError(err)
	}

	resp := threadResponse(res)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) threadTimeline(ctx forge.Context, _ *GetThreadRequest) ([]*checkpoint.Checkpoint, error) {
	cps, err := a.eng.Timeline(ctx.Context(), ctx.Param("threadId"))
	if err != nil {
		return nil, mapEngineError(err)
	}

	return cps, ctx.JSON(http.StatusOK, cps)
}

func (a *API) rollbackThread(ctx forge.Context, req *RollbackRequest) (*ThreadResponse, error) {
	res, err := a.eng.Rollback(ctx.Context(), ctx.Param("threadId"), req.Seq)
	if err != nil {
		return nil, mapEngineError(err)
	}

	resp := threadResponse(res)
	return resp, ctx.JSON(http.StatusOK, resp)
}

// mapEngineError converts plancraft sentinel errors to forge HTTP errors.
func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, plancraft.ErrInvalidInput) ||
		errors.Is(err, plancraft.ErrThreadExists) ||
		errors.Is(err, plancraft.ErrThreadNotResumable) ||
		errors.Is(err, plancraft.ErrNoPendingInterrupt) ||
		errors.Is(err, plancraft.ErrInterruptMismatch) {
		return forge.BadRequest(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, plancraft.ErrThreadNotFound) ||
		errors.Is(err, plancraft.ErrCheckpointNotFound) ||
		errors.Is(err, plancraft.ErrArchiveNotFound)
}
