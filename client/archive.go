package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plancraft/plancraft/api"
	"github.com/plancraft/plancraft/archive"
)

// ArchivedRuns lists archived terminal runs, newest first.
func (c *Client) ArchivedRuns(ctx context.Context, status string, limit int) ([]*archive.Entry, error) {
	var out []*archive.Entry
	if err := c.do(ctx, http.MethodGet, "/v1/archive"+listQuery(status, limit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ArchivedRun returns one archived run by entry id.
func (c *Client) ArchivedRun(ctx context.Context, entryID string) (*archive.Entry, error) {
	var out archive.Entry
	if err := c.do(ctx, http.MethodGet, "/v1/archive/"+entryID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplayArchived starts a fresh thread from an archived run's input.
func (c *Client) ReplayArchived(ctx context.Context, entryID string) (*Thread, error) {
	var out Thread
	path := fmt.Sprintf("/v1/archive/%s/replay", entryID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns aggregate service statistics.
func (c *Client) Stats(ctx context.Context) (*api.StatsResponse, error) {
	var out api.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
