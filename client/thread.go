package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plancraft/plancraft/api"
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/engine"
)

// StartRequest describes a new planning run.
type StartRequest = engine.RunRequest

// Answer is the reply to a pending interrupt.
type Answer struct {
	SelectedOption string            `json:"selected_option,omitempty"`
	TextInput      string            `json:"text_input,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// Thread is the server's view of a thread after any operation.
type Thread = api.ThreadResponse

// Start begins a planning run. The result either carries the finished
// plan or a pending interrupt to answer via Resume.
func (c *Client) Start(ctx context.Context, req StartRequest) (*Thread, error) {
	var out Thread
	if err := c.do(ctx, http.MethodPost, "/v1/threads", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resume answers a suspended thread's pending question.
func (c *Client) Resume(ctx context.Context, threadID string, ans Answer) (*Thread, error) {
	var out Thread
	path := fmt.Sprintf("/v1/threads/%s/resume", threadID)
	if err := c.do(ctx, http.MethodPost, path, ans, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns a thread's current position.
func (c *Client) Status(ctx context.Context, threadID string) (*Thread, error) {
	var out Thread
	if err := c.do(ctx, http.MethodGet, "/v1/threads/"+threadID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Threads lists thread records, optionally filtered by status.
func (c *Client) Threads(ctx context.Context, status string, limit int) ([]*checkpoint.Thread, error) {
	var out []*checkpoint.Thread
	if err := c.do(ctx, http.MethodGet, "/v1/threads"+listQuery(status, limit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Timeline returns a thread's checkpoints in sequence order.
func (c *Client) Timeline(ctx context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	var out []*checkpoint.Checkpoint
	path := fmt.Sprintf("/v1/threads/%s/timeline", threadID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rollback rewinds a thread to the checkpoint at seq and re-drives it.
func (c *Client) Rollback(ctx context.Context, threadID string, seq int) (*Thread, error) {
	var out Thread
	path := fmt.Sprintf("/v1/threads/%s/rollback", threadID)
	if err := c.do(ctx, http.MethodPost, path, api.RollbackRequest{Seq: seq}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
