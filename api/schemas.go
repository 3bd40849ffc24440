// Package api provides HTTP handlers for the PlanCraft API.
package api

import (
	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/graph"
	"github.com/plancraft/plancraft/hitl"
	"github.com/plancraft/plancraft/state"
)

// ThreadResponse is the API view of a thread after any operation: the
// record, the interesting parts of its state, and the pending interrupt
// when it is suspended.
type ThreadResponse struct {
	Thread      *checkpoint.Thread `json:"thread"`
	CurrentStep string             `json:"current_step,omitempty"`
	Interrupt   *hitl.Envelope     `json:"interrupt,omitempty"`
	FinalOutput string             `json:"final_output,omitempty"`
	ChatSummary string             `json:"chat_summary,omitempty"`
	RefineCount int                `json:"refine_count"`
	History     []state.StepRecord `json:"step_history,omitempty"`
}

func threadResponse(res *graph.Result) *ThreadResponse {
	return &ThreadResponse{
		Thread:      res.Thread,
		CurrentStep: res.State.CurrentStep,
		Interrupt:   res.Interrupt,
		FinalOutput: res.State.FinalOutput,
		ChatSummary: res.State.ChatSummary,
		RefineCount: res.State.RefineCount,
		History:     res.State.StepHistory,
	}
}

// ResumeRequest answers a pending interrupt.
type ResumeRequest struct {
	SelectedOption string            `json:"selected_option,omitempty"`
	TextInput      string            `json:"text_input,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// RollbackRequest rewinds a thread to the checkpoint at Seq.
type RollbackRequest struct {
	Seq int `json:"seq"`
}

// ListThreadsRequest filters the thread list.
type ListThreadsRequest struct {
	Status string `query:"status" json:"status,omitempty"`
	Limit  int    `query:"limit" json:"limit,omitempty"`
}

// GetThreadRequest is the (empty) request schema for thread lookups.
type GetThreadRequest struct{}

// ListArchiveRequest filters the archive list.
type ListArchiveRequest struct {
	Status string `query:"status" json:"status,omitempty"`
	Limit  int    `query:"limit" json:"limit,omitempty"`
}

// GetArchiveRequest is the (empty) request schema for archive lookups.
type GetArchiveRequest struct{}

// ReplayArchiveRequest is the (empty) request schema for archive replay.
type ReplayArchiveRequest struct{}

// PurgeArchiveResponse reports how many entries a purge removed.
type PurgeArchiveResponse struct {
	Purged int64 `json:"purged"`
}

// ArchiveCountResponse reports the archive size.
type ArchiveCountResponse struct {
	Count int64 `json:"count"`
}

// ThreadCounts groups thread totals by status.
type ThreadCounts struct {
	Running     int `json:"running"`
	Interrupted int `json:"interrupted"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

// StatsResponse aggregates service statistics.
type StatsResponse struct {
	Threads      ThreadCounts `json:"threads"`
	ArchiveCount int64        `json:"archive_count"`
}

// defaultLimit caps list sizes when the caller does not set one.
func defaultLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
