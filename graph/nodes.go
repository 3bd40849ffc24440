// Package graph drives the planning workflow: it routes between pipeline
// steps, checkpoints state after every transition, and owns the
// suspend/resume protocol around human-in-the-loop interrupts.
package graph

import "github.com/plancraft/plancraft/agent"

// Node names. Step nodes share their identifier with the step they run;
// option_pause and complete are control nodes with no step behind them.
const (
	NodeContextGathering = agent.StepContextGathering
	NodeAnalyze          = agent.StepAnalyze
	NodeOptionPause      = "option_pause"
	NodeGeneralResponse  = agent.StepGeneralResponse
	NodeStructure        = agent.StepStructure
	NodeWrite            = agent.StepWrite
	NodeReview           = agent.StepReview
	NodeRefine           = agent.StepRefine
	NodeFormat           = agent.StepFormat
	NodeComplete         = "complete"
)

// EntryNode is where every fresh run starts.
const EntryNode = NodeContextGathering

// Interrupt identifiers raised by the option_pause node. They are stable
// across retries and replays; the envelope event id varies by retry.
const (
	InterruptClarify  = "clarify"
	InterruptFreeText = "free_text"
)
