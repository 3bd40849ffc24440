// Package state defines the working memory of a planning thread.
//
// A State value is threaded through every workflow step. Steps never
// mutate a State in place: each step derives a new State from the previous
// one via Apply, which deep-copies the record before applying mutations.
// The scheduler owns the authoritative State timeline; steps only ever see
// a value copy and return a new one.
package state

import (
	"fmt"
	"time"
)

// StepStatus is the outcome recorded for a single step execution.
type StepStatus string

const (
	StatusSuccess StepStatus = "SUCCESS"
	StatusFailed  StepStatus = "FAILED"
)

// History event types for entries that do not correspond to a step
// execution. Regular step entries leave Event empty.
const (
	EventHumanResume  = "human_resume"
	EventAutoContinue = "auto_continue"
)

// StepRecord is one entry in the append-only audit trail. Every step
// execution appends exactly one record, success or failure, before
// returning.
type StepRecord struct {
	Step      string     `json:"step"`
	Status    StepStatus `json:"status"`
	Summary   string     `json:"summary,omitempty"`
	Error     string     `json:"error,omitempty"`
	Category  string     `json:"error_category,omitempty"`
	Event     string     `json:"event,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// InterruptNote is the bookkeeping left on State after a suspend/resume
// boundary. It is written only after the boundary, never before, so that
// replaying a suspended node sees the same State it saw the first time.
type InterruptNote struct {
	InterruptKey string    `json:"interrupt_key"`
	Node         string    `json:"node"`
	Summary      string    `json:"summary,omitempty"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// State is the entire working memory of one planning thread. Every field
// except UserInput and CurrentStep is independently optional.
type State struct {
	// Input.
	UserInput   string `json:"user_input"`
	FileContent string `json:"file_content,omitempty"`
	Preset      string `json:"preset,omitempty"`

	// Gathered context.
	RAGContext string   `json:"rag_context,omitempty"`
	WebContext string   `json:"web_context,omitempty"`
	WebURLs    []string `json:"web_urls,omitempty"`

	// Analyzer output.
	Analysis       *Analysis `json:"analysis,omitempty"`
	NeedMoreInfo   bool      `json:"need_more_info"`
	Options        []Option  `json:"options,omitempty"`
	OptionQuestion string    `json:"option_question,omitempty"`

	// Interrupt bookkeeping, written only after a suspend/resume boundary.
	SelectedOption  *Option        `json:"selected_option,omitempty"`
	LastInterrupt   *InterruptNote `json:"last_interrupt,omitempty"`
	PendingFreeText bool           `json:"pending_free_text,omitempty"`
	HITLRetries     int            `json:"hitl_retries,omitempty"`

	// Pipeline outputs, each produced once per pass and overwritten on a
	// refinement iteration.
	Structure *Structure `json:"structure,omitempty"`
	Draft     *Draft     `json:"draft,omitempty"`
	Review    *Review    `json:"review,omitempty"`

	// Refinement loop.
	RefineCount  int                 `json:"refine_count"`
	PreviousPlan string              `json:"previous_plan,omitempty"`
	Guideline    *RefinementStrategy `json:"refinement_guideline,omitempty"`
	Refined      bool                `json:"refined,omitempty"`

	// Final results.
	FinalOutput string `json:"final_output,omitempty"`
	ChatSummary string `json:"chat_summary,omitempty"`

	// Metadata.
	CurrentStep string       `json:"current_step,omitempty"`
	Error       string       `json:"error,omitempty"`
	Category    string       `json:"error_category,omitempty"`
	StepHistory []StepRecord `json:"step_history,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
}

// New creates the initial State for a fresh thread.
func New(userInput string) State {
	return State{
		UserInput:   userInput,
		CurrentStep: "start",
		StartedAt:   time.Now().UTC(),
	}
}

// Mutation modifies a State copy inside Apply.
type Mutation func(*State)

// Apply returns a new State: a deep copy of s with all mutations applied
// in order. This is the single merge point: field writes are shallow key
// overwrites on the copy, and the receiver is never touched.
func (s State) Apply(muts ...Mutation) State {
	next := s.Clone()
	for _, m := range muts {
		m(&next)
	}
	return next
}

// Clone returns a deep copy of the State. Slices and nested records are
// copied so that the returned value shares no mutable memory with s.
func (s State) Clone() State {
	next := s

	next.WebURLs = cloneStrings(s.WebURLs)
	next.Options = cloneOptions(s.Options)
	next.StepHistory = append([]StepRecord(nil), s.StepHistory...)

	if s.Analysis != nil {
		a := s.Analysis.clone()
		next.Analysis = &a
	}
	if s.Structure != nil {
		st := s.Structure.clone()
		next.Structure = &st
	}
	if s.Draft != nil {
		d := s.Draft.clone()
		next.Draft = &d
	}
	if s.Review != nil {
		r := s.Review.clone()
		next.Review = &r
	}
	if s.Guideline != nil {
		g := s.Guideline.clone()
		next.Guideline = &g
	}
	if s.SelectedOption != nil {
		o := *s.SelectedOption
		next.SelectedOption = &o
	}
	if s.LastInterrupt != nil {
		n := *s.LastInterrupt
		next.LastInterrupt = &n
	}

	return next
}

// WithHistory appends one audit record. History is append-only: records
// are never rewritten or removed.
func WithHistory(rec StepRecord) Mutation {
	return func(s *State) {
		if rec.Timestamp.IsZero() {
			rec.Timestamp = time.Now().UTC()
		}
		s.StepHistory = append(s.StepHistory, rec)
		s.CurrentStep = rec.Step
	}
}

// WithError annotates the State with a classified failure. The caller is
// responsible for also appending a FAILED history record (the step wrapper
// does both together).
func WithError(msg, category string) Mutation {
	return func(s *State) {
		s.Error = msg
		s.Category = category
	}
}

// ClearError removes a previous non-fatal failure annotation so a later
// successful step does not report a stale error.
func ClearError() Mutation {
	return func(s *State) {
		s.Error = ""
		s.Category = ""
	}
}

// RequireFields reports the first missing required field, checking the
// fields a step declared it needs before executing.
func (s State) RequireFields(fields ...string) error {
	for _, f := range fields {
		switch f {
		case "user_input":
			if s.UserInput == "" {
				return fmt.Errorf("missing required state field %q", f)
			}
		case "analysis":
			if s.Analysis == nil {
				return fmt.Errorf("missing required state field %q", f)
			}
		case "structure":
			if s.Structure == nil {
				return fmt.Errorf("missing required state field %q", f)
			}
		case "draft":
			if s.Draft == nil {
				return fmt.Errorf("missing required state field %q", f)
			}
		case "review":
			if s.Review == nil {
				return fmt.Errorf("missing required state field %q", f)
			}
		case "options":
			if len(s.Options) == 0 {
				return fmt.Errorf("missing required state field %q", f)
			}
		default:
			return fmt.Errorf("unknown required state field %q", f)
		}
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneOptions(in []Option) []Option {
	if in == nil {
		return nil
	}
	return append([]Option(nil), in...)
}
