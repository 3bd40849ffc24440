// Package hitl implements the human-in-the-loop interrupt protocol: the
// envelope surfaced to callers when a run suspends, validation of resume
// payloads, and the state annotations applied once an answer arrives.
package hitl

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plancraft/plancraft/state"
)

// Envelope types. Each type dictates which resume payload shape is valid.
const (
	TypeOptionSelection = "option_selection"
	TypeTextInput       = "text_input"
	TypeFormInput       = "form_input"
)

// CustomInputTitle is the reserved option title that routes an option
// selection into a follow-up free-text interrupt.
const CustomInputTitle = "직접 입력"

// Envelope is the payload surfaced to the caller when a run suspends for
// human input. Build produces it deterministically from thread identity
// and interrupt parameters, so replaying a suspended node yields the
// identical envelope. Timestamp is stamped once by the scheduler when the
// envelope is first persisted, never during Build.
type Envelope struct {
	Type            string         `json:"type"`
	Question        string         `json:"question"`
	Options         []state.Option `json:"options,omitempty"`
	AllowCustom     bool           `json:"allow_custom,omitempty"`
	InputSchemaName string         `json:"input_schema_name,omitempty"`
	NodeRef         string         `json:"node_ref"`
	EventID         string         `json:"event_id"`
	InterruptID     string         `json:"interrupt_id"`
	Error           string         `json:"error,omitempty"`
	RetryCount      int            `json:"retry_count"`
	Timestamp       time.Time      `json:"timestamp,omitempty"`
}

// Request describes the interrupt a node wants to raise. AllowCustom
// permits answering an option selection with the reserved custom-input
// title instead of one of the listed options; the option list itself is
// surfaced exactly as given.
type Request struct {
	Type            string
	Question        string
	Options         []state.Option
	AllowCustom     bool
	InputSchemaName string
	InterruptID     string
}

// eventNamespace seeds the SHA1 UUID for envelope event ids.
var eventNamespace = uuid.MustParse("6f1c24b8-9a77-4f6e-8d35-1c2a90be54d1")

// Build constructs the envelope for an interrupt. It is a pure function
// of its arguments: no wall clock, no randomness. EventID is a name-based
// UUID over thread, node, interrupt id, and retry count, so the same
// suspension always carries the same event id while each retry gets a
// fresh one.
func Build(threadID, nodeRef string, req Request, retry int, retryErr string) Envelope {
	key := fmt.Sprintf("%s|%s|%s|%d", threadID, nodeRef, req.InterruptID, retry)
	return Envelope{
		Type:            req.Type,
		Question:        req.Question,
		Options:         req.Options,
		AllowCustom:     req.AllowCustom,
		InputSchemaName: req.InputSchemaName,
		NodeRef:         nodeRef,
		EventID:         uuid.NewSHA1(eventNamespace, []byte(key)).String(),
		InterruptID:     req.InterruptID,
		Error:           retryErr,
		RetryCount:      retry,
	}
}

// Stamp returns a copy of the envelope with its persistence timestamp
// set. Called exactly once, when the scheduler first durably records the
// suspension.
func (e Envelope) Stamp(at time.Time) Envelope {
	e.Timestamp = at.UTC()
	return e
}
