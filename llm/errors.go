package llm

import (
	"fmt"

	"github.com/plancraft/plancraft"
)

// Error wraps a provider failure with its classified category so the
// step wrapper can decide between degraded continuation and a fatal stop
// without parsing provider-specific strings.
type Error struct {
	Provider string
	Op       string
	Kind     plancraft.Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Category implements plancraft.Categorizer.
func (e *Error) Category() plancraft.Category { return e.Kind }

// WrapError classifies err and attaches provider context. A nil err
// returns nil.
func WrapError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: provider, Op: op, Kind: plancraft.Classify(err), Err: err}
}
