package plancraft

import (
	"context"
	"errors"
	"strings"
)

// Category classifies a step failure. The workflow never lets an error
// escape a step boundary; instead the step's result state carries the
// message and its category, and the scheduler decides from the category
// whether the thread can continue on a fallback output or must halt.
type Category string

const (
	// CategoryLLM covers upstream model/API failures (timeout, refusal,
	// malformed structured output). Steps fall back to a conservative
	// default output and the thread continues.
	CategoryLLM Category = "LLM_ERROR"

	// CategoryRateLimit is a specialization of CategoryLLM for throttling.
	// Eligible for caller-level backoff before the step is retried.
	CategoryRateLimit Category = "RATE_LIMIT_ERROR"

	// CategoryNetwork covers connectivity failures to any external
	// capability. Same fallback policy as CategoryLLM.
	CategoryNetwork Category = "NETWORK_ERROR"

	// CategoryValidation means a required state field was missing or
	// malformed before the step executed. The step refuses to call any
	// external capability.
	CategoryValidation Category = "VALIDATION_ERROR"

	// CategoryState is an internal invariant violation (loop-count
	// overflow, corrupt checkpoint). Always fatal.
	CategoryState Category = "STATE_ERROR"

	// CategoryUnknown is the catch-all. Treated as fatal for safety.
	CategoryUnknown Category = "UNKNOWN_ERROR"
)

// Fatal reports whether a failure in this category must halt the thread.
// LLM, rate-limit, and network failures are survivable because every step
// produces a usable fallback output; validation halts because a later step
// would run on data the caller never supplied.
func (c Category) Fatal() bool {
	switch c {
	case CategoryLLM, CategoryRateLimit, CategoryNetwork:
		return false
	default:
		return true
	}
}

// Categorizer is implemented by errors that know their own category.
// Capability packages (llm, search) return errors implementing this so
// classification stays data-driven rather than string matching.
type Categorizer interface {
	Category() Category
}

// Classify maps an error to its failure category. Errors implementing
// Categorizer are authoritative; everything else falls through a small
// set of heuristics mirroring how upstream SDK errors present themselves.
func Classify(err error) Category {
	if err == nil {
		return ""
	}

	var c Categorizer
	if errors.As(err, &c) {
		return c.Category()
	}

	if errors.Is(err, ErrIterationCeiling) || errors.Is(err, ErrCorruptCheckpoint) {
		return CategoryState
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return CategoryRateLimit
	case strings.Contains(msg, "api") || strings.Contains(msg, "model") ||
		strings.Contains(msg, "token") || strings.Contains(msg, "completion"):
		return CategoryLLM
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "dns") ||
		strings.Contains(msg, "tls"):
		return CategoryNetwork
	case strings.Contains(msg, "missing") || strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "validation"):
		return CategoryValidation
	default:
		return CategoryUnknown
	}
}
