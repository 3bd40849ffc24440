package plancraft

import "time"

// Config holds tunables for the workflow engine.
type Config struct {
	// MaxRefineLoops bounds the structure→write→review→refine cycle.
	MaxRefineLoops int

	// MaxNodeVisits is a hard ceiling on node transitions per run,
	// independent of MaxRefineLoops. Exceeding it is a fatal state error
	// guarding against routing bugs causing infinite loops.
	MaxNodeVisits int

	// HITLMaxRetries bounds how many times an invalid resume value causes
	// the same interrupt to be re-issued before the workflow falls back
	// to an auto-continue.
	HITLMaxRetries int

	// MaxThreadIDLen caps caller-supplied thread identifiers.
	MaxThreadIDLen int

	// MaxUserInputLen caps the user request, in runes.
	MaxUserInputLen int

	// MaxFileContentLen caps optional attached file content, in runes.
	MaxFileContentLen int

	// StepTimeout bounds a single external capability call inside a step.
	StepTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRefineLoops:    3,
		MaxNodeVisits:     50,
		HITLMaxRetries:    3,
		MaxThreadIDLen:    128,
		MaxUserInputLen:   10000,
		MaxFileContentLen: 100000,
		StepTimeout:       120 * time.Second,
	}
}
