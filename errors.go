package plancraft

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("plancraft: no store configured")
	ErrStoreClosed = errors.New("plancraft: store closed")

	// Not found errors.
	ErrThreadExists       = errors.New("plancraft: thread already exists")
	ErrThreadNotFound     = errors.New("plancraft: thread not found")
	ErrCheckpointNotFound = errors.New("plancraft: checkpoint not found")
	ErrArchiveNotFound    = errors.New("plancraft: archive entry not found")

	// Interrupt errors.
	ErrNoPendingInterrupt = errors.New("plancraft: no pending interrupt")
	ErrInterruptMismatch  = errors.New("plancraft: resume does not match pending interrupt")

	// Input errors.
	ErrInvalidInput = errors.New("plancraft: invalid input")

	// State errors.
	ErrThreadNotResumable = errors.New("plancraft: thread is not in a resumable state")
	ErrIterationCeiling   = errors.New("plancraft: node visit ceiling exceeded")
	ErrCorruptCheckpoint  = errors.New("plancraft: corrupt checkpoint snapshot")
)
