// Package observability provides a metrics extension that tracks thread
// lifecycle totals: runs started, completed, and failed, interrupts
// raised and answered, and step failures.
package observability
