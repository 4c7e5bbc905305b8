// Package wferrors defines the sentinel error taxonomy shared across the
// registry, executor, checkpoint store, and HTTP surface.
package wferrors

import "errors"

// Sentinel errors matching the taxonomy. Wrap these with fmt.Errorf("%w")
// at the call site to attach context; callers should compare with
// errors.Is, never string matching.
var (
	// ErrUnknownGraph is returned when a graph name has no registered descriptor.
	ErrUnknownGraph = errors.New("unknown graph")

	// ErrInvalidState is returned when an initial state fails validation
	// against a graph's required-field list.
	ErrInvalidState = errors.New("invalid state")

	// ErrLoadError is returned when a registered loader function fails to
	// build a compiled graph.
	ErrLoadError = errors.New("graph load error")

	// ErrNodeFailure wraps a node body's own returned error.
	ErrNodeFailure = errors.New("node failure")

	// ErrCheckpointFailed is returned when a checkpoint write fails.
	ErrCheckpointFailed = errors.New("checkpoint failed")

	// ErrRecursionLimitExceeded is returned when a run exceeds its recursion_limit.
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")

	// ErrCancelled is returned when a run is cancelled before completion.
	ErrCancelled = errors.New("cancelled")

	// ErrUnknownThread is returned when a thread_id has no checkpoint.
	ErrUnknownThread = errors.New("unknown thread")

	// ErrNotSuspended is returned when /resume is called on a thread that
	// isn't currently suspended awaiting approval.
	ErrNotSuspended = errors.New("not suspended")

	// ErrThreadConflict is returned when /execute is called with a
	// thread_id that already has a live (non-terminal) run.
	ErrThreadConflict = errors.New("thread conflict")
)

// StepError records a single node failure inside a run's error list.
// Grounded on graph/node.go's NodeError.
type StepError struct {
	NodeID  string
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return e.NodeID + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.NodeID + ": " + e.Message
}

func (e *StepError) Unwrap() error { return e.Cause }
