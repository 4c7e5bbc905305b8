// Package emit provides the observability sinks a run can fan its
// progress out to, independent of the SSE stream the HTTP layer serves to
// a caller. Grounded on graph/emit/* from the teacher, narrowed to the
// fields this workflow engine actually produces.
package emit

// Event is one observability point: a node dispatch, a checkpoint write,
// a suspension, or a run-level lifecycle transition.
type Event struct {
	// RunID is the thread_id of the run that produced this event.
	RunID string

	// Step is the 1-indexed step number within the run. Zero for
	// run-level events (start, complete, error).
	Step int

	// NodeID identifies which node produced this event. Empty for
	// run-level events.
	NodeID string

	// Msg is a short machine-stable name, e.g. "node_start", "node_end",
	// "checkpoint_saved", "run_suspended".
	Msg string

	// Meta carries event-specific structured detail, e.g.
	// "duration_ms", "error", "graph_name", "checkpoint_id".
	Meta map[string]interface{}
}
