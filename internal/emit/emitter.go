package emit

import "context"

// Emitter is a pluggable observability backend. The executor emits one
// event per node dispatch/completion and per run lifecycle transition;
// an Emitter decides what to do with them (write a log line, open a
// trace span, drop them entirely).
type Emitter interface {
	// Emit handles a single event. Implementations must not block the
	// caller for long; slow backends should buffer internally.
	Emit(event Event)

	// EmitBatch handles a batch of events, returning an error if the
	// batch could not be delivered.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered.
	Flush(ctx context.Context) error
}
