// Package checkpoint implements the durable checkpoint store described in
// SPEC_FULL.md §4.3: thread_id/checkpoint_id keyed snapshots with a
// namespace prefix, an ExpiresAt recorded on each write, and optional
// activity-based extension of it on read. No implementation refuses to
// return, or deletes, a checkpoint whose ExpiresAt has passed.
// Grounded on graph/checkpoint.go's Checkpoint[S] shape and
// graph/store/store.go's Store[S] interface, narrowed to the fields this
// engine needs, with the key layout taken from
// original_source/services/workflows/src/core/redis_checkpointer.py.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/coagents/workflow-engine/internal/state"
)

// DefaultNamespace is used when a caller does not supply one.
const DefaultNamespace = "langgraph"

// DefaultTTL matches spec.md §6's default checkpoint lifetime.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound is returned by Get/GetLatest when no checkpoint exists
	// for the given thread (or checkpoint id).
	ErrNotFound = errors.New("checkpoint: not found")

	// ErrThreadConflict is exported for callers that want a checkpoint-
	// package-scoped sentinel; Put itself never returns it. Conflict
	// detection (does a live run already own this thread_id?) is the
	// Executor's responsibility, by inspecting Metadata before Put — see
	// wferrors.ErrThreadConflict and DESIGN.md's Open-Question #3 entry.
	ErrThreadConflict = errors.New("checkpoint: thread already active")
)

// ThreadMetadata is stored once per thread_id (the
// "{namespace}:metadata:{thread_id}" key) and records which graph a
// thread belongs to, independent of which checkpoint_id is latest — this
// is what lets /resume re-hydrate the correct compiled graph after a
// process restart (see DESIGN.md's "Resume re-hydration" entry).
type ThreadMetadata struct {
	ThreadID    string
	GraphName   string
	CreatedAt   time.Time
	LastActive  time.Time
	ExpiresAt   time.Time
	LatestCkpt  string
	Terminal    bool
}

// Checkpoint is one persisted snapshot of a run. Grounded on
// graph/checkpoint.go's Checkpoint[S], trimmed to the fields this engine's
// sequential executor needs (no Frontier/RNGSeed/RecordedIOs — those
// belong to the teacher's intra-run concurrent scheduler, which this
// engine does not use; see DESIGN.md's final adaptation pass entry).
type Checkpoint struct {
	ThreadID     string
	CheckpointID string
	GraphName    string
	Step         int
	State        state.RunState
	Suspended    bool
	Label        string
	Timestamp    time.Time
}

// Store is the durable checkpoint contract. Implementations must be safe
// for concurrent use by multiple goroutines (one per active run).
type Store interface {
	// Put writes a checkpoint, creating thread metadata on first write for
	// a thread_id. Put itself does not reject duplicate thread_ids — the
	// executor checks Metadata for a live, non-terminal thread before
	// starting a new run and returns ErrThreadConflict itself (see
	// DESIGN.md's "Duplicate thread_id" entry).
	Put(ctx context.Context, ckpt Checkpoint, ttl time.Duration) error

	// GetLatest returns the most recent checkpoint for threadID. If
	// extendOnAccess is true, the thread's TTL is refreshed to now+ttl.
	GetLatest(ctx context.Context, namespace, threadID string, extendOnAccess bool, ttl time.Duration) (Checkpoint, error)

	// Get returns a specific checkpoint by thread_id and checkpoint_id.
	Get(ctx context.Context, namespace, threadID, checkpointID string) (Checkpoint, error)

	// List returns every checkpoint_id recorded for threadID, oldest
	// first.
	List(ctx context.Context, namespace, threadID string) ([]string, error)

	// Metadata returns the thread-level metadata record.
	Metadata(ctx context.Context, namespace, threadID string) (ThreadMetadata, error)

	// MarkTerminal flags a thread's metadata as terminal (run completed,
	// rejected, or errored) so a later duplicate /execute is refused only
	// while a run is genuinely still live, not forever.
	MarkTerminal(ctx context.Context, namespace, threadID string) error

	Close() error
}

// key layout per SPEC_FULL.md §4.3 / spec.md §6:
//
//	{namespace}:checkpoint:{thread_id}:{checkpoint_id}
//	{namespace}:metadata:{thread_id}
func checkpointKey(namespace, threadID, checkpointID string) string {
	return namespace + ":checkpoint:" + threadID + ":" + checkpointID
}

func metadataKey(namespace, threadID string) string {
	return namespace + ":metadata:" + threadID
}
