// Package node defines the per-node execution contract: the Node
// interface, its sum-typed result, and the declarative edges used to wire
// nodes into a graph. Grounded on graph/node.go and graph/edge.go from the
// teacher, generalized per SPEC_FULL.md §4.2's Design Notes to add a
// suspend-for-approval outcome alongside ordinary advance/route outcomes.
package node

import (
	"context"

	"github.com/coagents/workflow-engine/internal/state"
)

// Node is a single unit of work in a graph. Run receives the current
// merged state and returns a Result describing how the run should
// proceed.
type Node interface {
	ID() string
	Run(ctx context.Context, s state.RunState) (Result, error)
}

// Func adapts a plain function into a Node.
type Func struct {
	id string
	fn func(ctx context.Context, s state.RunState) (Result, error)
}

// NewFunc builds a Node from an id and a run function.
func NewFunc(id string, fn func(ctx context.Context, s state.RunState) (Result, error)) Func {
	return Func{id: id, fn: fn}
}

func (f Func) ID() string { return f.id }

func (f Func) Run(ctx context.Context, s state.RunState) (Result, error) {
	return f.fn(ctx, s)
}

// Kind distinguishes the three node-result variants required by
// SPEC_FULL.md §4.2's Design Notes: a node either advances along its
// graph-declared successor edges, explicitly goes to a named node, or
// suspends the run pending an external resume.
type Kind int

const (
	// KindAdvance follows the graph's declared edges from this node,
	// evaluating predicates in declaration order.
	KindAdvance Kind = iota
	// KindGoto jumps directly to a named node, bypassing edge predicates.
	KindGoto
	// KindSuspend halts the run; the engine persists a suspended checkpoint
	// labeled with this node's id (Token itself is not stored in it) and
	// returns control to the caller without an error.
	KindSuspend
)

// Result is the sum type a Node.Run returns. Exactly one meaning applies
// per Kind: KindAdvance uses only Delta; KindGoto uses Target and Delta;
// KindSuspend uses only Token.
type Result struct {
	Kind   Kind
	Delta  state.RunState
	Target string
	Token  SuspensionToken
}

// SuspensionToken carries what a resume needs to pick the run back up:
// which node is waiting, and an opaque reason surfaced to the caller (e.g.
// "awaiting_approval").
type SuspensionToken struct {
	NodeID string
	Reason string
	Data   map[string]any
}

// Advance returns a Result that merges delta and follows declared edges.
func Advance(delta state.RunState) Result {
	return Result{Kind: KindAdvance, Delta: delta}
}

// Goto returns a Result that merges delta and jumps directly to target.
func Goto(target string, delta state.RunState) Result {
	return Result{Kind: KindGoto, Target: target, Delta: delta}
}

// Suspend returns a Result that halts the run at this node pending resume.
func Suspend(token SuspensionToken) Result {
	return Result{Kind: KindSuspend, Token: token}
}

// Edge connects two nodes. When is evaluated in declaration order for
// KindAdvance results; the first edge whose predicate matches (or whose
// predicate is nil) is taken.
type Edge struct {
	From string
	To   string
	When Predicate
}

// Predicate evaluates state to decide whether an edge should be followed.
type Predicate func(s state.RunState) bool
