// Package executor implements the durable run driver described in
// SPEC_FULL.md §4.2: node dispatch, a checkpoint after each dispatched
// node (holding the state that node produced; no checkpoint is written
// before a node runs), suspension/resume, recursion-limit enforcement, and state-delta
// merging. Grounded on graph/engine.go's Engine[S].Run dispatch loop,
// generalized to drive the sum-typed node.Result (Advance/Goto/Suspend)
// instead of the teacher's Next{To,Many,Terminal} routing, and to persist
// through the checkpoint.Store / emit to stream.Sink + emit.Emitter
// instead of the teacher's generic Store[S]/Emitter.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coagents/workflow-engine/internal/checkpoint"
	"github.com/coagents/workflow-engine/internal/emit"
	"github.com/coagents/workflow-engine/internal/metrics"
	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
	"github.com/coagents/workflow-engine/internal/stream"
	"github.com/coagents/workflow-engine/internal/wferrors"
)

// terminalCompleted and terminalRejected are the two conventional
// terminal node ids named by spec.md §2. A graph reaching either (with no
// declared outgoing edges) ends the run; which one decides the Outcome's
// Status.
const (
	terminalCompleted = "workflow_completed"
	terminalRejected  = "workflow_rejected"
)

// Status is the terminal (or paused) outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
	StatusRejected  Status = "rejected"
	StatusError     Status = "error"
)

// Outcome is returned by Execute and Resume.
type Outcome struct {
	ThreadID  string
	GraphName string
	Status    Status
	State     state.RunState
	Err       error
}

// Option configures an Executor. Grounded on graph/options.go's
// functional-options idiom.
type Option func(*Executor)

func WithNamespace(ns string) Option {
	return func(e *Executor) { e.namespace = ns }
}

func WithTTL(ttl time.Duration) Option {
	return func(e *Executor) { e.ttl = ttl }
}

func WithRecursionLimit(n int) Option {
	return func(e *Executor) { e.recursionLimit = n }
}

func WithEmitter(em emit.Emitter) Option {
	return func(e *Executor) { e.emitter = em }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// Executor drives runs over graphs registered in a registry.Registry,
// persisting through a checkpoint.Store.
type Executor struct {
	registry *registry.Registry
	store    checkpoint.Store

	namespace      string
	ttl            time.Duration
	recursionLimit int

	emitter emit.Emitter
	metrics *metrics.Metrics
}

// New builds an Executor over reg/store with spec.md §6's defaults,
// overridable via options.
func New(reg *registry.Registry, store checkpoint.Store, opts ...Option) *Executor {
	e := &Executor{
		registry:       reg,
		store:          store,
		namespace:      checkpoint.DefaultNamespace,
		ttl:            checkpoint.DefaultTTL,
		recursionLimit: 25,
		emitter:        emit.NewNullEmitter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute starts a new run of graphName. If threadID is empty, one is
// generated. sink, if non-nil, receives stream.Event frames for SSE
// delivery; Execute still returns a final Outcome either way, matching
// spec.md §4.5's streaming/non-streaming duality.
func (e *Executor) Execute(ctx context.Context, graphName, threadID string, initial state.RunState, sink *stream.Sink) Outcome {
	if threadID == "" {
		threadID = uuid.NewString()
	}

	if meta, err := e.store.Metadata(ctx, e.namespace, threadID); err == nil && !meta.Terminal {
		return e.earlyError(threadID, graphName, sink, wferrors.ErrThreadConflict)
	}

	merged, err := e.registry.Validate(graphName, initial)
	if err != nil {
		return e.earlyError(threadID, graphName, sink, err)
	}

	g, err := e.registry.Load(graphName)
	if err != nil {
		return e.earlyError(threadID, graphName, sink, fmt.Errorf("%w: %v", wferrors.ErrLoadError, err))
	}

	e.send(sink, stream.Event{Type: stream.EventWorkflowStart, GraphName: graphName, ThreadID: threadID, TimestampMS: nowMS()})
	e.emitter.Emit(emit.Event{RunID: threadID, Msg: "workflow_start", Meta: map[string]interface{}{"graph_name": graphName}})

	return e.run(ctx, g, g.Entry, merged, threadID, graphName, 0, sink)
}

// Resume continues a suspended run. resumePayload is merged into the
// run's approval_decision / industry-specific resume fields before the
// suspended node re-runs; absence of an explicit approval is treated as
// approved=false per spec.md §4.6's default-safe behavior.
func (e *Executor) Resume(ctx context.Context, threadID string, resumePayload map[string]any, sink *stream.Sink) Outcome {
	ckpt, err := e.store.GetLatest(ctx, e.namespace, threadID, true, e.ttl)
	if err != nil {
		return e.earlyError(threadID, "", sink, wferrors.ErrUnknownThread)
	}
	if !ckpt.Suspended {
		return e.earlyError(threadID, ckpt.GraphName, sink, wferrors.ErrNotSuspended)
	}

	g, err := e.registry.Load(ckpt.GraphName)
	if err != nil {
		return e.earlyError(threadID, ckpt.GraphName, sink, fmt.Errorf("%w: %v", wferrors.ErrLoadError, err))
	}

	resumeDelta := state.RunState{state.FieldPendingApproval: false}
	if approved, ok := resumePayload["approved"]; ok {
		resumeDelta[state.FieldApprovalDecision] = approved
	} else {
		resumeDelta[state.FieldApprovalDecision] = false
	}
	for k, v := range resumePayload {
		if k == "approved" {
			continue
		}
		resumeDelta[k] = v
	}
	merged := state.Merge(ckpt.State, resumeDelta)

	return e.run(ctx, g, ckpt.Label, merged, threadID, ckpt.GraphName, ckpt.Step, sink)
}

func (e *Executor) run(ctx context.Context, g registry.CompiledGraph, startNodeID string, st state.RunState, threadID, graphName string, startStep int, sink *stream.Sink) Outcome {
	current := startNodeID
	lastDispatched := startNodeID
	step := startStep

	for {
		select {
		case <-ctx.Done():
			// spec.md §5: cancellation writes no further checkpoint and
			// transitions straight to rejected.
			st = rejectedState(st, current, wferrors.ErrCancelled.Error())
			return e.finish(ctx, threadID, graphName, StatusRejected, st, sink, wferrors.ErrCancelled)
		default:
		}

		step++
		if step > e.recursionLimit {
			// spec.md §7: recursion-limit-exceeded is treated as a
			// node-failure at the last-dispatched node.
			st = rejectedState(st, lastDispatched, wferrors.ErrRecursionLimitExceeded.Error())
			return e.finish(ctx, threadID, graphName, StatusRejected, st, sink, wferrors.ErrRecursionLimitExceeded)
		}

		n, ok := g.Nodes[current]
		if !ok {
			return e.finish(ctx, threadID, graphName, StatusError, st, sink, fmt.Errorf("%w: node %q not found", wferrors.ErrLoadError, current))
		}

		start := time.Now()
		e.emitter.Emit(emit.Event{RunID: threadID, Step: step, NodeID: current, Msg: "node_start"})
		result, err := n.Run(ctx, st)
		lastDispatched = current
		latency := time.Since(start)
		if e.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			e.metrics.RecordStepLatency(graphName, current, latency, status)
		}

		if err != nil {
			st = state.Merge(st, state.AppendError(st, current, err.Error(), "critical"))
			e.emitter.Emit(emit.Event{RunID: threadID, Step: step, NodeID: current, Msg: "node_end", Meta: map[string]interface{}{"error": err.Error()}})
			// spec.md §4.2/§7: a node failure is recorded and routes to
			// rejected; it is not retried at this layer.
			st = rejectedState(st, current, "")
			return e.finish(ctx, threadID, graphName, StatusRejected, st, sink, fmt.Errorf("%w: %v", wferrors.ErrNodeFailure, err))
		}
		e.emitter.Emit(emit.Event{RunID: threadID, Step: step, NodeID: current, Msg: "node_end"})

		switch result.Kind {
		case node.KindSuspend:
			st = state.Merge(st, state.RunState{state.FieldPendingApproval: true})
			if err := e.checkpoint(ctx, threadID, graphName, current, step, st, true); err != nil {
				return e.finish(ctx, threadID, graphName, StatusError, st, sink, fmt.Errorf("%w: %v", wferrors.ErrCheckpointFailed, err))
			}
			if e.metrics != nil {
				e.metrics.RecordSuspension(graphName)
			}
			e.send(sink, stream.Event{Type: stream.EventApprovalRequired, GraphName: graphName, ThreadID: threadID, Step: current, Message: result.Token.Reason, TimestampMS: nowMS()})
			e.send(sink, stream.Event{Type: stream.EventWorkflowPaused, GraphName: graphName, ThreadID: threadID, Step: current, TimestampMS: nowMS()})
			e.closeSink(sink)
			return Outcome{ThreadID: threadID, GraphName: graphName, Status: StatusPaused, State: st}

		case node.KindGoto:
			st = state.Merge(st, state.AppendStep(st, current))
			if result.Delta != nil {
				st = state.Merge(st, result.Delta)
			}
			if err := e.checkpoint(ctx, threadID, graphName, current, step, st, false); err != nil {
				return e.finish(ctx, threadID, graphName, StatusError, st, sink, fmt.Errorf("%w: %v", wferrors.ErrCheckpointFailed, err))
			}
			e.send(sink, stream.Event{Type: stream.EventStepComplete, GraphName: graphName, ThreadID: threadID, Step: current, Progress: progressFor(g, result.Target), TimestampMS: nowMS()})
			current = result.Target

		default: // node.KindAdvance
			// The two conventional terminal nodes never appear in
			// steps_completed themselves (spec.md §4.2d); they only set
			// current_step via their own Advance delta, below.
			if current != terminalCompleted && current != terminalRejected {
				st = state.Merge(st, state.AppendStep(st, current))
			}
			if result.Delta != nil {
				st = state.Merge(st, result.Delta)
			}
			next, terminal := nextNode(g, current, st)
			if err := e.checkpoint(ctx, threadID, graphName, current, step, st, false); err != nil {
				return e.finish(ctx, threadID, graphName, StatusError, st, sink, fmt.Errorf("%w: %v", wferrors.ErrCheckpointFailed, err))
			}
			if terminal {
				// spec.md §2 names exactly two conventional terminal nodes;
				// which one was reached decides completed vs rejected.
				status := StatusCompleted
				if current == terminalRejected {
					status = StatusRejected
				}
				return e.finish(ctx, threadID, graphName, status, st, sink, nil)
			}
			e.send(sink, stream.Event{Type: stream.EventStepComplete, GraphName: graphName, ThreadID: threadID, Step: current, Progress: progressFor(g, next), TimestampMS: nowMS()})
			current = next
		}
	}
}

// earlyError reports a failure that happened before any node ran (unknown
// graph, invalid state, thread conflict, unresolvable resume). Unlike
// finish, it never calls MarkTerminal: a conflict error in particular
// means some OTHER live run owns this thread_id, and terminating it here
// would corrupt that run's bookkeeping.
func (e *Executor) earlyError(threadID, graphName string, sink *stream.Sink, err error) Outcome {
	e.send(sink, stream.Event{Type: stream.EventWorkflowError, GraphName: graphName, ThreadID: threadID, Message: err.Error(), TimestampMS: nowMS()})
	e.closeSink(sink)
	return Outcome{ThreadID: threadID, GraphName: graphName, Status: StatusError, Err: err}
}

func (e *Executor) finish(ctx context.Context, threadID, graphName string, status Status, st state.RunState, sink *stream.Sink, err error) Outcome {
	_ = e.store.MarkTerminal(ctx, e.namespace, threadID)

	if status == StatusRejected && err != nil {
		// A failure-driven rejection (node-failure, cancellation,
		// recursion-limit-exceeded) surfaces the error as its own frame
		// before the terminal workflow_rejected frame, per spec.md §4.2.
		e.send(sink, stream.Event{Type: stream.EventWorkflowError, GraphName: graphName, ThreadID: threadID, Message: err.Error(), TimestampMS: nowMS()})
	}

	var evt stream.Event
	switch status {
	case StatusCompleted:
		evt = stream.Event{Type: stream.EventWorkflowComplete, GraphName: graphName, ThreadID: threadID, TimestampMS: nowMS()}
		e.emitter.Emit(emit.Event{RunID: threadID, Msg: "workflow_complete"})
	case StatusRejected:
		evt = stream.Event{Type: stream.EventWorkflowRejected, GraphName: graphName, ThreadID: threadID, TimestampMS: nowMS()}
		e.emitter.Emit(emit.Event{RunID: threadID, Msg: "workflow_rejected"})
	default:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		evt = stream.Event{Type: stream.EventWorkflowError, GraphName: graphName, ThreadID: threadID, Message: msg, TimestampMS: nowMS()}
		e.emitter.Emit(emit.Event{RunID: threadID, Msg: "workflow_error", Meta: map[string]interface{}{"error": msg}})
	}
	e.send(sink, evt)
	e.closeSink(sink)
	return Outcome{ThreadID: threadID, GraphName: graphName, Status: status, State: st, Err: err}
}

func (e *Executor) checkpoint(ctx context.Context, threadID, graphName, label string, step int, st state.RunState, suspended bool) error {
	ckpt := checkpoint.Checkpoint{
		ThreadID:     threadID,
		CheckpointID: fmt.Sprintf("%s-%04d", threadID, step),
		GraphName:    graphName,
		Step:         step,
		State:        st,
		Suspended:    suspended,
		Label:        label,
		Timestamp:    time.Now(),
	}
	err := e.store.Put(ctx, ckpt, e.ttl)
	if e.metrics != nil {
		e.metrics.RecordCheckpointWrite(err == nil)
	}
	return err
}

func (e *Executor) send(sink *stream.Sink, evt stream.Event) {
	if sink != nil {
		sink.Send(evt)
	}
}

func (e *Executor) closeSink(sink *stream.Sink) {
	if sink != nil {
		sink.Close()
	}
}

// rejectedState forces current_step to "rejected" and clears
// pending_approval, optionally appending an error record {step, msg,
// "critical"} first. Used by the three failure paths spec.md routes
// straight to the rejected terminal outcome without actually dispatching
// the workflow_rejected node (node-failure, cancellation,
// recursion-limit-exceeded).
func rejectedState(st state.RunState, step, msg string) state.RunState {
	if msg != "" {
		st = state.Merge(st, state.AppendError(st, step, msg, "critical"))
	}
	return state.Merge(st, state.RunState{state.FieldCurrentStep: "rejected", state.FieldPendingApproval: false})
}

// nextNode evaluates g's declared edges from current in order, returning
// the first whose predicate matches (or has none). terminal is true when
// no edge matches, meaning the run has reached the end of the graph.
func nextNode(g registry.CompiledGraph, current string, st state.RunState) (next string, terminal bool) {
	for _, ed := range g.Edges {
		if ed.From != current {
			continue
		}
		if ed.When == nil || ed.When(st) {
			return ed.To, false
		}
	}
	return "", true
}

// progressFor reports how far along the graph's node count a run is,
// best-effort (graphs with conditional branches don't have a fixed total
// step count, so this is an approximation as spec.md §4.4 allows).
func progressFor(g registry.CompiledGraph, at string) *stream.Progress {
	total := len(g.Nodes)
	if total == 0 {
		return nil
	}
	idx := 0
	for i, ed := range g.Edges {
		if ed.To == at {
			idx = i + 1
			break
		}
	}
	pct := 0
	if total > 0 {
		pct = (idx * 100) / total
	}
	return &stream.Progress{CurrentStep: idx, TotalSteps: total, Percentage: pct}
}

func nowMS() int64 {
	return time.Now().UnixMilli()
}
