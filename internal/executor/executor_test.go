package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coagents/workflow-engine/internal/checkpoint"
	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

func simpleGraph() registry.CompiledGraph {
	a := node.NewFunc("a", func(ctx context.Context, s state.RunState) (node.Result, error) {
		return node.Advance(state.RunState{"touched_a": true}), nil
	})
	b := node.NewFunc("b", func(ctx context.Context, s state.RunState) (node.Result, error) {
		return node.Advance(state.RunState{"touched_b": true}), nil
	})
	return registry.CompiledGraph{
		Descriptor: registry.Descriptor{Name: "demo"},
		Entry:      "a",
		Nodes:      map[string]node.Node{"a": a, "b": b},
		Edges:      []node.Edge{{From: "a", To: "b"}},
	}
}

func approvalGraph() registry.CompiledGraph {
	gate := node.NewFunc("approve", func(ctx context.Context, s state.RunState) (node.Result, error) {
		if approved, ok := s.ApprovalDecision(); ok {
			if !approved {
				return node.Advance(state.RunState{"rejected": true}), nil
			}
			return node.Advance(state.RunState{"approved": true}), nil
		}
		return node.Suspend(node.SuspensionToken{NodeID: "approve", Reason: "awaiting_approval"}), nil
	})
	done := node.NewFunc("done", func(ctx context.Context, s state.RunState) (node.Result, error) {
		return node.Advance(nil), nil
	})
	return registry.CompiledGraph{
		Descriptor: registry.Descriptor{Name: "gated"},
		Entry:      "approve",
		Nodes:      map[string]node.Node{"approve": gate, "done": done},
		Edges: []node.Edge{
			{From: "approve", To: "done", When: func(s state.RunState) bool {
				v, _ := s["approved"].(bool)
				return v
			}},
		},
	}
}

func newTestExecutor(t *testing.T, loader func() (registry.CompiledGraph, error)) (*Executor, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	g, err := loader()
	require.NoError(t, err)
	reg.Register(g.Descriptor, loader)
	store := checkpoint.NewMemoryStore()
	return New(reg, store), reg
}

func TestExecuteCompletesSimpleGraph(t *testing.T) {
	ex, _ := newTestExecutor(t, func() (registry.CompiledGraph, error) { return simpleGraph(), nil })
	out := ex.Execute(context.Background(), "demo", "", state.RunState{}, nil)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, true, out.State["touched_a"])
	assert.Equal(t, true, out.State["touched_b"])
}

func TestExecuteSuspendsThenResumeApproves(t *testing.T) {
	ex, _ := newTestExecutor(t, func() (registry.CompiledGraph, error) { return approvalGraph(), nil })
	out := ex.Execute(context.Background(), "gated", "thread-approve", state.RunState{}, nil)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusPaused, out.Status)

	resumed := ex.Resume(context.Background(), "thread-approve", map[string]any{"approved": true}, nil)
	require.NoError(t, resumed.Err)
	assert.Equal(t, StatusCompleted, resumed.Status)
	assert.Equal(t, true, resumed.State["approved"])
}

func TestResumeDefaultsToNotApproved(t *testing.T) {
	ex, _ := newTestExecutor(t, func() (registry.CompiledGraph, error) { return approvalGraph(), nil })
	out := ex.Execute(context.Background(), "gated", "thread-default", state.RunState{}, nil)
	require.Equal(t, StatusPaused, out.Status)

	resumed := ex.Resume(context.Background(), "thread-default", map[string]any{}, nil)
	require.NoError(t, resumed.Err)
	assert.Equal(t, true, resumed.State["rejected"])
}

func TestDuplicateThreadIDConflict(t *testing.T) {
	ex, _ := newTestExecutor(t, func() (registry.CompiledGraph, error) { return approvalGraph(), nil })
	out := ex.Execute(context.Background(), "gated", "thread-dup", state.RunState{}, nil)
	require.Equal(t, StatusPaused, out.Status)

	again := ex.Execute(context.Background(), "gated", "thread-dup", state.RunState{}, nil)
	require.Error(t, again.Err)
}
