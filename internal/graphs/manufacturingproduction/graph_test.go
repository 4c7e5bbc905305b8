package manufacturingproduction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coagents/workflow-engine/internal/checkpoint"
	"github.com/coagents/workflow-engine/internal/executor"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

func newTestExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	reg := registry.New()
	Register(reg)
	return executor.New(reg, checkpoint.NewMemoryStore())
}

func initialState(itemCode string, qty float64) state.RunState {
	return state.Merge(state.NewBaseState("start"), state.RunState{
		"item_code":      itemCode,
		"item_name":      "Wooden Office Chair",
		"qty_to_produce": qty,
	})
}

// TestManufacturingShortagePath covers the branch where check_materials
// finds a shortage: create_material_request must suspend for approval
// before reaching create_stock_entry.
func TestManufacturingShortagePath(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState("CHAIR-WOODEN", 10), nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.Equal(t, true, out.State["material_shortage"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["material_request_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusCompleted, out.Status)
	assert.Equal(t, "completed", out.State.CurrentStep())
	assert.NotEmpty(t, out.State["quality_inspection_id"])
}

// TestManufacturingNoShortageSkipsApproval covers the no-shortage branch:
// create_material_request must skip straight to create_stock_entry
// without suspending.
func TestManufacturingNoShortageSkipsApproval(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState("BOLT-M6", 3), nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.Equal(t, false, out.State["material_shortage"])
	assert.Equal(t, "create_stock_entry", out.State.CurrentStep())
	assert.NotEmpty(t, out.State["stock_entry_id"])
	assert.Empty(t, out.State["material_request_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": false}, nil)
	require.Equal(t, executor.StatusRejected, out.Status)
	assert.Equal(t, "rejected", out.State.CurrentStep())
	require.NotEmpty(t, out.State.Errors())
	assert.Equal(t, "create_quality_inspection", out.State.Errors()[0].Step)
	assert.Contains(t, out.State.Errors()[0].Reason, "quality inspection")
}
