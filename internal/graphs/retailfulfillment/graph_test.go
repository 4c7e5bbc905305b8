package retailfulfillment

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

func largeOrderState() state.RunState {
	return state.Merge(state.NewBaseState("start"), state.RunState{
		"customer_id":   "CUST-001",
		"customer_name": "TechCorp Solutions",
		"warehouse":     "Main Store - WH",
		"delivery_date": "2025-10-10",
		"order_items": []any{
			map[string]any{"item_code": "LAPTOP-DELL-I5", "item_name": "Dell Laptop i5", "qty": 10.0, "rate": 850.00},
			map[string]any{"item_code": "MONITOR-24", "item_name": "24-inch Monitor", "qty": 8.0, "rate": 200.00},
		},
	})
}

func smallOrderState() state.RunState {
	return state.Merge(state.NewBaseState("start"), state.RunState{
		"customer_id":   "CUST-002",
		"customer_name": "Small Shop",
		"warehouse":     "Main Store - WH",
		"delivery_date": "2025-10-12",
		"order_items": []any{
			map[string]any{"item_code": "HDMI-CABLE", "item_name": "HDMI Cable", "qty": 2.0, "rate": 15.00},
		},
	})
}

// TestRetailFulfillmentLargeOrderRequiresBothApprovals covers the
// large-order + low-stock path, where both gates suspend.
func TestRetailFulfillmentLargeOrderRequiresBothApprovals(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", largeOrderState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["sales_order_id"])
	assert.NotEmpty(t, out.State["delivery_note_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusCompleted, out.Status)
	assert.Equal(t, "completed", out.State.CurrentStep())
	assert.NotEmpty(t, out.State["payment_entry_id"])
}

// TestRetailFulfillmentSmallOrderSkipsBothApprovals covers the small,
// well-stocked order path, where neither gate suspends.
func TestRetailFulfillmentSmallOrderSkipsBothApprovals(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", smallOrderState(), nil)
	require.Equal(t, executor.StatusCompleted, out.Status)
	assert.Equal(t, "completed", out.State.CurrentStep())
	assert.NotEmpty(t, out.State["sales_order_id"])
	assert.NotEmpty(t, out.State["payment_entry_id"])
}

// TestRetailFulfillmentSalesOrderRejected covers rejection at the sales
// order gate.
func TestRetailFulfillmentSalesOrderRejected(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", largeOrderState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": false}, nil)
	require.Equal(t, executor.StatusRejected, out.Status)
	assert.Equal(t, "rejected", out.State.CurrentStep())
	require.NotEmpty(t, out.State.Errors())
	assert.Equal(t, "create_sales_order", out.State.Errors()[0].Step)
}
