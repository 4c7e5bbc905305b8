package hotelo2c

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

func initialState() state.RunState {
	return state.Merge(state.NewBaseState("start"), state.RunState{
		"reservation_id":  "RES-001",
		"guest_name":      "John Doe",
		"room_number":     "101",
		"check_in_date":   "2025-10-01",
		"check_out_date":  "2025-10-02",
	})
}

// TestHotelO2CHappyPath matches SPEC_FULL.md §8's literal end-to-end
// scenario: two approval gates, both approved, ending completed with a
// folio and invoice id.
func TestHotelO2CHappyPath(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["folio_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusCompleted, out.Status)
	assert.Equal(t, "completed", out.State.CurrentStep())
	assert.NotEmpty(t, out.State["invoice_id"])
	assert.Equal(t, []string{"check_in", "create_folio", "add_charges", "check_out", "generate_invoice"}, out.State.StepsCompleted())
}

// TestHotelO2CRejection matches SPEC_FULL.md §8's rejection scenario:
// reject at check-in, ending rejected with the error recorded.
func TestHotelO2CRejection(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": false}, nil)
	require.Equal(t, executor.StatusRejected, out.Status)
	assert.Equal(t, "rejected", out.State.CurrentStep())
	require.NotEmpty(t, out.State.Errors())
	assert.Equal(t, "check_in", out.State.Errors()[0].Step)
}

// TestHotelO2CResumeDefaultsToRejected covers the default-safe decision
// when /resume is called without an explicit approval.
func TestHotelO2CResumeDefaultsToRejected(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{}, nil)
	require.Equal(t, executor.StatusRejected, out.Status)
}
