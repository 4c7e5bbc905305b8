package hospitaladmissions

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
		"patient_name":      "Jane Roe",
		"admission_date":    "2025-11-01",
		"primary_diagnosis": "appendicitis",
	})
}

// TestHospitalAdmissionsHappyPath covers both approval gates approved,
// ending completed with an encounter and invoice recorded.
func TestHospitalAdmissionsHappyPath(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["patient_id"])
	assert.NotEmpty(t, out.State["appointment_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["order_set_id"])
	assert.NotEmpty(t, out.State["encounter_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusCompleted, out.Status)
	assert.Equal(t, "completed", out.State.CurrentStep())
	assert.NotEmpty(t, out.State["invoice_id"])
}

// TestHospitalAdmissionsClinicalOrdersRejected covers the safety-critical
// gate: a physician rejecting clinical orders ends the run rejected
// without ever reaching create_encounter.
func TestHospitalAdmissionsClinicalOrdersRejected(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": false}, nil)
	require.Equal(t, executor.StatusRejected, out.Status)
	assert.Equal(t, "rejected", out.State.CurrentStep())
	assert.Empty(t, out.State["encounter_id"])
	require.NotEmpty(t, out.State.Errors())
	assert.Equal(t, "create_order_set", out.State.Errors()[0].Step)
	assert.Contains(t, out.State.Errors()[0].Reason, "clinical orders")
}
