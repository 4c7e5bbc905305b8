package educationadmissions

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
		"applicant_name":  "Alice Rodriguez",
		"applicant_email": "alice.rodriguez@email.com",
		"program_name":    "Computer Science",
		"academic_score":  3.7,
	})
}

// TestEducationAdmissionsHappyPath covers both approval gates approved,
// ending completed with a student enrolled.
func TestEducationAdmissionsHappyPath(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["application_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusPaused, out.Status)
	assert.NotEmpty(t, out.State["interview_id"])
	assert.NotEmpty(t, out.State["assessment_id"])

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusCompleted, out.Status)
	assert.Equal(t, "completed", out.State.CurrentStep())
	assert.Equal(t, "enrolled", out.State["application_status"])
	assert.NotEmpty(t, out.State["student_enrollment_id"])
}

// TestEducationAdmissionsDecisionRejected covers the critical admission
// gate being rejected after interview scheduling was approved.
func TestEducationAdmissionsDecisionRejected(t *testing.T) {
	exec := newTestExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, Name, "", initialState(), nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": true}, nil)
	require.Equal(t, executor.StatusPaused, out.Status)

	out = exec.Resume(ctx, out.ThreadID, map[string]any{"approved": false}, nil)
	require.Equal(t, executor.StatusRejected, out.Status)
	assert.Equal(t, "rejected", out.State.CurrentStep())
	assert.Empty(t, out.State["student_enrollment_id"])
	require.NotEmpty(t, out.State.Errors())
	assert.Equal(t, "make_admission_decision", out.State.Errors()[0].Step)
	assert.Contains(t, out.State.Errors()[0].Reason, "admission decision")
}
