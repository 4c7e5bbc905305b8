package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendErrorAppendsRecord(t *testing.T) {
	s := NewBaseState("start")
	s = Merge(s, AppendError(s, "check_in", "rejected by approver", "high"))
	s = Merge(s, AppendError(s, "generate_invoice", "rejected by approver", "high"))

	errs := s.Errors()
	assert.Len(t, errs, 2)
	assert.Equal(t, "check_in", errs[0].Step)
	assert.Equal(t, "rejected by approver", errs[0].Reason)
	assert.Equal(t, "high", errs[0].Severity)
	assert.Equal(t, "generate_invoice", errs[1].Step)
}

// TestErrorsSurviveCloneRoundTrip guards against the []ErrorRecord →
// []any-of-map[string]any conversion Clone's JSON round trip performs;
// Errors() must normalize either shape identically.
func TestErrorsSurviveCloneRoundTrip(t *testing.T) {
	s := NewBaseState("start")
	s = Merge(s, AppendError(s, "check_in", "rejected", "high"))

	cloned := s.Clone()
	_, ok := cloned[FieldErrors].([]ErrorRecord)
	assert.False(t, ok, "Clone is expected to flatten ErrorRecord into map[string]any via JSON")

	errs := cloned.Errors()
	assert.Len(t, errs, 1)
	assert.Equal(t, "check_in", errs[0].Step)
	assert.Equal(t, "rejected", errs[0].Reason)
	assert.Equal(t, "high", errs[0].Severity)
}

func TestAppendStepSkipsNothingAtStatePackageLevel(t *testing.T) {
	s := NewBaseState("start")
	s = Merge(s, AppendStep(s, "check_in"))
	s = Merge(s, AppendStep(s, "create_folio"))

	assert.Equal(t, []string{"check_in", "create_folio"}, s.StepsCompleted())
	assert.Equal(t, "create_folio", s.CurrentStep())
}
