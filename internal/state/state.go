// Package state defines the run-state representation shared by every
// registered graph: a JSON-like string-keyed map carrying a common base
// record plus whatever industry-specific fields a graph's nodes add.
package state

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Base field names as used by the executor and the invariants in
// SPEC_FULL.md §3.
const (
	FieldCurrentStep      = "current_step"
	FieldStepsCompleted   = "steps_completed"
	FieldErrors           = "errors"
	FieldPendingApproval  = "pending_approval"
	FieldApprovalDecision = "approval_decision"
	FieldMetadata         = "metadata"
)

// Legacy base field names auto-filled per spec.md §4.1's literal wording,
// inherited from the distilled registry.py's validate_initial_state.
const (
	FieldMessages    = "messages"
	FieldSessionID   = "session_id"
	FieldStepCount   = "step_count"
	FieldCurrentNode = "current_node"
	FieldError       = "error"
)

// RunState is the opaque, JSON-serializable state map threaded through a
// run. It is intentionally a map rather than a struct so the registry's
// validate operation and the executor's delta-merge operation work
// uniformly across every registered graph, per the "tagged variant... plus
// common base record" construction in SPEC_FULL.md §3.
type RunState map[string]any

// NewBaseState builds the shared base record described in spec.md §4.7,
// with current_step set to initialStep. Both the §3 base-field set and
// the §4.1 legacy auto-fill set are populated — see DESIGN.md's
// "State base-field union" entry.
func NewBaseState(initialStep string) RunState {
	if initialStep == "" {
		initialStep = "start"
	}
	return RunState{
		FieldCurrentStep:      initialStep,
		FieldStepsCompleted:   []string{},
		FieldErrors:           []ErrorRecord{},
		FieldPendingApproval:  false,
		FieldApprovalDecision: nil,

		FieldMessages:    []any{},
		FieldSessionID:   nil,
		FieldStepCount:   0,
		FieldCurrentNode: nil,
		FieldError:       nil,
	}
}

// Clone returns a deep-enough copy suitable for passing to a node body
// without letting it mutate the caller's map in place; nested slices and
// maps are copied via a JSON round trip, which is safe since RunState is
// defined to be JSON-like.
func (s RunState) Clone() RunState {
	b, err := json.Marshal(s)
	if err != nil {
		// RunState is constructed only from JSON-marshalable values by
		// this package and the registry's validator; a marshal failure
		// here indicates caller misuse of the map, not a recoverable
		// runtime condition.
		panic("state: RunState contains non-JSON-marshalable value: " + err.Error())
	}
	out := RunState{}
	if err := json.Unmarshal(b, &out); err != nil {
		panic("state: clone unmarshal: " + err.Error())
	}
	return out
}

// Merge applies delta on top of s, field by field, returning a new
// RunState. This is the reducer spec.md §3 calls "state-delta merging":
// each top-level key in delta overwrites the same key in s.
func Merge(s, delta RunState) RunState {
	out := s.Clone()
	for k, v := range delta {
		out[k] = v
	}
	return out
}

func (s RunState) CurrentStep() string {
	v, _ := s[FieldCurrentStep].(string)
	return v
}

func (s RunState) StepsCompleted() []string {
	return toStringSlice(s[FieldStepsCompleted])
}

// AppendStep returns a delta that appends step to steps_completed and
// sets current_step to step.
func AppendStep(current RunState, step string) RunState {
	completed := append(append([]string{}, current.StepsCompleted()...), step)
	return RunState{
		FieldCurrentStep:    step,
		FieldStepsCompleted: completed,
	}
}

// ErrorRecord is one entry of the errors list: the step that raised it,
// why, and how severe, per spec.md §3's `{step, reason, severity,
// details?}` shape. The original's equivalent dicts
// (o2c_graph.py:88-95, 220-227) carry only step/reason; severity is
// this port's addition to satisfy the full record shape.
type ErrorRecord struct {
	Step     string `json:"step"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

func (s RunState) Errors() []ErrorRecord {
	return asErrorRecords(s[FieldErrors])
}

// AppendError returns a delta that appends an {step, reason, severity}
// record to the errors list.
func AppendError(current RunState, step, reason, severity string) RunState {
	rec := ErrorRecord{Step: step, Reason: reason, Severity: severity}
	errs := append(append([]ErrorRecord{}, current.Errors()...), rec)
	return RunState{FieldErrors: errs}
}

// asErrorRecords normalizes a FieldErrors value that may hold either
// []ErrorRecord (set directly by AppendError) or []any of
// map[string]any (after a round trip through Merge's JSON clone).
func asErrorRecords(v any) []ErrorRecord {
	switch vv := v.(type) {
	case []ErrorRecord:
		return vv
	case []any:
		out := make([]ErrorRecord, 0, len(vv))
		for _, e := range vv {
			switch m := e.(type) {
			case map[string]any:
				out = append(out, errorRecordFromMap(m))
			case ErrorRecord:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func errorRecordFromMap(m map[string]any) ErrorRecord {
	var rec ErrorRecord
	if v, ok := m["step"].(string); ok {
		rec.Step = v
	}
	if v, ok := m["reason"].(string); ok {
		rec.Reason = v
	}
	if v, ok := m["severity"].(string); ok {
		rec.Severity = v
	}
	return rec
}

func (s RunState) PendingApproval() bool {
	v, _ := s[FieldPendingApproval].(bool)
	return v
}

func (s RunState) ApprovalDecision() (bool, bool) {
	v, ok := s[FieldApprovalDecision].(bool)
	return v, ok
}

func (s RunState) Metadata() map[string]any {
	v, _ := s[FieldMetadata].(map[string]any)
	return v
}

// Get reads an arbitrary (possibly industry-specific) field by JSON path,
// using gjson over a marshaled view of the map — this lets callers read
// nested fields (e.g. "metadata.risk_level") without a type assertion
// chain.
func (s RunState) Get(path string) gjson.Result {
	b, _ := json.Marshal(s)
	return gjson.GetBytes(b, path)
}

// Set returns a new RunState with path set to value, using sjson so
// nested paths can be set without manually walking intermediate maps.
func Set(s RunState, path string, value any) (RunState, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(b, path, value)
	if err != nil {
		return nil, err
	}
	result := RunState{}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
