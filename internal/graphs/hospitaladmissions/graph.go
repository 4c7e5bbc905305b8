// Package hospitaladmissions implements the hospital admissions
// workflow: patient record, admission scheduling, clinical order set
// (safety-critical approval gate), encounter documentation, and
// invoicing. Grounded on
// original_source/services/workflows/src/hospital/admissions_graph.py.
package hospitaladmissions

import (
	"context"
	"fmt"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

const Name = "hospital_admissions"

func Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		Name:           Name,
		DisplayName:    "Hospital Admissions",
		Industry:       "hospital",
		Tags:           []string{"admissions", "safety-critical"},
		Capabilities:   []string{"clinical_orders", "encounter", "invoicing"},
		RequiredFields: []string{"patient_name", "admission_date", "primary_diagnosis"},
	}, load)
}

func load() (registry.CompiledGraph, error) {
	nodes := map[string]node.Node{
		"create_patient":      node.NewFunc("create_patient", createPatient),
		"schedule_admission":  node.NewFunc("schedule_admission", scheduleAdmission),
		"create_order_set":    node.NewFunc("create_order_set", createOrderSet),
		"create_encounter":    node.NewFunc("create_encounter", createEncounter),
		"generate_invoice":    node.NewFunc("generate_invoice", generateInvoice),
		"workflow_completed":  node.NewFunc("workflow_completed", completed),
		"workflow_rejected":   node.NewFunc("workflow_rejected", rejected),
	}
	edges := []node.Edge{
		{From: "create_patient", To: "schedule_admission"},
		{From: "schedule_admission", To: "create_order_set"},
		{From: "create_encounter", To: "generate_invoice"},
	}
	return registry.CompiledGraph{Entry: "create_patient", Nodes: nodes, Edges: edges}, nil
}

func createPatient(_ context.Context, s state.RunState) (node.Result, error) {
	name, _ := s["patient_name"].(string)
	id := fmt.Sprintf("PAT-%s", shorten(name))
	return node.Advance(state.RunState{"patient_id": id}), nil
}

func scheduleAdmission(_ context.Context, s state.RunState) (node.Result, error) {
	patientID, _ := s["patient_id"].(string)
	return node.Advance(state.RunState{"appointment_id": fmt.Sprintf("APT-%s-001", patientID)}), nil
}

// createOrderSet is the safety-critical approval gate: clinical orders
// directly affect patient care (risk_level "high").
func createOrderSet(_ context.Context, s state.RunState) (node.Result, error) {
	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			patientID, _ := s["patient_id"].(string)
			return node.Goto("create_encounter", state.RunState{
				"order_set_id":              fmt.Sprintf("OS-%s-001", patientID),
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "create_order_set", "clinical orders rejected by physician", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	protocol, _ := s["clinical_protocol"].(string)
	if protocol == "" {
		protocol = "standard_admission"
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "create_order_set",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":                  "create_order_set",
			"risk_level":                 "high",
			"requires_physician_approval": true,
			"details": map[string]any{
				"patient_id":         s["patient_id"],
				"primary_diagnosis":  s["primary_diagnosis"],
				"protocol":           protocol,
			},
		},
	}), nil
}

func createEncounter(_ context.Context, s state.RunState) (node.Result, error) {
	patientID, _ := s["patient_id"].(string)
	return node.Advance(state.RunState{"encounter_id": fmt.Sprintf("ENC-%s-001", patientID)}), nil
}

func generateInvoice(_ context.Context, s state.RunState) (node.Result, error) {
	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			patientID, _ := s["patient_id"].(string)
			return node.Goto("workflow_completed", state.RunState{
				"invoice_id":                fmt.Sprintf("INV-%s-001", patientID),
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "generate_invoice", "rejected", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	const admissionFee, labCharges, medCharges, procCharges = 500.00, 350.00, 250.00, 400.00
	return node.Suspend(node.SuspensionToken{
		NodeID: "generate_invoice",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":  "generate_invoice",
			"risk_level": "high",
			"details": map[string]any{
				"grand_total": admissionFee + labCharges + medCharges + procCharges,
			},
		},
	}), nil
}

func completed(_ context.Context, s state.RunState) (node.Result, error) {
	return node.Advance(state.RunState{state.FieldCurrentStep: "completed"}), nil
}

func rejected(_ context.Context, s state.RunState) (node.Result, error) {
	return node.Advance(state.RunState{state.FieldCurrentStep: "rejected"}), nil
}

func shorten(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
