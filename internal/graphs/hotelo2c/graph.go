// Package hotelo2c implements the hotel order-to-cash workflow: guest
// check-in, folio creation, charge posting, checkout, and invoicing.
// Grounded on original_source/services/workflows/src/hotel/o2c_graph.py,
// re-expressed as node.Node bodies over the sum-typed node.Result instead
// of LangGraph's Command/interrupt, per SPEC_FULL.md §8's literal
// end-to-end scenario.
package hotelo2c

import (
	"context"
	"fmt"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

// Name is this graph's registry key.
const Name = "hotel_o2c"

// Register adds this graph's descriptor and loader to r.
func Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		Name:           Name,
		DisplayName:    "Hotel Order-to-Cash",
		Industry:       "hotel",
		Tags:           []string{"o2c", "approval-gated"},
		Capabilities:   []string{"check_in", "folio", "invoicing"},
		RequiredFields: []string{"reservation_id", "guest_name", "room_number", "check_in_date", "check_out_date"},
	}, load)
}

func load() (registry.CompiledGraph, error) {
	nodes := map[string]node.Node{
		"check_in":           node.NewFunc("check_in", checkInGuest),
		"create_folio":       node.NewFunc("create_folio", createFolio),
		"add_charges":        node.NewFunc("add_charges", addCharges),
		"check_out":          node.NewFunc("check_out", checkOutGuest),
		"generate_invoice":   node.NewFunc("generate_invoice", generateInvoice),
		"workflow_completed": node.NewFunc("workflow_completed", completed),
		"workflow_rejected":  node.NewFunc("workflow_rejected", rejected),
	}
	edges := []node.Edge{
		{From: "create_folio", To: "add_charges"},
		{From: "add_charges", To: "check_out"},
		{From: "check_out", To: "generate_invoice"},
	}
	return registry.CompiledGraph{Entry: "check_in", Nodes: nodes, Edges: edges}, nil
}

// checkInGuest is an approval-gated node: REQUIRES APPROVAL, per the
// original's interrupt() call with risk_level "medium". The node
// explicitly picks its successor by name rather than relying on declared
// edges, mirroring the original's Command(goto=...) routing. Its node id
// is "check_in" (not "check_in_guest") so steps_completed carries the
// same short label the original appends (o2c_graph.py:77).
func checkInGuest(_ context.Context, s state.RunState) (node.Result, error) {
	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			return node.Goto("create_folio", state.RunState{
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "check_in", "User rejected check-in", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "check_in",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":  "check_in_guest",
			"risk_level": "medium",
			"details": map[string]any{
				"guest_name":      s["guest_name"],
				"room_number":     s["room_number"],
				"check_in_date":   s["check_in_date"],
				"check_out_date":  s["check_out_date"],
				"reservation_id":  s["reservation_id"],
			},
		},
	}), nil
}

func createFolio(_ context.Context, s state.RunState) (node.Result, error) {
	reservationID, _ := s["reservation_id"].(string)
	folioID := fmt.Sprintf("FO-%s", reservationID)
	return node.Advance(state.RunState{"folio_id": folioID}), nil
}

func addCharges(_ context.Context, s state.RunState) (node.Result, error) {
	const roomRate = 150.00
	const taxRate = 0.10
	total := roomRate
	tax := total * taxRate
	return node.Advance(state.RunState{
		"room_rate":    roomRate,
		"tax":          tax,
		"grand_total":  total + tax,
	}), nil
}

func checkOutGuest(_ context.Context, s state.RunState) (node.Result, error) {
	return node.Advance(nil), nil
}

// generateInvoice is the second approval gate, risk_level "high".
func generateInvoice(_ context.Context, s state.RunState) (node.Result, error) {
	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			reservationID, _ := s["reservation_id"].(string)
			return node.Goto("workflow_completed", state.RunState{
				"invoice_id":                fmt.Sprintf("INV-%s", reservationID),
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "generate_invoice", "User rejected invoice", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "generate_invoice",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":  "generate_invoice",
			"risk_level": "high",
			"details": map[string]any{
				"guest_name": s["guest_name"],
				"folio_id":   s["folio_id"],
				"room_rate":  s["room_rate"],
				"tax":        s["tax"],
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
