// Package manufacturingproduction implements the manufacturing
// production workflow: material availability check, work order, a
// conditional material-request approval gate (skipped when no
// shortage), stock entry, and a quality-inspection approval gate.
// Grounded on
// original_source/services/workflows/src/manufacturing/production_graph.py.
package manufacturingproduction

import (
	"context"
	"fmt"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

const Name = "manufacturing_production"

func Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		Name:           Name,
		DisplayName:    "Manufacturing Production",
		Industry:       "manufacturing",
		Tags:           []string{"production", "procurement", "quality"},
		Capabilities:   []string{"material_request", "quality_inspection"},
		RequiredFields: []string{"item_code", "item_name", "qty_to_produce"},
	}, load)
}

func load() (registry.CompiledGraph, error) {
	nodes := map[string]node.Node{
		"check_materials":           node.NewFunc("check_materials", checkMaterials),
		"create_work_order":         node.NewFunc("create_work_order", createWorkOrder),
		"create_material_request":   node.NewFunc("create_material_request", createMaterialRequest),
		"create_stock_entry":        node.NewFunc("create_stock_entry", createStockEntry),
		"create_quality_inspection": node.NewFunc("create_quality_inspection", createQualityInspection),
		"workflow_completed":        node.NewFunc("workflow_completed", completed),
		"workflow_rejected":         node.NewFunc("workflow_rejected", rejected),
	}
	edges := []node.Edge{
		{From: "check_materials", To: "create_work_order"},
		{From: "create_work_order", To: "create_material_request"},
		{From: "create_stock_entry", To: "create_quality_inspection"},
	}
	return registry.CompiledGraph{Entry: "check_materials", Nodes: nodes, Edges: edges}, nil
}

func checkMaterials(_ context.Context, s state.RunState) (node.Result, error) {
	itemCode, _ := s["item_code"].(string)
	qty, _ := s["qty_to_produce"].(float64)
	shortage := qty > requiredStock(itemCode)
	return node.Advance(state.RunState{
		"bom_id":            fmt.Sprintf("BOM-%s-001", itemCode),
		"material_shortage": shortage,
	}), nil
}

func createWorkOrder(_ context.Context, s state.RunState) (node.Result, error) {
	itemCode, _ := s["item_code"].(string)
	return node.Advance(state.RunState{"work_order_id": fmt.Sprintf("WO-%s-001", itemCode)}), nil
}

// createMaterialRequest only requires approval when check_materials found a
// shortage; otherwise it proceeds directly to stock entry, matching the
// original's `if not state["material_shortage"]: ... goto create_stock_entry`.
func createMaterialRequest(_ context.Context, s state.RunState) (node.Result, error) {
	shortage, _ := s["material_shortage"].(bool)
	if !shortage {
		return node.Goto("create_stock_entry", nil), nil
	}

	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			workOrderID, _ := s["work_order_id"].(string)
			return node.Goto("create_stock_entry", state.RunState{
				"material_request_id":       fmt.Sprintf("MR-%s", workOrderID),
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "create_material_request", "procurement rejected", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "create_material_request",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":  "create_material_request",
			"risk_level": "high",
			"details": map[string]any{
				"work_order_id": s["work_order_id"],
				"item_code":     s["item_code"],
			},
		},
	}), nil
}

func createStockEntry(_ context.Context, s state.RunState) (node.Result, error) {
	workOrderID, _ := s["work_order_id"].(string)
	return node.Advance(state.RunState{"stock_entry_id": fmt.Sprintf("STE-%s", workOrderID)}), nil
}

func createQualityInspection(_ context.Context, s state.RunState) (node.Result, error) {
	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			workOrderID, _ := s["work_order_id"].(string)
			return node.Goto("workflow_completed", state.RunState{
				"quality_inspection_id":     fmt.Sprintf("QI-%s", workOrderID),
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "create_quality_inspection", "failed quality inspection", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "create_quality_inspection",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":                  "create_quality_inspection",
			"risk_level":                 "high",
			"requires_quality_approval":  true,
			"details": map[string]any{
				"work_order_id": s["work_order_id"],
				"item_name":     s["item_name"],
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

// requiredStock is a placeholder lookup standing in for the original's
// BOM-driven stock check (out of scope: no ERP backend is wired here).
func requiredStock(itemCode string) float64 {
	if itemCode == "" {
		return 100
	}
	return 5
}
