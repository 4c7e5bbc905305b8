// Package retailfulfillment implements the retail order fulfillment
// workflow: inventory check, a conditional sales-order approval gate
// (low stock or large order), pick list, delivery note, and a
// conditional payment approval gate (large payments only). Grounded on
// original_source/services/workflows/src/retail/fulfillment_graph.py.
package retailfulfillment

import (
	"context"
	"fmt"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

const Name = "retail_fulfillment"

const largeOrderThreshold = 5000.00
const largePaymentThreshold = 1000.00

func Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		Name:           Name,
		DisplayName:    "Retail Order Fulfillment",
		Industry:       "retail",
		Tags:           []string{"fulfillment", "inventory", "payment"},
		Capabilities:   []string{"pick_list", "delivery_note", "payment_entry"},
		RequiredFields: []string{"customer_id", "customer_name", "order_items", "warehouse", "delivery_date"},
	}, load)
}

func load() (registry.CompiledGraph, error) {
	nodes := map[string]node.Node{
		"check_inventory":      node.NewFunc("check_inventory", checkInventory),
		"create_sales_order":   node.NewFunc("create_sales_order", createSalesOrder),
		"create_pick_list":     node.NewFunc("create_pick_list", createPickList),
		"create_delivery_note": node.NewFunc("create_delivery_note", createDeliveryNote),
		"create_payment_entry": node.NewFunc("create_payment_entry", createPaymentEntry),
		"workflow_completed":   node.NewFunc("workflow_completed", completed),
		"workflow_rejected":    node.NewFunc("workflow_rejected", rejected),
	}
	edges := []node.Edge{
		{From: "check_inventory", To: "create_sales_order"},
		{From: "create_pick_list", To: "create_delivery_note"},
		{From: "create_delivery_note", To: "create_payment_entry"},
	}
	return registry.CompiledGraph{Entry: "check_inventory", Nodes: nodes, Edges: edges}, nil
}

func orderItems(s state.RunState) []map[string]any {
	return asMaps(s["order_items"])
}

// asMaps normalizes a RunState field that may hold either []map[string]any
// (set directly by a node) or []any of map[string]any (after a round trip
// through state.Merge's JSON clone).
func asMaps(v any) []map[string]any {
	switch vv := v.(type) {
	case []map[string]any:
		return vv
	case []any:
		items := make([]map[string]any, 0, len(vv))
		for _, e := range vv {
			if m, ok := e.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	default:
		return nil
	}
}

func checkInventory(_ context.Context, s state.RunState) (node.Result, error) {
	warehouse, _ := s["warehouse"].(string)
	var lowStock []map[string]any
	for _, item := range orderItems(s) {
		itemCode, _ := item["item_code"].(string)
		required, _ := item["qty"].(float64)
		available := availableStock(itemCode, warehouse)
		remaining := available - required
		if remaining < required*0.2 || remaining < 10 {
			lowStock = append(lowStock, map[string]any{
				"item_code":       itemCode,
				"required":        required,
				"available":       available,
				"remaining_after": remaining,
			})
		}
	}
	return node.Advance(state.RunState{
		"low_stock_items": lowStock,
	}), nil
}

// createSalesOrder only suspends for approval when low stock was
// detected or the order total exceeds largeOrderThreshold; otherwise it
// advances straight to create_pick_list.
func createSalesOrder(_ context.Context, s state.RunState) (node.Result, error) {
	orderTotal := 0.0
	for _, item := range orderItems(s) {
		qty, _ := item["qty"].(float64)
		rate, _ := item["rate"].(float64)
		orderTotal += qty * rate
	}
	lowStock := asMaps(s["low_stock_items"])
	needsApproval := len(lowStock) > 0 || orderTotal > largeOrderThreshold

	if !needsApproval {
		customerID, _ := s["customer_id"].(string)
		return node.Goto("create_pick_list", state.RunState{
			"sales_order_id": fmt.Sprintf("SO-%s-001", customerID),
			"order_total":    orderTotal,
		}), nil
	}

	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			customerID, _ := s["customer_id"].(string)
			return node.Goto("create_pick_list", state.RunState{
				"sales_order_id":             fmt.Sprintf("SO-%s-001", customerID),
				"order_total":                orderTotal,
				state.FieldApprovalDecision:  nil,
				state.FieldPendingApproval:   false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "create_sales_order", "rejected due to inventory concerns or order value", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	riskLevel := "medium"
	if orderTotal > largeOrderThreshold {
		riskLevel = "high"
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "create_sales_order",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":       "create_sales_order",
			"risk_level":      riskLevel,
			"order_total":     orderTotal,
			"low_stock_items": lowStock,
			"details": map[string]any{
				"customer_name": s["customer_name"],
				"customer_id":   s["customer_id"],
				"order_items":   s["order_items"],
			},
		},
	}), nil
}

func createPickList(_ context.Context, s state.RunState) (node.Result, error) {
	salesOrderID, _ := s["sales_order_id"].(string)
	return node.Advance(state.RunState{"pick_list_id": fmt.Sprintf("PL-%s", salesOrderID)}), nil
}

func createDeliveryNote(_ context.Context, s state.RunState) (node.Result, error) {
	salesOrderID, _ := s["sales_order_id"].(string)
	return node.Advance(state.RunState{"delivery_note_id": fmt.Sprintf("DN-%s", salesOrderID)}), nil
}

// createPaymentEntry auto-approves payments under largePaymentThreshold;
// larger payments require explicit approval before reaching
// workflow_completed.
func createPaymentEntry(_ context.Context, s state.RunState) (node.Result, error) {
	orderTotal, _ := s["order_total"].(float64)
	salesOrderID, _ := s["sales_order_id"].(string)

	if orderTotal < largePaymentThreshold {
		return node.Goto("workflow_completed", state.RunState{
			"payment_entry_id": fmt.Sprintf("PE-%s", salesOrderID),
		}), nil
	}

	if approved, ok := s.ApprovalDecision(); ok {
		if approved {
			return node.Goto("workflow_completed", state.RunState{
				"payment_entry_id":           fmt.Sprintf("PE-%s", salesOrderID),
				state.FieldApprovalDecision: nil,
				state.FieldPendingApproval:  false,
			}), nil
		}
		return node.Goto("workflow_rejected", state.Merge(
			state.AppendError(s, "create_payment_entry", "payment processing rejected", "high"),
			state.RunState{state.FieldApprovalDecision: nil, state.FieldPendingApproval: false},
		)), nil
	}
	return node.Suspend(node.SuspensionToken{
		NodeID: "create_payment_entry",
		Reason: "awaiting_approval",
		Data: map[string]any{
			"operation":  "create_payment_entry",
			"risk_level": "high",
			"details": map[string]any{
				"sales_order_id":   s["sales_order_id"],
				"delivery_note_id": s["delivery_note_id"],
				"amount":           orderTotal,
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

// availableStock is a placeholder lookup standing in for the original's
// warehouse stock query (out of scope: no ERP backend is wired here).
func availableStock(itemCode, _ string) float64 {
	levels := map[string]float64{
		"LAPTOP-DELL-I5": 25.0,
		"MOUSE-WIRELESS": 150.0,
		"KEYBOARD-MECH":  45.0,
		"MONITOR-24":     12.0,
		"HDMI-CABLE":     200.0,
	}
	if v, ok := levels[itemCode]; ok {
		return v
	}
	return 100.0
}
