package stepkit

import (
	"context"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/state"
)

// ApprovalRequest describes why a run is asking for human sign-off.
// Grounded on approve.py's request_approval parameters.
type ApprovalRequest struct {
	NodeID      string
	Reason      string
	RiskLevel   string // "low" | "medium" | "high"
	Context     map[string]any
	OnApproved  func(s state.RunState) state.RunState
	OnRejected  func(s state.RunState) state.RunState
}

// RequestApproval implements the approval-gate pattern: on first entry
// (no approval_decision recorded yet) it suspends the run with a
// SuspensionToken carrying req.Reason; on resume, it reads
// approval_decision from state and applies OnApproved/OnRejected. An
// absent decision on resume defaults to not-approved — the executor
// itself enforces that default (see internal/executor.Resume), so this
// function only needs to branch on the two decided cases.
func RequestApproval(req ApprovalRequest) node.Node {
	return node.NewFunc(req.NodeID, func(_ context.Context, s state.RunState) (node.Result, error) {
		if approved, ok := s.ApprovalDecision(); ok {
			if approved {
				if req.OnApproved != nil {
					return node.Advance(req.OnApproved(s)), nil
				}
				return node.Advance(nil), nil
			}
			if req.OnRejected != nil {
				return node.Advance(req.OnRejected(s)), nil
			}
			return node.Advance(nil), nil
		}
		return node.Suspend(node.SuspensionToken{
			NodeID: req.NodeID,
			Reason: req.Reason,
			Data: map[string]any{
				"risk_level": req.RiskLevel,
				"context":    req.Context,
			},
		}), nil
	})
}
