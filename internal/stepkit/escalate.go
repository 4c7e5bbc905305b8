package stepkit

import (
	"context"
	"fmt"
	"time"
)

// Severity mirrors escalate.py's severity levels, used both to pick a
// subject-line prefix and (for the convenience wrappers below) to decide
// how urgently an issue should be raised.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) emoji() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityHigh:
		return "🟠"
	case SeverityMedium:
		return "🟡"
	default:
		return "🔵"
	}
}

// EscalationResult mirrors escalate.py's EscalationResult TypedDict.
type EscalationResult struct {
	Success        bool
	NotificationID string
	Error          string
}

// EscalateIssue raises workflowName's issueType at the given severity,
// building a subject/message from context and delivering it through
// notifier. Grounded on escalate.py's escalate_issue: if notifier is nil,
// it degrades to a local mock success exactly like the Python original's
// "frappe_client is None" branch.
func EscalateIssue(ctx context.Context, notifier Notifier, workflowName, issueType string, severity Severity, description string, escalationContext map[string]any) EscalationResult {
	subject := fmt.Sprintf("%s [%s] %s: %s", severity.emoji(), severity, workflowName, issueType)

	if notifier == nil {
		return EscalationResult{Success: true, NotificationID: fmt.Sprintf("NOTIF-%d", time.Now().UnixMilli())}
	}

	err := notifier.Notify(ctx, Notification{
		Type:    "error",
		Title:   subject,
		Message: description,
		Context: escalationContext,
	})
	if err != nil {
		return EscalationResult{Success: false, Error: err.Error()}
	}
	return EscalationResult{Success: true, NotificationID: fmt.Sprintf("NOTIF-%d", time.Now().UnixMilli())}
}

// EscalateTimeout escalates a step that exceeded its deadline; severity
// scales with how long it had been waiting, matching escalate_timeout's
// 2-hour threshold.
func EscalateTimeout(ctx context.Context, notifier Notifier, workflowName, step string, waited time.Duration, escalationContext map[string]any) EscalationResult {
	sev := SeverityMedium
	if waited > 2*time.Hour {
		sev = SeverityHigh
	}
	return EscalateIssue(ctx, notifier, workflowName, "timeout", sev,
		fmt.Sprintf("step %q has been pending for %s", step, waited.Round(time.Minute)), escalationContext)
}

// EscalateError always raises at SeverityCritical, matching
// escalate_error's fixed severity.
func EscalateError(ctx context.Context, notifier Notifier, workflowName, step string, cause error, escalationContext map[string]any) EscalationResult {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return EscalateIssue(ctx, notifier, workflowName, "error", SeverityCritical,
		fmt.Sprintf("step %q failed: %s", step, msg), escalationContext)
}

// EscalateApprovalRequired raises an approval-gate suspension as an
// escalation, mapping riskLevel to severity the way
// escalate_approval_required does.
func EscalateApprovalRequired(ctx context.Context, notifier Notifier, workflowName, step, riskLevel string, escalationContext map[string]any) EscalationResult {
	sev := SeverityLow
	switch riskLevel {
	case "high":
		sev = SeverityHigh
	case "medium":
		sev = SeverityMedium
	}
	return EscalateIssue(ctx, notifier, workflowName, "approval_required", sev,
		fmt.Sprintf("step %q requires approval (risk=%s)", step, riskLevel), escalationContext)
}
