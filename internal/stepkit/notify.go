package stepkit

import (
	"context"
	"fmt"

	"github.com/coagents/workflow-engine/internal/stream"
)

// NotificationResult mirrors notify.py's NotificationResult TypedDict.
type NotificationResult struct {
	Sent  bool
	Error string
}

// SendNotification sends a typed {info|success|warning|error} message.
// If sink is non-nil, a stream frame is also emitted so a connected SSE
// client sees it immediately (notify.py's emit_callback("frame", ...)).
// If notifier is non-nil, the message is additionally forwarded
// out-of-band. Grounded on notify.py's send_notification.
func SendNotification(ctx context.Context, sink *stream.Sink, notifier Notifier, notifType, title, message string, notifyContext map[string]any) NotificationResult {
	if sink != nil {
		sink.Send(stream.Event{
			Type:    stream.EventStepComplete,
			Message: fmt.Sprintf("[%s] %s: %s", notifType, title, message),
		})
	}
	if notifier == nil {
		return NotificationResult{Sent: true}
	}
	err := notifier.Notify(ctx, Notification{Type: notifType, Title: title, Message: message, Context: notifyContext})
	if err != nil {
		return NotificationResult{Sent: false, Error: err.Error()}
	}
	return NotificationResult{Sent: true}
}

// NotifyProgress sends a progress update computed as current/total,
// matching notify_progress's percentage calculation.
func NotifyProgress(ctx context.Context, sink *stream.Sink, notifier Notifier, workflowName string, current, total int) NotificationResult {
	pct := 0
	if total > 0 {
		pct = (current * 100) / total
	}
	return SendNotification(ctx, sink, notifier, "info", workflowName,
		fmt.Sprintf("progress: %d/%d (%d%%)", current, total, pct), nil)
}

// NotifyWorkflowStarted matches notify_workflow_started.
func NotifyWorkflowStarted(ctx context.Context, sink *stream.Sink, notifier Notifier, workflowName, threadID string) NotificationResult {
	return SendNotification(ctx, sink, notifier, "info", workflowName, "workflow started", map[string]any{"thread_id": threadID})
}

// NotifyWorkflowCompleted matches notify_workflow_completed.
func NotifyWorkflowCompleted(ctx context.Context, sink *stream.Sink, notifier Notifier, workflowName, threadID string) NotificationResult {
	return SendNotification(ctx, sink, notifier, "success", workflowName, "workflow completed", map[string]any{"thread_id": threadID})
}

// NotifyWorkflowFailed matches notify_workflow_failed.
func NotifyWorkflowFailed(ctx context.Context, sink *stream.Sink, notifier Notifier, workflowName, threadID, reason string) NotificationResult {
	return SendNotification(ctx, sink, notifier, "error", workflowName, "workflow failed: "+reason, map[string]any{"thread_id": threadID})
}

// NotifyApprovalRequested matches notify_approval_requested, including a
// risk-level emoji prefix on the title.
func NotifyApprovalRequested(ctx context.Context, sink *stream.Sink, notifier Notifier, workflowName, threadID, riskLevel string) NotificationResult {
	emoji := "🔵"
	switch riskLevel {
	case "high":
		emoji = "🟠"
	case "medium":
		emoji = "🟡"
	}
	return SendNotification(ctx, sink, notifier, "warning", emoji+" "+workflowName+" approval required",
		"awaiting approval (risk="+riskLevel+")", map[string]any{"thread_id": threadID})
}
