// Package stepkit provides the reusable step-kit utilities described in
// SPEC_FULL.md §4.6: an approval gate, retry-with-backoff, escalation,
// and notification. Grounded file-for-file on
// original_source/services/workflows/src/nodes/{approve,retry,escalate,notify}.py.
package stepkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Notification is the payload delivered to a Notifier: a typed message
// plus whatever structured context the caller wants forwarded.
type Notification struct {
	Type    string         // "info" | "success" | "warning" | "error"
	Title   string
	Message string
	Context map[string]any
}

// Notifier is the injected out-of-band side channel used by escalation
// and notification. Grounded on SPEC_FULL.md §4.6's "pure function over
// its inputs + an injected notifier" requirement.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NullNotifier always succeeds without sending anything, matching
// escalate.py's "returns success even if the notifier is absent (degrades
// to a local log)" behavior when no real backend is configured.
type NullNotifier struct {
	// OnNotify, if set, is invoked synchronously so tests and local
	// development can observe what would have been sent.
	OnNotify func(Notification)
}

func (n NullNotifier) Notify(_ context.Context, note Notification) error {
	log.Printf("stepkit: notification not sent (no notifier configured): [%s] %s: %s", note.Type, note.Title, note.Message)
	if n.OnNotify != nil {
		n.OnNotify(note)
	}
	return nil
}

// WebhookNotifier posts notifications to an HTTP endpoint as JSON.
// Adapted from graph/tool/http.go's HTTPTool: same http.Client-over-context
// idiom, narrowed from a generic multi-method "tool call" shape down to
// the one concrete use this engine has for an HTTP-calling utility —
// POSTing a webhook payload (see DESIGN.md's note on graph/tool).
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	client  *http.Client
}

func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{URL: url, Headers: headers, client: &http.Client{}}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(map[string]any{
		"type":    n.Type,
		"title":   n.Title,
		"message": n.Message,
		"context": n.Context,
	})
	if err != nil {
		return fmt.Errorf("stepkit: marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("stepkit: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("stepkit: webhook request failed: %w", err)
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("stepkit: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
