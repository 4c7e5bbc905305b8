// Package stream implements the typed event sequence and SSE framing
// described in SPEC_FULL.md §4.4. Grounded on graph/emit's Event/Emitter
// shape for the Go idiom and on
// original_source/services/workflows/src/core/stream_adapter.py for the
// exact event-type vocabulary and wire format.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EventType enumerates the seven frame types a run can emit, exactly as
// named in spec.md §4.4.
type EventType string

const (
	EventWorkflowStart    EventType = "workflow_start"
	EventStepComplete     EventType = "step_complete"
	EventApprovalRequired EventType = "approval_required"
	EventWorkflowPaused   EventType = "workflow_paused"
	EventWorkflowComplete EventType = "workflow_complete"
	EventWorkflowRejected EventType = "workflow_rejected"
	EventWorkflowError    EventType = "workflow_error"
)

// Progress is the optional progress object carried on step_complete
// frames.
type Progress struct {
	CurrentStep int `json:"current_step"`
	TotalSteps  int `json:"total_steps"`
	Percentage  int `json:"percentage"`
}

// Event is one frame of the stream. TimestampMS is milliseconds since the
// Unix epoch, matching the original's
// int(datetime.now().timestamp()*1000) convention.
type Event struct {
	Type        EventType      `json:"type"`
	GraphName   string         `json:"graph_name"`
	ThreadID    string         `json:"thread_id"`
	Step        string         `json:"step,omitempty"`
	State       map[string]any `json:"state,omitempty"`
	Progress    *Progress      `json:"progress,omitempty"`
	Message     string         `json:"message,omitempty"`
	TimestampMS int64          `json:"timestamp"`
}

func (e Event) data() ([]byte, error) {
	return json.Marshal(e)
}

// Sink is what the executor writes run progress to. It is a
// channel-backed type with a buffer depth chosen by NewSink: once the
// buffer is full, a slow consumer (a stalled HTTP client) is observed by
// the executor as a blocked Send, which is the backpressure behavior
// SPEC_FULL.md §5 calls for.
type Sink struct {
	ch     chan Event
	closed chan struct{}
}

// NewSink creates a Sink with the given channel buffer depth. A depth of
// 0 makes sends synchronous with the consumer.
func NewSink(buffer int) *Sink {
	return &Sink{ch: make(chan Event, buffer), closed: make(chan struct{})}
}

// Send delivers an event, blocking if the sink's buffer is full and no
// consumer is draining it. Returns false if the sink has been closed.
func (s *Sink) Send(e Event) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.ch <- e:
		return true
	case <-s.closed:
		return false
	}
}

// Events exposes the receive side for a consumer (e.g. the SSE writer).
func (s *Sink) Events() <-chan Event {
	return s.ch
}

// Close signals no further sends will succeed and no further events will
// be produced.
func (s *Sink) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
		close(s.ch)
	}
}

// WriteSSE drains sink onto w until the sink closes, framing each event exactly as
// SSEWorkflowStreamer.format_sse_event does:
//
//	event: <type>\n
//	data: <json>\n\n
//
// The required streaming headers (Cache-Control, Connection,
// X-Accel-Buffering) must already be set by the caller before the first
// write, since headers cannot change after WriteHeader is implicitly
// called by the first flush.
func WriteSSE(w io.Writer, flusher http.Flusher, sink *Sink) error {
	for e := range sink.Events() {
		payload, err := e.data()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return nil
}
