package stream

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSSEFraming(t *testing.T) {
	sink := NewSink(4)
	sink.Send(Event{Type: EventWorkflowStart, GraphName: "hotel_o2c", ThreadID: "t1", TimestampMS: 1000})
	sink.Send(Event{Type: EventWorkflowComplete, GraphName: "hotel_o2c", ThreadID: "t1", TimestampMS: 2000})
	sink.Close()

	var buf bytes.Buffer
	rec := httptest.NewRecorder()
	require.NoError(t, WriteSSE(&buf, rec, sink))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "event: workflow_start\ndata: "))
	assert.Contains(t, lines[0], `"thread_id":"t1"`)
	assert.True(t, strings.HasPrefix(lines[1], "event: workflow_complete\ndata: "))
}

func TestSinkSendAfterClose(t *testing.T) {
	sink := NewSink(1)
	sink.Close()
	assert.False(t, sink.Send(Event{Type: EventWorkflowError}))
}
