package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEmitterText(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	e.Emit(Event{RunID: "r1", Step: 1, NodeID: "check_in", Msg: "node_start"})
	assert.Contains(t, buf.String(), "[node_start] runID=r1 step=1 nodeID=check_in")
}

func TestLogEmitterJSON(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	e.Emit(Event{RunID: "r1", Step: 2, NodeID: "create_folio", Msg: "node_end", Meta: map[string]interface{}{"duration_ms": 12}})
	line := strings.TrimSpace(buf.String())
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "r1", decoded["runID"])
	assert.Equal(t, "node_end", decoded["msg"])
}

func TestLogEmitterBatchAndFlush(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	err := e.EmitBatch(context.Background(), []Event{
		{RunID: "r1", Msg: "node_start"},
		{RunID: "r1", Msg: "node_end"},
	})
	require.NoError(t, err)
	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestNullEmitter(t *testing.T) {
	n := NewNullEmitter()
	n.Emit(Event{Msg: "node_start"})
	require.NoError(t, n.EmitBatch(context.Background(), []Event{{Msg: "x"}}))
	require.NoError(t, n.Flush(context.Background()))
}
