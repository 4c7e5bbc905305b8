package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coagents/workflow-engine/internal/checkpoint"
	"github.com/coagents/workflow-engine/internal/executor"
	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/registry"
	"github.com/coagents/workflow-engine/internal/state"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := registry.New()
	reg.Register(registry.Descriptor{Name: "demo", DisplayName: "Demo", Industry: "test"}, func() (registry.CompiledGraph, error) {
		return registry.CompiledGraph{
			Entry: "a",
			Nodes: map[string]node.Node{
				"a": node.NewFunc("a", func(ctx context.Context, s state.RunState) (node.Result, error) {
					return node.Advance(nil), nil
				}),
			},
		}, nil
	})
	exec := executor.New(reg, checkpoint.NewMemoryStore())
	return New(exec, reg)
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 1, body.WorkflowsRegistered)
}

func TestHandleListWorkflows(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body WorkflowListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Workflows, 1)
	assert.Equal(t, "demo", body.Workflows[0].Name)
}

func TestHandleGetWorkflowNotFound(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleExecuteNonStreamingCompletes(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(ExecuteRequest{GraphName: "demo"})
	req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.NotEmpty(t, resp.ThreadID)
}

func TestHandleExecuteUnknownGraph(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(ExecuteRequest{GraphName: "nope"})
	req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestHandleResumeUnknownThread(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(ResumeRequest{ThreadID: "missing"})
	req := httptest.NewRequest(http.MethodPost, "/resume", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
