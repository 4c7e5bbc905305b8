package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coagents/workflow-engine/internal/executor"
	"github.com/coagents/workflow-engine/internal/state"
	"github.com/coagents/workflow-engine/internal/stream"
	"github.com/coagents/workflow-engine/internal/wferrors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:              "healthy",
		UptimeSeconds:       int64(time.Since(s.startedAt).Seconds()),
		WorkflowsRegistered: len(s.reg.List("", "", "")),
	})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	descs := s.reg.List(industry, r.URL.Query().Get("tag"), r.URL.Query().Get("capability"))

	out := make([]WorkflowSummary, 0, len(descs))
	for _, d := range descs {
		out = append(out, WorkflowSummary{
			Name:         d.Name,
			DisplayName:  d.DisplayName,
			Industry:     d.Industry,
			Tags:         d.Tags,
			Capabilities: d.Capabilities,
		})
	}
	writeJSON(w, http.StatusOK, WorkflowListResponse{Workflows: out})
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, err := s.reg.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, WorkflowDetailResponse{
		WorkflowSummary: WorkflowSummary{
			Name:         d.Name,
			DisplayName:  d.DisplayName,
			Industry:     d.Industry,
			Tags:         d.Tags,
			Capabilities: d.Capabilities,
		},
		RequiredFields: d.RequiredFields,
	})
}

// handleExecute starts a new run. Matching server.py's duality,
// request.Stream selects between an SSE response (media type
// text/event-stream, buffering disabled) and a single JSON response
// carrying the final Outcome.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	initial := state.RunState(req.InitialState)
	if initial == nil {
		initial = state.RunState{}
	}

	if req.Stream {
		sink := stream.NewSink(8)
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.exec.Execute(r.Context(), req.GraphName, req.ThreadID, initial, sink)
		}()
		serveSSE(w, sink)
		<-done
		return
	}

	outcome := s.exec.Execute(r.Context(), req.GraphName, req.ThreadID, initial, nil)
	writeOutcome(w, outcome)
}

// handleResume continues a suspended run by thread_id, per spec.md
// §4.6. Unlike the distilled server.py's stub (which could not resume
// without persistent state), this resumes from the checkpoint store.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resume := req.Resume
	if resume == nil {
		resume = map[string]any{}
	}

	if req.Stream {
		sink := stream.NewSink(8)
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.exec.Resume(r.Context(), req.ThreadID, resume, sink)
		}()
		serveSSE(w, sink)
		<-done
		return
	}

	outcome := s.exec.Resume(r.Context(), req.ThreadID, resume, nil)
	writeOutcome(w, outcome)
}

func serveSSE(w http.ResponseWriter, sink *stream.Sink) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher, _ := w.(http.Flusher)
	_ = stream.WriteSSE(w, flusher, sink)
}

// writeOutcome maps an executor.Outcome to the non-streaming JSON
// response, translating a nil-vs-populated Err into HTTP status the way
// server.py's WorkflowExecuteResponse distinguishes status from
// the raised-exception path.
func writeOutcome(w http.ResponseWriter, o executor.Outcome) {
	resp := ExecuteResponse{
		ThreadID:  o.ThreadID,
		GraphName: o.GraphName,
		Status:    string(o.Status),
		State:     map[string]any(o.State),
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	writeJSON(w, statusForOutcome(o), resp)
}

// statusForOutcome maps pre-dispatch failures to the HTTP status the
// original FastAPI service would raise as an HTTPException, and maps
// in-run failures (node/checkpoint/recursion errors) to 200 with an
// error-carrying body, matching server.py's "success=False in the
// response body" behavior for execution-time failures as opposed to
// request-validation failures.
func statusForOutcome(o executor.Outcome) int {
	switch {
	case errors.Is(o.Err, wferrors.ErrUnknownGraph), errors.Is(o.Err, wferrors.ErrUnknownThread):
		return http.StatusNotFound
	case errors.Is(o.Err, wferrors.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(o.Err, wferrors.ErrThreadConflict), errors.Is(o.Err, wferrors.ErrNotSuspended):
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: errCode(err)})
}

func errCode(err error) string {
	switch {
	case errors.Is(err, wferrors.ErrUnknownGraph):
		return "unknown_graph"
	case errors.Is(err, wferrors.ErrUnknownThread):
		return "unknown_thread"
	case errors.Is(err, wferrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, wferrors.ErrThreadConflict):
		return "thread_conflict"
	case errors.Is(err, wferrors.ErrNotSuspended):
		return "not_suspended"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
