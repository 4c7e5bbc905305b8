// Package httpapi implements the HTTP surface described in
// SPEC_FULL.md §4.5: GET /, GET /workflows, GET /workflows/{name},
// POST /execute, POST /resume. Grounded on
// original_source/services/workflows/src/server.py's request/response
// shapes, served over github.com/go-chi/chi/v5 in place of FastAPI.
package httpapi

// ExecuteRequest is the POST /execute body.
type ExecuteRequest struct {
	GraphName    string         `json:"graph_name"`
	ThreadID     string         `json:"thread_id,omitempty"`
	InitialState map[string]any `json:"initial_state,omitempty"`
	Stream       bool           `json:"stream,omitempty"`
}

// ExecuteResponse is the non-streaming POST /execute response.
type ExecuteResponse struct {
	ThreadID  string         `json:"thread_id"`
	GraphName string         `json:"graph_name"`
	Status    string         `json:"status"`
	State     map[string]any `json:"state,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ResumeRequest is the POST /resume body.
type ResumeRequest struct {
	ThreadID string         `json:"thread_id"`
	Resume   map[string]any `json:"resume,omitempty"`
	Stream   bool           `json:"stream,omitempty"`
}

// WorkflowSummary is one entry of the GET /workflows listing.
type WorkflowSummary struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// WorkflowListResponse is the GET /workflows response.
type WorkflowListResponse struct {
	Workflows []WorkflowSummary `json:"workflows"`
}

// WorkflowDetailResponse is the GET /workflows/{name} response.
type WorkflowDetailResponse struct {
	WorkflowSummary
	RequiredFields []string `json:"required_fields,omitempty"`
}

// HealthResponse is the GET / response.
type HealthResponse struct {
	Status              string `json:"status"`
	UptimeSeconds       int64  `json:"uptime_seconds"`
	WorkflowsRegistered int    `json:"workflows_registered"`
}

// ErrorResponse is the body of any non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
