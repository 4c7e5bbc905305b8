package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coagents/workflow-engine/internal/executor"
	"github.com/coagents/workflow-engine/internal/registry"
)

// Server wires an executor.Executor and registry.Registry onto an
// HTTP surface, grounded on the five endpoints of
// original_source/services/workflows/src/server.py.
type Server struct {
	exec      *executor.Executor
	reg       *registry.Registry
	startedAt time.Time
	router    chi.Router
}

// New builds a Server and its chi.Router.
func New(exec *executor.Executor, reg *registry.Registry) *Server {
	s := &Server{exec: exec, reg: reg, startedAt: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", s.handleHealth)
	r.Get("/workflows", s.handleListWorkflows)
	r.Get("/workflows/{name}", s.handleGetWorkflow)
	r.Post("/execute", s.handleExecute)
	r.Post("/resume", s.handleResume)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// corsMiddleware matches the distilled server's permissive CORS
// middleware (allow_origins=["*"]); this service sits behind an
// internal bridge, not a public edge.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
