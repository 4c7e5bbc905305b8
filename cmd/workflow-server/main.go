// Command workflow-server is the composition root: it wires config,
// checkpoint storage, the five industry graph packages, observability,
// and the executor onto an HTTP server. Grounded on
// examples/prometheus_monitoring/main.go's setup/run/graceful-shutdown
// shape and original_source/services/workflows/src/server.py's process
// layout (single HTTP process exposing /execute, /resume, /workflows).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/coagents/workflow-engine/internal/checkpoint"
	"github.com/coagents/workflow-engine/internal/config"
	"github.com/coagents/workflow-engine/internal/emit"
	"github.com/coagents/workflow-engine/internal/executor"
	"github.com/coagents/workflow-engine/internal/graphs/educationadmissions"
	"github.com/coagents/workflow-engine/internal/graphs/hospitaladmissions"
	"github.com/coagents/workflow-engine/internal/graphs/hotelo2c"
	"github.com/coagents/workflow-engine/internal/graphs/manufacturingproduction"
	"github.com/coagents/workflow-engine/internal/graphs/retailfulfillment"
	"github.com/coagents/workflow-engine/internal/httpapi"
	"github.com/coagents/workflow-engine/internal/metrics"
	"github.com/coagents/workflow-engine/internal/registry"
)

func main() {
	cfg := config.Load()

	store, err := openStore(cfg.CheckpointDSN)
	if err != nil {
		log.Fatalf("failed to open checkpoint store: %v", err)
	}

	reg := registry.New()
	hotelo2c.Register(reg)
	hospitaladmissions.Register(reg)
	manufacturingproduction.Register(reg)
	retailfulfillment.Register(reg)
	educationadmissions.Register(reg)

	promReg := prometheus.NewRegistry()
	met := metrics.New(promReg)

	tp := sdktrace.NewTracerProvider()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("tracer provider shutdown: %v", err)
		}
	}()
	emitter := emit.NewOTelEmitter(tp.Tracer("workflow-engine"))

	exec := executor.New(reg, store,
		executor.WithNamespace(cfg.Namespace),
		executor.WithTTL(cfg.CheckpointTTL),
		executor.WithRecursionLimit(cfg.RecursionLimit),
		executor.WithEmitter(emitter),
		executor.WithMetrics(met),
	)

	api := httpapi.New(exec, reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.Handle("/", api)

	srv := &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE responses can stream indefinitely
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("workflow-server listening on %s (namespace=%s)", cfg.BindAddr, cfg.Namespace)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// openStore picks a checkpoint.Store implementation from dsn: empty
// means in-memory, a "mysql://"-prefixed DSN opens MySQLStore, anything
// else is treated as a SQLite file path, matching spec.md §6's
// environment-driven storage selection.
func openStore(dsn string) (checkpoint.Store, error) {
	switch {
	case dsn == "":
		return checkpoint.NewMemoryStore(), nil
	case len(dsn) >= 8 && dsn[:8] == "mysql://":
		return checkpoint.NewMySQLStore(dsn[8:])
	default:
		return checkpoint.NewSQLiteStore(dsn)
	}
}
