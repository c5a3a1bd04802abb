package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/itsatony/triaxis/api"
	"github.com/itsatony/triaxis/internal/config"
	"github.com/itsatony/triaxis/internal/events"
	"github.com/itsatony/triaxis/internal/monitoring"
	"github.com/itsatony/triaxis/internal/service"
	"github.com/itsatony/triaxis/internal/worker"
	nuts "github.com/vaudience/go-nuts"
)

const healthTimeout = 2 * time.Second

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	deps       *dependencies
	service    *service.Service
	monitoring *monitoring.Service
	events     *events.Bus
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	deps, err := initDependencies(ctx, s.config)
	if err != nil {
		return err
	}
	defer deps.Close()

	s.deps = deps
	s.events = events.NewBus()
	s.monitoring = monitoring.NewService()
	s.service = service.New(deps.Devices, deps.Readings, deps.Results, deps.Queue, s.events)
	if err := s.service.Validate(); err != nil {
		return err
	}

	// Set up job event handlers
	if err := setupJobEventHandlers(s.events, s.monitoring); err != nil {
		return err
	}

	s.srv.Handler = s.handler()

	workerDone := make(chan struct{})
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	if s.config.Worker.Embedded {
		pool := newPool(s.config, deps, s.events)
		go func() {
			defer close(workerDone)
			if err := recoverInFlight(workerCtx, s.config, deps); err != nil {
				nuts.L.Errorf("[Server] %v", err)
			}
			pool.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// Start server
	serveErr := make(chan error, 1)
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("error starting server: %w", err)
	}

	return s.shutdown(cancelWorker, workerDone)
}

// shutdown stops accepting requests, then lets running jobs finish
func (s *Server) shutdown(cancelWorker context.CancelFunc, workerDone <-chan struct{}) error {
	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	cancelWorker()
	select {
	case <-workerDone:
	case <-ctx.Done():
		nuts.L.Warnf("[Server] Workers did not stop within %s", s.config.Server.ShutdownTimeout)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handler builds the middleware chain around the API router
func (s *Server) handler() http.Handler {
	router := api.NewRouter(s.service, s.handleHealth(), s.monitoring.Handler())

	mux := http.NewServeMux()
	mux.Handle(s.config.Monitoring.MetricsPath, s.monitoring.Handler())
	mux.Handle("/", router)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
	)
	var h http.Handler = cors(mux)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return handlers.CombinedLoggingHandler(os.Stdout, h)
}

// handleHealth reports ok only when every backing store answers
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := map[string]string{}
		code := http.StatusOK
		for name, p := range s.deps.Pingers {
			if err := p.Ping(ctx); err != nil {
				checks[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		status := "ok"
		if code != http.StatusOK {
			status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"version": nuts.GetVersion(),
			"checks":  checks,
		})
	}
}

// setupJobEventHandlers feeds job lifecycle events into the metrics
func setupJobEventHandlers(bus *events.Bus, mon *monitoring.Service) error {
	handlers := map[string]func(events.JobEvent){
		events.JobEnqueued: func(ev events.JobEvent) {
			mon.JobEnqueued(ev.Kind)
			mon.RecordEvent(events.JobEnqueued, map[string]string{"job_id": ev.JobID})
		},
		events.JobSucceeded: func(ev events.JobEvent) {
			mon.JobFinished(ev.Outcome, ev.Duration)
			mon.RecordEvent(events.JobSucceeded, map[string]string{"job_id": ev.JobID, "outcome": ev.Outcome})
		},
		events.JobFailed: func(ev events.JobEvent) {
			nuts.L.Warnf("[Jobs] Job %s for device %d failed: %s", ev.JobID, ev.DeviceID, ev.Error)
			mon.JobFinished(ev.Outcome, ev.Duration)
			mon.RecordEvent(events.JobFailed, map[string]string{"job_id": ev.JobID})
		},
	}
	for name, handler := range handlers {
		if err := bus.On(name, "monitoring", handler); err != nil {
			return err
		}
	}
	return nil
}

func newPool(cfg *config.Config, deps *dependencies, bus *events.Bus) *worker.Pool {
	analyzer := worker.NewDeviceAnalyzer(deps.Readings, deps.Results)
	return worker.NewPool(deps.Queue, analyzer, worker.Options{
		Concurrency:    cfg.Worker.Concurrency,
		ReserveTimeout: cfg.Queue.ReserveTimeout,
		Events:         bus,
	})
}

func recoverInFlight(ctx context.Context, cfg *config.Config, deps *dependencies) error {
	if !cfg.Queue.RecoverOnStart {
		return nil
	}
	moved, err := deps.Queue.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover in-flight jobs: %w", err)
	}
	if moved > 0 {
		nuts.L.Infof("[Worker] Re-queued %d in-flight jobs", moved)
	}
	return nil
}
