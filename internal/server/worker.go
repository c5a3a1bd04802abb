package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/itsatony/triaxis/internal/config"
	"github.com/itsatony/triaxis/internal/events"
	"github.com/itsatony/triaxis/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// RunWorker consumes the shared queue without serving the API. Only the
// metrics endpoint is exposed. It blocks until SIGINT or SIGTERM and returns
// once running jobs have finished.
func RunWorker(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	bus := events.NewBus()
	mon := monitoring.NewService()
	if err := setupJobEventHandlers(bus, mon); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Monitoring.MetricsPath, mon.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		nuts.L.Infof("[Worker] Serving metrics on %s%s", metricsSrv.Addr, cfg.Monitoring.MetricsPath)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Worker] Metrics server stopped: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}()

	if err := recoverInFlight(ctx, cfg, deps); err != nil {
		return err
	}

	pool := newPool(cfg, deps, bus)
	pool.Start(ctx)

	nuts.L.Infof("[Worker] Processed %d jobs, %d failed", pool.CompletedJobs(), pool.FailedJobs())
	return nil
}
