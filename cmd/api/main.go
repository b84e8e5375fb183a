package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/bootstrap"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/config"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/scheduler"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	sched, err := scheduler.New(ctx, app.Config.Location(), app.Jobs()...)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()

	srv := &http.Server{
		Addr:              server.Addr(app.Config.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		telemetry.Info("api.started", map[string]any{"addr": srv.Addr, "env": app.Config.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	telemetry.Info("api.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Warn("api.shutdown_failed", map[string]any{"error": err.Error()})
	}
	sched.Stop(shutdownCtx)
}
