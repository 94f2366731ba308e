package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/expensedocs/internal/bootstrap"
	"github.com/kirillkom/expensedocs/internal/config"
	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/observability/logging"
)

const documentTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "worker")
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", app.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics_server_error", "error", err)
		}
	}()

	slog.Info("worker_started", "subject", cfg.NATSSubject)

	err = app.Queue.SubscribeDocumentQueued(ctx, func(msgCtx context.Context, documentID string) error {
		runCtx, cancel := context.WithTimeout(msgCtx, documentTimeout)
		defer cancel()

		start := time.Now()
		app.Metrics.StartDocument()
		_, err := app.Processor.Process(runCtx, documentID)
		app.Metrics.FinishDocument(time.Since(start), err)

		if domain.IsKind(err, domain.ErrDocumentBusy) {
			// Another run owns this document; the owning run records the outcome.
			slog.Warn("document_busy_skipped", "document_id", documentID)
			return nil
		}
		return err
	})
	if err != nil {
		slog.Error("subscribe_error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics_shutdown_error", "error", err)
	}
}
