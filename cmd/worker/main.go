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

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ciclopsmx/franchise-reports/internal/bootstrap"
	"github.com/ciclopsmx/franchise-reports/internal/config"
	"github.com/ciclopsmx/franchise-reports/internal/observability/logging"
	"github.com/ciclopsmx/franchise-reports/internal/observability/metrics"
)

const serviceName = "franchise-reports-worker"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.New(serviceName, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	scheduler := cron.New(cron.WithSeconds())
	_, err = scheduler.AddFunc(cfg.ResyncCronSpec, func() {
		resyncCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()

		processed, err := app.SyncUC.Resync(resyncCtx, true)
		workerMetrics.FinishResync(serviceName, processed, err)
		if err != nil {
			slog.Error("scheduled_resync_failed", "error", err)
			return
		}
		slog.Info("scheduled_resync_done", "documents", processed)
	})
	if err != nil {
		slog.Error("invalid_resync_cron_spec", "spec", cfg.ResyncCronSpec, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentConfirmed(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if doc, err := app.Documents.GetByID(processCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(doc.UpdatedAt))
		}

		workerMetrics.StartDocument()
		start := time.Now()
		result, processErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument(serviceName, time.Since(start), processErr)
		if result != nil {
			workerMetrics.ObserveStoresExtracted(serviceName, result.Stores)
			workerMetrics.AddSummariesUpserted(serviceName, result.SummariesUpserted)
		}
		return processErr
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
