package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/complyon/aiact-engine/internal/bootstrap"
	"github.com/complyon/aiact-engine/internal/config"
	"github.com/complyon/aiact-engine/internal/core/domain"
	"github.com/complyon/aiact-engine/internal/observability/logging"
	"github.com/complyon/aiact-engine/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeAnalysisRequested(ctx, func(handlerCtx context.Context, analysisID string) error {
		workerMetrics.StartAnalysis()
		start := time.Now()

		if req, err := app.Analyses.GetRequestByID(handlerCtx, analysisID); err == nil {
			workerMetrics.ObserveQueueLag("worker", start.Sub(req.CreatedAt))
		} else if domain.IsKind(err, domain.ErrAnalysisNotFound) {
			workerMetrics.FinishAnalysis("worker", time.Since(start), err)
			return err
		} else {
			slog.Warn("queue lag lookup failed", "analysis_id", analysisID, "error", err)
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		err := app.ProcessUC.ProcessByID(processCtx, analysisID)
		workerMetrics.FinishAnalysis("worker", time.Since(start), err)
		return err
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
