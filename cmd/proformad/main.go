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

	"github.com/joseph-ayodele/proforma-consolidator/internal/async"
	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/export"
	"github.com/joseph-ayodele/proforma-consolidator/internal/pipeline"
	"github.com/joseph-ayodele/proforma-consolidator/internal/server"
)

func main() {
	cfg := common.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; consolidate requests will fail until it is")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Server.Workers),
		async.WithQueueSize(cfg.Server.QueueSize),
		async.WithProcessTimeout(cfg.Server.ProcessTimeout),
	)

	srv := server.NewServer(server.Options{
		MaxTotalBytes: cfg.Ingest.MaxTotalBytes,
		RatePerSecond: cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
	}, queue, export.NewService(logger), logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("proformad listening",
		"addr", cfg.Server.HTTPAddr,
		"max_pages", cfg.Ingest.MaxPages,
		"max_total_bytes", cfg.Ingest.MaxTotalBytes,
		"workers", cfg.Server.Workers,
		"ocr_engine", cfg.OCR.Engine,
		"model", cfg.LLM.Model,
	)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
