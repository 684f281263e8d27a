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

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/esri"
	httpadapter "github.com/couchcryptid/hazard-impact-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-impact-service/internal/adapter/telegram"
	"github.com/couchcryptid/hazard-impact-service/internal/config"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/geometry"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
	"github.com/couchcryptid/hazard-impact-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	loader := esri.NewCachedLoader(esri.NewLoader(cfg.GridRoot), cfg.GridCacheSize, metrics)
	logger.Info("grid loader ready", "root", cfg.GridRoot, "cache_size", cfg.GridCacheSize)

	// Evacuation alerts are feature-flagged via TELEGRAM_ENABLED / TELEGRAM_BOT_TOKEN.
	var (
		notifier domain.Notifier
		alerts   *pipeline.AlertQueue
	)
	if cfg.TelegramEnabled {
		n, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, telegram.Options{
			MinEvacuated:   cfg.TelegramMinEvacuated,
			MaxRetries:     3,
			RetryDelayBase: time.Second,
		}, logger, metrics)
		if err != nil {
			logger.Error("telegram alerts unavailable, continuing without them", "error", err)
		} else {
			alerts = pipeline.NewAlertQueue(n, pipeline.DefaultAlertQueueSize, logger, metrics)
			notifier = alerts
			logger.Info("telegram alerts enabled", "min_evacuated", cfg.TelegramMinEvacuated)
		}
	} else {
		logger.Info("telegram alerts disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(loader, geometry.NewRectEngine(), notifier, pipeline.Defaults{
		MinimumNeeds: cfg.MinimumNeeds,
		Classes:      cfg.StyleClasses,
	}, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if alerts != nil {
		go alerts.Run(ctx)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
