package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/campcast-forecast/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/campcast-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/campcast-forecast/internal/adapter/kma"
	"github.com/couchcryptid/campcast-forecast/internal/config"
	"github.com/couchcryptid/campcast-forecast/internal/domain"
	"github.com/couchcryptid/campcast-forecast/internal/forecast"
	"github.com/couchcryptid/campcast-forecast/internal/observability"
	"github.com/couchcryptid/campcast-forecast/internal/pipeline"
	"github.com/couchcryptid/campcast-forecast/internal/scheduler"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

// alwaysReady serves /readyz when the Kafka pipeline is disabled and the
// HTTP API is the only surface.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := kma.NewClient(cfg, metrics, logger)
	api := kma.NewCachedAPI(client, cfg.KMACacheSize, clock, metrics)
	logger.Info("kma client ready", "base_url", cfg.KMABaseURL, "rate_limit", cfg.KMARateLimit, "cache_size", cfg.KMACacheSize)

	svc := forecast.NewService(api, forecast.Options{
		Defaults:    domain.Regions{Land: cfg.DefaultLandRegion, Temperature: cfg.DefaultTempRegion},
		HorizonDays: cfg.HorizonDays,
	}, clock, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ready  sharedobs.ReadinessChecker = alwaysReady{}
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(svc, logger), writer, logger, metrics, cfg.BatchSize)
		ready = p

		// Start request pipeline.
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, ready, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := scheduler.New(cfg.RefreshLocations, cfg.RefreshInterval, svc, metrics, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start refresh scheduler", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
