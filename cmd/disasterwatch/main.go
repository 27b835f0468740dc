package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/disaster-watch-service/internal/adapter/fcm"
	httpadapter "github.com/couchcryptid/disaster-watch-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-watch-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-watch-service/internal/adapter/mapbox"
	"github.com/couchcryptid/disaster-watch-service/internal/adapter/minio"
	"github.com/couchcryptid/disaster-watch-service/internal/adapter/mysql"
	"github.com/couchcryptid/disaster-watch-service/internal/adapter/openai"
	"github.com/couchcryptid/disaster-watch-service/internal/adapter/redis"
	"github.com/couchcryptid/disaster-watch-service/internal/config"
	"github.com/couchcryptid/disaster-watch-service/internal/damage"
	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/hazards"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	"github.com/couchcryptid/disaster-watch-service/internal/pipeline"
	"github.com/couchcryptid/disaster-watch-service/internal/realtime"
	"github.com/couchcryptid/disaster-watch-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := mysql.Open(ctx, cfg.MySQLDSN, logger)
	if err != nil {
		logger.Error("failed to open mysql", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	settings, err := redis.NewSettingsStore(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Reverse geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var chat domain.ChatResponder
	if cfg.OpenAIEnabled {
		chat = openai.NewClient(cfg, logger, metrics)
		logger.Info("ai chat enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("ai chat disabled")
	}

	var images httpadapter.ImageUploader
	if cfg.MinIOEnabled {
		imageStore, err := minio.NewImageStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize image storage", "error", err)
			os.Exit(1)
		}
		images = imageStore
	} else {
		logger.Info("image upload disabled")
	}

	var notifier realtime.AlertNotifier
	if cfg.PushEnabled {
		n, err := fcm.NewNotifier(ctx, cfg.FirebaseCredentialsFile, store, logger)
		if err != nil {
			logger.Error("failed to initialize device push", "error", err)
			os.Exit(1)
		}
		notifier = n
		logger.Info("device push enabled")
	} else {
		logger.Info("device push disabled")
	}

	hub := realtime.NewHub(logger, metrics)
	dispatcher := realtime.NewDispatcher(hub, notifier, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.RealtimeMinSeverity, geocoder, logger)
	p := pipeline.New(reader, transformer, dispatcher, logger, metrics, cfg.BatchSize)

	hazardService := hazards.NewService(store, geocoder, domain.DefaultRules(), logger, metrics)
	sched, err := scheduler.New(cfg.HazardRefreshInterval, cfg.AlertExpirySchedule, hazardService, store, logger, metrics)
	if err != nil {
		logger.Error("failed to configure scheduler", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Alerts:              store,
		Reports:             store,
		Surveys:             store,
		Preferences:         store,
		Articles:            store,
		Stats:               store,
		Settings:            settings,
		Hazards:             hazardService,
		Damage:              damage.NewService(store, domain.StubAnalyzer{}, logger, metrics),
		Chat:                chat,
		Images:              images,
		Publisher:           writer,
		Hub:                 hub,
		Ready:               []httpadapter.ReadinessChecker{store, settings, p, hazardService},
		JWTSecret:           cfg.JWTSecret,
		RealtimeMinSeverity: cfg.RealtimeMinSeverity,
		Metrics:             metrics,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(3)

	// Start realtime alert consumer.
	go func() {
		defer wg.Done()
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	// Cross-tab settings changes reach open sessions through the hub.
	go func() {
		defer wg.Done()
		if err := hub.FollowSettings(ctx, settings); err != nil {
			logger.Error("settings watch error", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Alert sockets are hijacked connections; end them and refuse new
	// upgrades before draining HTTP.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := settings.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("mysql close error", "error", err)
	}

	logger.Info("shutdown complete")
}
