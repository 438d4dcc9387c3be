package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/aipothole/pothole-api/internal/adapters/geocoding"
	"github.com/aipothole/pothole-api/internal/adapters/http"
	natsadapter "github.com/aipothole/pothole-api/internal/adapters/nats"
	"github.com/aipothole/pothole-api/internal/adapters/postgres"
	"github.com/aipothole/pothole-api/internal/adapters/storage"
	"github.com/aipothole/pothole-api/internal/adapters/valkey"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/core/usecases"
	"github.com/aipothole/pothole-api/internal/pkg/config"
	"github.com/aipothole/pothole-api/internal/pkg/logging"
	"github.com/aipothole/pothole-api/internal/pkg/metrics"
	"github.com/aipothole/pothole-api/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("potholes-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if cfg.Policy.AlertThresholdMeters < cfg.Policy.MergeThresholdMeters {
		slog.Warn("alert threshold is below merge threshold; drivers may not be alerted about merged potholes",
			"alert_threshold_m", cfg.Policy.AlertThresholdMeters,
			"merge_threshold_m", cfg.Policy.MergeThresholdMeters)
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go metrics.RunPoolMetrics(ctx, 15*time.Second, func() metrics.PoolStat { return db.Pool.Stat() })

	deps := &http.Dependencies{
		DB:             db,
		JWTSecret:      cfg.Auth.JWTSecret,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
	}

	// Cache
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, "pothole-api:"); err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	// NATS
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	// Raw NATS connection for the WebSocket relay
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		deps.NATS = nc
	}

	// Reverse geocoding
	var geocoder ports.Geocoder
	if cfg.Geocoding.APIKey == "" {
		slog.Warn("geocoding api key not set, potholes will be created without address")
	} else if g, err := geocoding.NewGoogle(cfg.Geocoding.APIKey, cfg.Geocoding.BaseURL); err != nil {
		slog.Warn("geocoder init failed", "error", err)
	} else if cache != nil {
		geocoder = geocoding.NewCached(g, cache, cfg.Geocoding.CacheTTL)
	} else {
		geocoder = g
	}

	// Object storage
	store := storage.NewSupabase(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket)

	// Repos
	potholeRepo := postgres.NewPotholeRepo(db)
	imageRepo := postgres.NewImageRepo(db)

	// Use cases
	deps.Reports = usecases.NewReportService(potholeRepo, geocoder, publisher, cfg.Policy.MergeThresholdMeters).
		WithViewCache(cache)
	deps.Alerts = usecases.NewAlertService(potholeRepo, cfg.Policy.AlertThresholdMeters)
	deps.Potholes = usecases.NewPotholeService(potholeRepo, imageRepo, cache, publisher)
	deps.Images = usecases.NewImageService(potholeRepo, imageRepo, store, publisher)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "Pothole API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
