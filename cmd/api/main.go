package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"gameforge.gg/platform/internal/billing"
	"gameforge.gg/platform/internal/config"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/handlers"
	"gameforge.gg/platform/internal/middleware"
	"gameforge.gg/platform/internal/monitor"
	"gameforge.gg/platform/internal/panel"
	"gameforge.gg/platform/internal/portal"
	"gameforge.gg/platform/internal/store"
	"gameforge.gg/platform/pkg/database"
	"gameforge.gg/platform/pkg/logger"
	"gameforge.gg/platform/pkg/metrics"
	"gameforge.gg/platform/pkg/redis"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	log := logger.New()
	log.Info("Starting GameForge API", "version", handlers.Version)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(ctx)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()
	log.Info("Database connected successfully")

	if err := db.RunMigrations(ctx, "./migrations", log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	// Redis is optional: without it there are no snapshots and rate
	// limiting is per process.
	var (
		snapshots fallback.SnapshotStore
		counter   middleware.CounterStore
	)
	rdb, err := redis.Connect(ctx)
	if err != nil {
		log.Warn("Redis unavailable, continuing without snapshots", "error", err)
	} else {
		defer rdb.Close()
		snapshots, counter = rdb, rdb
		log.Info("Redis connected successfully")
	}

	m := metrics.New()
	policy := fallback.NewPolicy(snapshots, cfg.FallbackSnapshotTTL, log, m)

	// A nil interface, not a typed nil pointer, marks billing as disabled.
	var billingClient portal.Billing
	if cfg.Billing.Configured() {
		bc, err := billing.NewClient(billing.Config{
			URL:            cfg.Billing.URL,
			Identifier:     cfg.Billing.Identifier,
			Secret:         cfg.Billing.Secret,
			Timeout:        cfg.Billing.Timeout,
			ClientPageSize: cfg.Billing.ClientPageSize,
			Currency:       cfg.Billing.Currency,
		}, log, m)
		if err != nil {
			log.Error("Billing integration disabled", "error", err)
		} else {
			billingClient = bc
		}
	} else {
		log.Warn("Billing integration not configured")
	}

	panelClient := panel.NewClient(panel.Config{
		URL:           cfg.Panel.URL,
		APIKey:        cfg.Panel.APIKey,
		Timeout:       cfg.Panel.Timeout,
		ActionTimeout: cfg.Panel.ActionTimeout,
	}, log, m)
	if !panelClient.Configured() {
		log.Warn("Panel integration not configured, serving placeholder servers")
	}

	svc := portal.New(billingClient, panelClient, policy, portal.Options{CurrencyPrefix: cfg.Billing.CurrencyPrefix}, log)
	st := store.New(db.DB)

	sweeper := monitor.NewSweeper(st, monitor.DialProber{Timeout: cfg.ProbeTimeout}, log, m)
	scheduler, err := sweeper.Schedule(ctx, cfg.SweepSchedule)
	if err != nil {
		log.Fatal("Invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
	}
	scheduler.Start()
	go sweeper.Run(ctx)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.ClientJWTSecret, cfg.ClientSessionTTL)
	h := handlers.New(handlers.Deps{
		Store:     st,
		Portal:    svc,
		Auth:      auth,
		Sweeper:   sweeper,
		Policy:    policy,
		SSOSecret: cfg.Billing.SSOSecret,
		SiteURL:   cfg.SiteURL,
	}, log)
	limiter := middleware.NewRateLimiter(counter, cfg.RateLimit, cfg.RateLimitWindow, log)
	r := h.Router(limiter, m.Handler())

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{handlers.DataSourceHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Handler:      c.Handler(r),
		Addr:         ":" + cfg.Port,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	<-scheduler.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
