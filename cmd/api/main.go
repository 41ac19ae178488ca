package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairshop_backend/internal/adapters"
	"repairshop_backend/internal/catalog"
	"repairshop_backend/internal/events"
	apphttp "repairshop_backend/internal/http"
	"repairshop_backend/internal/http/router"
	"repairshop_backend/internal/notification"
	"repairshop_backend/internal/scheduler"
	"repairshop_backend/internal/servicesheet"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/platform/cache"
	"repairshop_backend/platform/config"
	"repairshop_backend/platform/db"
	"repairshop_backend/platform/logger"
	"repairshop_backend/platform/retry"
	"repairshop_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := retry.Do(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	referenceCache, err := cache.FromConfig(cfg, cache.SystemClock{})
	if err != nil {
		log.Error("failed to initialize cache", "error", err)
		panic("failed to initialize cache: " + err.Error())
	}
	log.Info("reference cache initialized", "backend", cfg.GetCacheBackend(), "ttl", cfg.GetCacheTTL())

	rules, err := domain.LoadRules(cfg.GetServiceSheetRulesPath())
	if err != nil {
		log.Error("failed to load service sheet rules", "error", err)
		panic("failed to load service sheet rules: " + err.Error())
	}

	assignmentQueue, closeQueue := initAssignmentQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(pool, log)
	if assignmentQueue != nil {
		notificationModule.SetQueue(assignmentQueue)
	}
	notificationModule.RegisterHandlers(eventBus)

	catalogModule := catalog.NewModule(pool, referenceCache, cfg, eventBus, log)

	serviceSheetCatalog := adapters.NewServiceSheetCatalog(catalogModule.Service())
	serviceSheetModule, err := servicesheet.NewModule(pool, serviceSheetCatalog, eventBus, rules, val, log)
	if err != nil {
		log.Error("failed to initialize service sheet module", "error", err)
		panic("failed to initialize service sheet module: " + err.Error())
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			catalogModule,
			serviceSheetModule,
			notificationModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initAssignmentQueue(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.AssignmentQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; technician notifications are delivered inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
