package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowmesh/flowmesh/internal/ai"
	"github.com/flowmesh/flowmesh/internal/api/rest"
	"github.com/flowmesh/flowmesh/internal/api/rest/handlers"
	"github.com/flowmesh/flowmesh/internal/engine"
	"github.com/flowmesh/flowmesh/internal/integrations"
	"github.com/flowmesh/flowmesh/internal/store/postgres"
	"github.com/flowmesh/flowmesh/pkg/config"
	"github.com/flowmesh/flowmesh/pkg/database"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/flowmesh/flowmesh/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting FlowMesh engine",
		logger.String("version", cfg.App.Version),
		logger.String("environment", cfg.App.Environment),
	)

	m := metrics.New()

	// PostgreSQL is optional; without it executions are not persisted.
	var executionRepo *postgres.ExecutionRepository
	var workflowRepo *postgres.WorkflowRepository
	var dbChecker handlers.HealthChecker
	if cfg.Database.Host != "" {
		db, err := database.NewPostgresDB(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		executionRepo = postgres.NewExecutionRepository(db)
		workflowRepo = postgres.NewWorkflowRepository(db)
		dbChecker = db
	} else {
		log.Warn("Database not configured, executions will not be persisted")
	}

	// Redis is optional; without it context snapshots are not cached.
	var contextBuilder *engine.ContextBuilder
	var redisChecker handlers.HealthChecker
	if cfg.Redis.Host != "" {
		redis, err := database.NewRedisClient(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redis.Close()
		contextBuilder = engine.NewContextBuilder(redis.Client, log)
		redisChecker = redis
	} else {
		contextBuilder = engine.NewContextBuilder(nil, log)
	}

	// AI provider router
	router, err := ai.NewRouter(cfg.AI, log)
	if err != nil {
		return fmt.Errorf("failed to initialize AI router: %w", err)
	}
	defer router.Close()
	router.SetMetrics(m)

	// Integration dispatcher and node executors
	dispatcher := integrations.NewDispatcher(router, log)
	dispatcher.SetMetrics(m)
	executors := engine.NewNodeExecutorRegistry(dispatcher, cfg.Engine.DefaultDelay, log)

	// Workflow engine
	engineOpts := []engine.Option{
		engine.WithMetrics(m),
		engine.WithContextBuilder(contextBuilder),
		engine.WithNodeTimeout(cfg.Engine.NodeTimeout),
	}
	if executionRepo != nil {
		engineOpts = append(engineOpts, engine.WithRepository(executionRepo))
	}
	eng := engine.New(executors, log, engineOpts...)

	// HTTP handlers and routes
	var workflowSource handlers.WorkflowSource
	var executionReader handlers.ExecutionReader
	if workflowRepo != nil {
		workflowSource = workflowRepo
	}
	if executionRepo != nil {
		executionReader = executionRepo
	}

	h := handlers.NewHandlers(
		log,
		eng,
		workflowSource,
		executionReader,
		&handlers.HealthCheckers{DB: dbChecker, Redis: redisChecker},
		cfg.App.Version,
	)

	apiRouter := rest.NewRouter(log, h, m)
	apiRouter.SetupRoutes()

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      apiRouter.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("API server listening", logger.String("address", addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", logger.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
