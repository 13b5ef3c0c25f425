package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"entityaudit/internal/app"
	"entityaudit/internal/config"
	"entityaudit/internal/database"
	"entityaudit/internal/logger"
	"entityaudit/internal/server"
	"entityaudit/internal/validator"
)

// @title           entityaudit API
// @version         1.0
// @description     Read-only access to the audit trail of remotely persisted entities.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()
	ctx := context.Background()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	stores, cleanup, err := app.BuildStores(ctx, appConfig, dbManager.DB())
	if err != nil {
		return err
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// The API only reads. Audit write counters belong to the processes that
	// run entity operations, so only the runtime collectors are registered.
	store, err := stores.Resolve(appConfig.AuditWith)
	if err != nil {
		return err
	}

	validator.Register()
	router := server.NewRouter(server.Deps{
		Store:         store,
		StoreName:     appConfig.AuditWith,
		JWTSecret:     appConfig.JWTSecret,
		MetricsAPIKey: appConfig.MetricsAPIKey,
		Gatherer:      reg,
	})

	log.Infof("Starting entityaudit API on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
