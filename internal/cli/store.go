// Package cli implements the auditctl commands.
package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"entityaudit/internal/app"
	"entityaudit/internal/audit"
	"entityaudit/internal/config"
	"entityaudit/internal/database"
	"entityaudit/internal/services"
)

// openService opens the audit store named by AUDIT_WITH and returns a reader
// over it. The returned func releases the connections it opened.
var openService = func(ctx context.Context) (services.AuditLogServicer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var db *gorm.DB
	closeDB := func() {}
	if cfg.AuditWith == app.StoreAuditLogs {
		dbConfig, err := database.NewConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load database configuration: %w", err)
		}
		dbManager, err := database.NewManager(dbConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		db = dbManager.DB()
		closeDB = func() { _ = dbManager.Close() }
	}

	stores, closeStores, err := app.BuildStores(ctx, cfg, db)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	cleanup := func() {
		closeStores()
		closeDB()
	}

	writer, err := audit.NewWriter(cfg.AuditSettings(), stores)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	store, err := writer.Store()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return services.NewAuditLogService(store), cleanup, nil
}
