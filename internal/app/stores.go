// Package app wires the audit stores shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"entityaudit/internal/audit"
	"entityaudit/internal/config"
	"entityaudit/internal/logger"
	"entityaudit/internal/store/gormstore"
	"entityaudit/internal/store/memory"
	"entityaudit/internal/store/redisstore"
)

// Store names accepted by AUDIT_WITH.
const (
	StoreAuditLogs = "audit_logs"
	StoreMemory    = "memory"
	StoreRedis     = "redis"
)

// BuildStores registers every store the configuration can reach. The SQL
// store is registered when db is non-nil and Redis when REDIS_URL is set.
// The returned cleanup closes any connection opened here.
func BuildStores(ctx context.Context, cfg *config.Config, db *gorm.DB) (*audit.Stores, func(), error) {
	stores := audit.NewStores()
	stores.Register(StoreMemory, memory.NewStore())
	cleanup := func() {}

	if db != nil {
		stores.Register(StoreAuditLogs, gormstore.New(db))
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting audit redis: %w", err)
		}
		stores.Register(StoreRedis, redisstore.New(client))
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Get().Warnw("redis close error", "error", err)
			}
		}
	}

	logger.Get().Infow("audit stores registered", "stores", stores.Names(), "audit_with", cfg.AuditWith)
	return stores, cleanup, nil
}
