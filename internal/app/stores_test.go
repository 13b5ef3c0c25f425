package app

import (
	"context"
	"errors"
	"testing"

	"entityaudit/internal/audit"
	"entityaudit/internal/config"
	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/testutil"
)

func TestBuildStores(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{AuditWith: StoreAuditLogs, AuditCurrentUser: "system"}

	stores, cleanup, err := BuildStores(context.Background(), cfg, db)
	testutil.AssertNoError(t, err)
	defer cleanup()

	if got := stores.Names(); len(got) != 2 || got[0] != StoreAuditLogs || got[1] != StoreMemory {
		t.Errorf("unexpected stores: %v", got)
	}

	w, err := audit.NewWriter(cfg.AuditSettings(), stores)
	testutil.AssertNoError(t, err)
	if _, err := w.Store(); err != nil {
		t.Errorf("configured store should resolve: %v", err)
	}
}

func TestBuildStores_WithoutDatabase(t *testing.T) {
	cfg := &config.Config{AuditWith: StoreAuditLogs}

	stores, cleanup, err := BuildStores(context.Background(), cfg, nil)
	testutil.AssertNoError(t, err)
	defer cleanup()

	_, err = audit.NewWriter(cfg.AuditSettings(), stores)
	if !errors.Is(err, apperrors.ErrUnknownAuditStore) {
		t.Errorf("expected ErrUnknownAuditStore, got %v", err)
	}
}

func TestBuildStores_BadRedisURL(t *testing.T) {
	cfg := &config.Config{AuditWith: StoreRedis, RedisURL: "not a url"}

	_, cleanup, err := BuildStores(context.Background(), cfg, nil)
	defer cleanup()
	if err == nil {
		t.Error("expected an error for an invalid REDIS_URL")
	}
}
