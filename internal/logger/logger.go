// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
)

// Init initializes the global logger for the given environment.
// For "production", it uses a JSON encoder. For "test" it discards output,
// and for all other environments it uses a human-readable console encoder.
// Calling Init again after the logger is set is a no-op.
func Init(env string) {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		return
	}

	var base *zap.Logger
	var err error

	switch env {
	case "production":
		base, err = zap.NewProduction()
	case "test":
		base = zap.NewNop()
	default:
		base, err = zap.NewDevelopment()
	}

	if err != nil {
		// Fallback to nop logger if initialization fails.
		base = zap.NewNop()
	}

	sugar = base.Sugar()
}

// Replace swaps the global logger and returns a function restoring the
// previous one. Tests use it with zaptest/observer to assert on log output.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := sugar
	sugar = l.Sugar()
	return func() {
		mu.Lock()
		defer mu.Unlock()
		sugar = prev
	}
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s == nil {
		Init("development")
		mu.RLock()
		s = sugar
		mu.RUnlock()
	}
	return s
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if sugar != nil {
		_ = sugar.Sync()
	}
}
