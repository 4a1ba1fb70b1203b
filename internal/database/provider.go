package database

import (
	"context"
	"errors"
	"sync"
)

// ErrNotInitialized is returned when no storage backend has been registered.
var ErrNotInitialized = errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")

var (
	backendMu             sync.RWMutex
	postgresAttemptWriter func() AttemptWriter
	postgresInitialized   bool
)

// RegisterPostgresBackend registers the PostgreSQL repository constructor.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(writer func() AttemptWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	postgresAttemptWriter = writer
	postgresInitialized = writer != nil
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return postgresInitialized
}

// GetAttemptWriter returns an AttemptWriter from the PostgreSQL backend
func GetAttemptWriter(ctx context.Context) (AttemptWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if !postgresInitialized {
		return nil, ErrNotInitialized
	}
	return postgresAttemptWriter(), nil
}

// GetAttemptReader returns an AttemptReader from the PostgreSQL backend
func GetAttemptReader(ctx context.Context) (AttemptReader, error) {
	return GetAttemptWriter(ctx)
}
