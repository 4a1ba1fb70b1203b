package database

import (
	"context"
)

// AttemptReader provides read-only access to the verification audit log
type AttemptReader interface {
	// GetAttempt retrieves an attempt by ID, returns nil if not found
	GetAttempt(ctx context.Context, id string) (*Attempt, error)
	// ListAttempts returns the most recent attempts, newest first
	ListAttempts(ctx context.Context, limit int) ([]Attempt, error)
	// CountAttempts returns the total number of recorded attempts
	CountAttempts(ctx context.Context) (int, error)
}

// AttemptWriter provides write access to the verification audit log
type AttemptWriter interface {
	AttemptReader

	// SaveAttempt stores an attempt. CreatedAt is set by the store when zero.
	SaveAttempt(ctx context.Context, attempt *Attempt) error
}
