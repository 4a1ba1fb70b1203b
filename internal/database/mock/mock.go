// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verify/internal/database"
)

// MockAttemptWriter is an in-memory implementation of database.AttemptWriter
type MockAttemptWriter struct {
	mu       sync.RWMutex
	attempts map[string]database.Attempt

	// Error injection
	SaveError  error
	GetError   error
	ListError  error
	CountError error

	// Call tracking
	SaveCalls []database.Attempt
}

// NewMockAttemptWriter creates a new mock attempt writer
func NewMockAttemptWriter() *MockAttemptWriter {
	return &MockAttemptWriter{
		attempts: make(map[string]database.Attempt),
	}
}

// AddAttempt adds an attempt to the mock store without recording a call
func (m *MockAttemptWriter) AddAttempt(a database.Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
}

// SaveAttempt stores an attempt
func (m *MockAttemptWriter) SaveAttempt(ctx context.Context, a *database.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, *a)
	if m.SaveError != nil {
		return m.SaveError
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.attempts[a.ID] = *a
	return nil
}

// GetAttempt retrieves an attempt by ID
func (m *MockAttemptWriter) GetAttempt(ctx context.Context, id string) (*database.Attempt, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListAttempts returns the most recent attempts, newest first
func (m *MockAttemptWriter) ListAttempts(ctx context.Context, limit int) ([]database.Attempt, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]database.Attempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountAttempts returns the number of stored attempts
func (m *MockAttemptWriter) CountAttempts(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attempts), nil
}

// SavedAttempts returns a copy of all SaveAttempt calls
func (m *MockAttemptWriter) SavedAttempts() []database.Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Attempt, len(m.SaveCalls))
	copy(out, m.SaveCalls)
	return out
}

var _ database.AttemptWriter = (*MockAttemptWriter)(nil)
