package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-verify/internal/database"
)

// AttemptRepository provides PostgreSQL-backed storage of verification attempts
type AttemptRepository struct {
	pool *Pool
}

// NewAttemptRepository creates a new PostgreSQL attempt repository
func NewAttemptRepository(pool *Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, status, liveness_passed, liveness_message, min_ratio, max_ratio,
	ratios, verified, distance, threshold, model, error_code, created_at`

// SaveAttempt stores an attempt. A missing ID is generated.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, a *database.Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	ratios := a.Ratios
	if ratios == nil {
		ratios = []*float64{}
	}
	ratiosJSON, err := json.Marshal(ratios)
	if err != nil {
		return fmt.Errorf("marshal ratios: %w", err)
	}

	query := `
		INSERT INTO verification_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.Status,
		a.LivenessPassed,
		a.LivenessMessage,
		nullFloat(a.MinRatio),
		nullFloat(a.MaxRatio),
		string(ratiosJSON),
		a.Verified,
		nullFloat(a.Distance),
		nullFloat(a.Threshold),
		a.Model,
		a.ErrorCode,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

// GetAttempt retrieves an attempt by ID, returns nil if not found
func (r *AttemptRepository) GetAttempt(ctx context.Context, id string) (*database.Attempt, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `SELECT ` + attemptColumns + ` FROM verification_attempts WHERE id = $1`
	a, err := scanAttempt(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

// ListAttempts returns the most recent attempts, newest first
func (r *AttemptRepository) ListAttempts(ctx context.Context, limit int) ([]database.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM verification_attempts ORDER BY created_at DESC, id LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []database.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// CountAttempts returns the total number of recorded attempts
func (r *AttemptRepository) CountAttempts(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM verification_attempts").Scan(&count); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*database.Attempt, error) {
	var a database.Attempt
	var minRatio, maxRatio, distance, thresh sql.NullFloat64
	var ratiosJSON []byte
	err := row.Scan(
		&a.ID,
		&a.Status,
		&a.LivenessPassed,
		&a.LivenessMessage,
		&minRatio,
		&maxRatio,
		&ratiosJSON,
		&a.Verified,
		&distance,
		&thresh,
		&a.Model,
		&a.ErrorCode,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(ratiosJSON, &a.Ratios); err != nil {
		return nil, fmt.Errorf("unmarshal ratios: %w", err)
	}
	a.MinRatio = floatPtr(minRatio)
	a.MaxRatio = floatPtr(maxRatio)
	a.Distance = floatPtr(distance)
	a.Threshold = floatPtr(thresh)
	return &a, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ database.AttemptWriter = (*AttemptRepository)(nil)
