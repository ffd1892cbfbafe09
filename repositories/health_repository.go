package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HealthRepository checks that a pooled connection can run a statement.
type HealthRepository interface {
	DatabaseTime(ctx context.Context) (time.Time, error)
}

type postgresHealthRepository struct {
	db *sql.DB
}

func NewPostgresHealthRepository(db *sql.DB) HealthRepository {
	return &postgresHealthRepository{db: db}
}

func (r *postgresHealthRepository) DatabaseTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT NOW()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to query database time: %w", err)
	}
	return now, nil
}
