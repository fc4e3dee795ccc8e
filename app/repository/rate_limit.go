package repository

import (
	"context"
	"time"
)

type RateLimitRepository struct {
	db DBTX
}

func NewRateLimitRepository(db DBTX) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Increment atomically creates or bumps the counter for one fixed window
// and returns the count after the increment. LAST_INSERT_ID(expr) makes the
// updated counter readable through LastInsertId without a second round trip.
func (r *RateLimitRepository) Increment(ctx context.Context, projectID uint64, routeKey string, windowStart time.Time) (int64, error) {
	query := `
		INSERT INTO rate_limit_windows (project_id, route_key, window_start, count)
		VALUES (?, ?, ?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE count = LAST_INSERT_ID(count + 1)
	`

	result, err := r.db.ExecContext(ctx, query, projectID, routeKey, windowStart)
	if err != nil {
		return 0, err
	}
	count, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return count, nil
}
