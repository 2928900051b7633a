package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/quota"
)

// PGXUsageRepository is the persistent quota store. The reserve is a single
// conditional upsert so concurrent callers cannot push a window past its
// ceiling.
type PGXUsageRepository struct {
	pool pgxPool
}

// NewPGXUsageRepository wires a pgx backed usage store.
func NewPGXUsageRepository(pool *pgxpool.Pool) *PGXUsageRepository {
	return &PGXUsageRepository{pool: pool}
}

// Reserve increments the (subject, channel, window) counter unless the
// ceiling is reached. A zero ceiling means unmetered.
func (r *PGXUsageRepository) Reserve(ctx context.Context, subject string, channel entity.Channel, windowStart time.Time, ceiling int) (bool, error) {
	query := `
        INSERT INTO api_usage (subject, channel, window_start, count)
        VALUES ($1, $2, $3, 1)
        ON CONFLICT (subject, channel, window_start)
        DO UPDATE SET count = api_usage.count + 1
        WHERE api_usage.count < $4
        RETURNING count
    `
	args := []any{subject, channel, windowStart, ceiling}
	if ceiling <= 0 {
		query = `
            INSERT INTO api_usage (subject, channel, window_start, count)
            VALUES ($1, $2, $3, 1)
            ON CONFLICT (subject, channel, window_start)
            DO UPDATE SET count = api_usage.count + 1
            RETURNING count
        `
		args = args[:3]
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("reserve usage: %w", err)
	}
	return true, nil
}

// Count reads the current counter for (subject, channel, window).
func (r *PGXUsageRepository) Count(ctx context.Context, subject string, channel entity.Channel, windowStart time.Time) (int, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT count FROM api_usage
        WHERE subject = $1 AND channel = $2 AND window_start = $3
    `, subject, channel, windowStart)

	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return count, nil
}

var _ quota.Store = (*PGXUsageRepository)(nil)
