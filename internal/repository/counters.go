package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-roulette-bot/internal/model"
)

// CounterRepository stores per-user integer counters: gathered items and
// roulette statistics share the same table, keyed by name.
type CounterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository creates a new CounterRepository instance.
func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// Add increments a counter by delta, creating it on first use, and returns the new value.
func (r *CounterRepository) Add(ctx context.Context, userID int64, key string, delta int64) (int64, error) {
	const query = `
		INSERT INTO user_counters (user_id, counter_key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, counter_key)
		DO UPDATE SET value = user_counters.value + $3, updated_at = NOW()
		RETURNING value
	`

	var value int64
	if err := r.pool.QueryRow(ctx, query, userID, key, delta).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to add counter %s: %w", key, err)
	}
	return value, nil
}

// Get returns a counter value; a counter that was never written reads as zero.
func (r *CounterRepository) Get(ctx context.Context, userID int64, key string) (int64, error) {
	const query = `
		SELECT COALESCE(
			(SELECT value FROM user_counters WHERE user_id = $1 AND counter_key = $2),
			0)
	`

	var value int64
	if err := r.pool.QueryRow(ctx, query, userID, key).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to get counter %s: %w", key, err)
	}
	return value, nil
}

// All returns every non-zero counter of a user ordered by key.
func (r *CounterRepository) All(ctx context.Context, userID int64) ([]*model.Counter, error) {
	const query = `
		SELECT user_id, counter_key, value, updated_at
		FROM user_counters
		WHERE user_id = $1 AND value <> 0
		ORDER BY counter_key
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}
	defer rows.Close()

	var counters []*model.Counter
	for rows.Next() {
		var c model.Counter
		if err := rows.Scan(&c.UserID, &c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		counters = append(counters, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counters: %w", err)
	}

	return counters, nil
}
