package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository allocates per-day ticket sequence numbers. It satisfies
// ticketno.CounterStore.
type CounterRepository interface {
	Increment(ctx context.Context, day time.Time) (int, error)
}

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository instantiates repository.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

// Increment bumps the counter row for the given day and returns the new
// value, creating the row at 1 on the first ticket of the day. The upsert
// takes the row-level exclusive lock for the duration of the statement, so
// concurrent callers serialize on the day row: no duplicates, no gaps. A
// failed commit (contention timeout, storage outage) surfaces as an error
// and retains no increment.
func (r *counterRepository) Increment(ctx context.Context, day time.Time) (int, error) {
	const query = `
        INSERT INTO ticket_counters (day, last_number) VALUES ($1, 1)
        ON CONFLICT (day) DO UPDATE SET last_number = ticket_counters.last_number + 1
        RETURNING last_number`
	var value int
	if err := r.pool.QueryRow(ctx, query, day).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
