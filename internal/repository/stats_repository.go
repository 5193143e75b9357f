package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-kit/ticketd/internal/domain"
)

// StatsRepository aggregates ticket counts for the dashboard. SLA standing
// itself is never persisted; overdue counts are derived from deadlines at
// query time against the caller-supplied now.
type StatsRepository interface {
	CountAll(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountOpenByPriority(ctx context.Context) (map[domain.TicketPriority]int64, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository instantiates repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets`)
}

func (r *statsRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE created_at >= $1`, since)
}

func (r *statsRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE status = $1`, status)
}

func (r *statsRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE status NOT IN ($1, $2) AND resolution_deadline < $3`
	return r.count(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed, now)
}

func (r *statsRepository) CountOpenByPriority(ctx context.Context) (map[domain.TicketPriority]int64, error) {
	const query = `
        SELECT priority, COUNT(*) FROM tickets
        WHERE status NOT IN ($1, $2)
        GROUP BY priority`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.TicketPriority]int64)
	for rows.Next() {
		var priority domain.TicketPriority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		result[priority] = count
	}
	return result, rows.Err()
}

func (r *statsRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
