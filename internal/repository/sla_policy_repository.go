package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-kit/ticketd/internal/domain"
)

// SLAPolicyRepository serves the priority-to-budget reference table.
type SLAPolicyRepository interface {
	GetByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error)
	List(ctx context.Context) ([]domain.SLAPolicy, error)
	Update(ctx context.Context, policy *domain.SLAPolicy) error
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSLAPolicyRepository instantiates repository.
func NewSLAPolicyRepository(pool *pgxpool.Pool) SLAPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

func (r *slaPolicyRepository) GetByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	const query = `
        SELECT priority, name, description, response_time_minutes, resolution_time_minutes, updated_at
        FROM sla_policies WHERE priority=$1`
	var policy domain.SLAPolicy
	if err := r.pool.QueryRow(ctx, query, priority).Scan(
		&policy.Priority,
		&policy.Name,
		&policy.Description,
		&policy.ResponseTimeMinutes,
		&policy.ResolutionTimeMinutes,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *slaPolicyRepository) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	const query = `
        SELECT priority, name, description, response_time_minutes, resolution_time_minutes, updated_at
        FROM sla_policies ORDER BY priority`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var policy domain.SLAPolicy
		if err := rows.Scan(
			&policy.Priority,
			&policy.Name,
			&policy.Description,
			&policy.ResponseTimeMinutes,
			&policy.ResolutionTimeMinutes,
			&policy.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}

func (r *slaPolicyRepository) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        UPDATE sla_policies SET name=$1, description=$2, response_time_minutes=$3,
            resolution_time_minutes=$4, updated_at=NOW()
        WHERE priority=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.Name,
		policy.Description,
		policy.ResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		policy.Priority,
	).Scan(&policy.UpdatedAt)
}
