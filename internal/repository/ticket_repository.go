package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-kit/ticketd/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	ReporterID *string
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence. Mutations that must
// observe the closed-ticket guard run inside a single transaction with the
// row locked, so a concurrent close and a concurrent edit can never both
// partially apply.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateGuarded locks the ticket row, loads it, applies apply to the
	// in-memory copy and persists every mutable field in the same
	// transaction. An error from apply aborts the transaction with no
	// effect. Returns the updated ticket.
	UpdateGuarded(ctx context.Context, number string, apply func(*domain.Ticket) error) (*domain.Ticket, error)
	// DeleteGuarded locks the ticket row and deletes it unless guard
	// rejects the current state.
	DeleteGuarded(ctx context.Context, number string, guard func(*domain.Ticket) error) error
	// StampFirstResponse records first_response_at if not already set.
	StampFirstResponse(ctx context.Context, number string, at time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `number, subject, description, category_id, priority, status,
       reporter_id, assignee_id, response_deadline, resolution_deadline,
       first_response_at, resolved_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, subject, description, category_id, priority, status,
            reporter_id, assignee_id, response_deadline, resolution_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Number,
		ticket.Subject,
		ticket.Description,
		ticket.CategoryID,
		ticket.Priority,
		ticket.Status,
		ticket.ReporterID,
		ticket.AssigneeID,
		ticket.ResponseDeadline,
		ticket.ResolutionDeadline,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE number=$1`
	row := r.pool.QueryRow(ctx, query, number)
	return scanTicket(row)
}

func (r *ticketRepository) UpdateGuarded(ctx context.Context, number string, apply func(*domain.Ticket) error) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE number=$1 FOR UPDATE`
	ticket, err := scanTicket(tx.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}

	if err := apply(ticket); err != nil {
		return nil, err
	}

	const update = `
        UPDATE tickets SET subject=$1, description=$2, category_id=$3, priority=$4,
            status=$5, assignee_id=$6, first_response_at=$7, resolved_at=$8, updated_at=NOW()
        WHERE number=$9
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		ticket.Subject,
		ticket.Description,
		ticket.CategoryID,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.Number,
	).Scan(&ticket.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) DeleteGuarded(ctx context.Context, number string, guard func(*domain.Ticket) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE number=$1 FOR UPDATE`
	ticket, err := scanTicket(tx.QueryRow(ctx, query, number))
	if err != nil {
		return err
	}

	if err := guard(ticket); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE number=$1`, number); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) StampFirstResponse(ctx context.Context, number string, at time.Time) error {
	const query = `
        UPDATE tickets SET first_response_at=$1, updated_at=NOW()
        WHERE number=$2 AND first_response_at IS NULL`
	_, err := r.pool.Exec(ctx, query, at, number)
	return err
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(number) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.Number,
		&ticket.Subject,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ReporterID,
		&ticket.AssigneeID,
		&ticket.ResponseDeadline,
		&ticket.ResolutionDeadline,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
