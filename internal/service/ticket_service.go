package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/ticketd/internal/domain"
	"github.com/helpdesk-kit/ticketd/internal/events"
	"github.com/helpdesk-kit/ticketd/internal/repository"
	"github.com/helpdesk-kit/ticketd/internal/ticketno"
	apperrors "github.com/helpdesk-kit/ticketd/pkg/util"
)

// TicketService coordinates ticket workflows: creation with SLA deadline
// stamping and number allocation, guarded mutation, and deletion.
type TicketService struct {
	tickets    repository.TicketRepository
	policies   repository.SLAPolicyRepository
	numbers    *ticketno.Generator
	dispatcher events.Dispatcher
	loc        *time.Location
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	PolicyRepo repository.SLAPolicyRepository
	Numbers    *ticketno.Generator
	Dispatcher events.Dispatcher
	Location   *time.Location
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	CategoryID  *string
	Priority    domain.TicketPriority
	AssigneeID  *string
}

// TicketUpdateInput describes a partial ticket update. Nil fields are left
// untouched; an empty AssigneeID or CategoryID clears the reference.
type TicketUpdateInput struct {
	Status      *domain.TicketStatus
	AssigneeID  *string
	Subject     *string
	Description *string
	CategoryID  *string
	Priority    *domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	ReporterID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		policies:   deps.PolicyRepo,
		numbers:    deps.Numbers,
		dispatcher: deps.Dispatcher,
		loc:        loc,
		now:        now,
	}
}

// CreateTicket files a new ticket. The SLA policy for the requested
// priority supplies the response and resolution budgets; both deadlines are
// computed once here and never recomputed. The ticket number is only
// allocated after the policy lookup succeeds, so an unknown priority leaves
// the day counter untouched.
func (s *TicketService) CreateTicket(ctx context.Context, reporter *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	policy, err := s.policies.GetByPriority(ctx, input.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("no SLA policy for priority", map[string]any{"priority": input.Priority})
		}
		return nil, err
	}

	createdAt := s.now().In(s.loc)
	number, err := s.numbers.Next(ctx, createdAt)
	if err != nil {
		return nil, apperrors.NewConcurrencyError("could not allocate ticket number", err)
	}

	ticket := &domain.Ticket{
		Number:             number,
		Subject:            subject,
		Description:        description,
		CategoryID:         input.CategoryID,
		Priority:           input.Priority,
		Status:             domain.TicketStatusOpen,
		ReporterID:         reporter.ID,
		AssigneeID:         input.AssigneeID,
		ResponseDeadline:   domain.CalculateDeadline(createdAt, policy.ResponseTimeMinutes),
		ResolutionDeadline: domain.CalculateDeadline(createdAt, policy.ResolutionTimeMinutes),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticket.Number,
		Actor:        actorFor(reporter),
		Payload: events.TicketCreatedPayload{
			Priority:           ticket.Priority,
			Subject:            ticket.Subject,
			ResponseDeadline:   ticket.ResponseDeadline,
			ResolutionDeadline: ticket.ResolutionDeadline,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by number.
func (s *TicketService) GetTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		ReporterID: filter.ReporterID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		CategoryID: filter.CategoryID,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// UpdateTicket applies a partial update atomically. The closed-ticket guard
// runs before any field is touched, inside the same transaction as the
// writes: a ticket that is already Closed rejects the whole update with
// Forbidden and no partial effect. Entering Resolved or Closed for the
// first time stamps resolved_at; an existing stamp is preserved.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, number string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}

	now := s.now().In(s.loc)
	var oldStatus domain.TicketStatus
	var oldPriority domain.TicketPriority
	var assigneeChanged bool

	ticket, err := s.tickets.UpdateGuarded(ctx, number, func(t *domain.Ticket) error {
		if !domain.CanMutate(t.Status) {
			return domain.ErrTicketClosed
		}
		oldStatus = t.Status
		oldPriority = t.Priority

		if input.Status != nil {
			change, err := domain.PlanStatusChange(t.Status, *input.Status, t.ResolvedAt != nil)
			if err != nil {
				return err
			}
			t.Status = change.To
			if change.StampResolvedAt {
				stamp := now
				t.ResolvedAt = &stamp
			}
		}
		if input.AssigneeID != nil {
			assigneeChanged = true
			if *input.AssigneeID == "" {
				t.AssigneeID = nil
			} else {
				t.AssigneeID = input.AssigneeID
			}
		}
		if input.Subject != nil {
			t.Subject = strings.TrimSpace(*input.Subject)
		}
		if input.Description != nil {
			t.Description = strings.TrimSpace(*input.Description)
		}
		if input.CategoryID != nil {
			if *input.CategoryID == "" {
				t.CategoryID = nil
			} else {
				t.CategoryID = input.CategoryID
			}
		}
		if input.Priority != nil {
			// Deadlines are a creation-time contract and are not
			// re-baselined on priority edits.
			t.Priority = *input.Priority
		}
		return nil
	})
	if err != nil {
		return nil, mapTicketError(err)
	}

	if input.Status != nil && oldStatus != ticket.Status {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketStatusChanged,
			TicketNumber: ticket.Number,
			Actor:        actorFor(actor),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	if input.Priority != nil && oldPriority != ticket.Priority {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketPriorityChanged,
			TicketNumber: ticket.Number,
			Actor:        actorFor(actor),
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: ticket.Priority,
			},
		})
	}
	if assigneeChanged {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketAssigned,
			TicketNumber: ticket.Number,
			Actor:        actorFor(actor),
			Payload: events.TicketAssignedPayload{
				AssigneeID: ticket.AssigneeID,
			},
		})
	}
	return ticket, nil
}

// DeleteTicket removes a ticket unless it is Closed.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, number string) error {
	err := s.tickets.DeleteGuarded(ctx, number, func(t *domain.Ticket) error {
		if !domain.CanMutate(t.Status) {
			return domain.ErrTicketClosed
		}
		return nil
	})
	if err != nil {
		return mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketDeleted,
		TicketNumber: number,
		Actor:        actorFor(actor),
	})
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func mapTicketError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", nil)
	case errors.Is(err, domain.ErrTicketClosed):
		return apperrors.NewForbidden("ticket is closed")
	case errors.Is(err, domain.ErrInvalidStatus):
		return apperrors.NewValidationError("unknown status", nil)
	default:
		return err
	}
}
