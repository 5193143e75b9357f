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
	apperrors "github.com/helpdesk-kit/ticketd/pkg/util"
)

// CommentService appends replies to tickets and stamps first_response_at on
// the first admin reply.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher, now func() time.Time) *CommentService {
	if now == nil {
		now = time.Now
	}
	return &CommentService{comments: comments, tickets: tickets, dispatcher: dispatcher, now: now}
}

// AddComment records a reply on a ticket. An admin's first reply to a
// ticket that has no first_response_at yet stamps it; once set the stamp is
// never changed, so response-deadline evaluation stays "met" forever after.
// Closed tickets accept comments but their fields stay frozen, so no stamp
// is written for them.
func (s *CommentService) AddComment(ctx context.Context, author *domain.User, ticketNumber, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}

	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	comment := &domain.Comment{
		ID:           uuid.NewString(),
		TicketNumber: ticket.Number,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorRole:   author.Role,
		Body:         body,
		Kind:         domain.CommentKindComment,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if author.Role == domain.UserRoleAdmin && ticket.FirstResponseAt == nil && domain.CanMutate(ticket.Status) {
		respondedAt := s.now()
		if err := s.tickets.StampFirstResponse(ctx, ticket.Number, respondedAt); err != nil {
			return nil, err
		}
		if s.dispatcher != nil {
			_ = s.dispatcher.Publish(ctx, events.Event{
				ID:           uuid.NewString(),
				Type:         events.EventTicketFirstResponse,
				TicketNumber: ticket.Number,
				Actor:        actorFor(author),
				Timestamp:    respondedAt,
				Payload:      events.TicketFirstResponsePayload{RespondedAt: respondedAt},
			})
		}
	}
	return comment, nil
}

// ListComments returns all comments on a ticket, oldest first.
func (s *CommentService) ListComments(ctx context.Context, ticketNumber string) ([]domain.Comment, error) {
	if _, err := s.tickets.GetByNumber(ctx, ticketNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return s.comments.ListByTicket(ctx, ticketNumber)
}
