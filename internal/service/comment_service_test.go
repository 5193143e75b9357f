package service

import (
	"context"
	"testing"
	"time"

	"github.com/helpdesk-kit/ticketd/internal/domain"
)

type memCommentRepo struct {
	comments []domain.Comment
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memCommentRepo) ListByTicket(_ context.Context, ticketNumber string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, c := range r.comments {
		if c.TicketNumber == ticketNumber {
			result = append(result, c)
		}
	}
	return result, nil
}

func newCommentFixture(t *testing.T) (*CommentService, *fixture) {
	t.Helper()
	f := newFixture(t)
	svc := NewCommentService(&memCommentRepo{}, f.tickets, nil, func() time.Time { return f.now })
	return svc, f
}

func TestAddCommentStampsFirstAdminResponse(t *testing.T) {
	comments, f := newCommentFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "password reset",
		Description: "locked out",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if _, err := comments.AddComment(ctx, admin(), ticket.Number, "looking into it"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	after, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if after.FirstResponseAt == nil {
		t.Fatal("first admin reply must stamp first_response_at")
	}
	if !after.FirstResponseAt.Equal(f.now) {
		t.Errorf("first_response_at = %v, want %v", after.FirstResponseAt, f.now)
	}
}

func TestAddCommentUserReplyDoesNotStamp(t *testing.T) {
	comments, f := newCommentFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "screen share broken",
		Description: "black screen for peers",
		Priority:    domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if _, err := comments.AddComment(ctx, reporter(), ticket.Number, "still happening"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	after, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if after.FirstResponseAt != nil {
		t.Errorf("reporter reply must not stamp first_response_at, got %v", after.FirstResponseAt)
	}
}

func TestAddCommentDoesNotRestamp(t *testing.T) {
	comments, f := newCommentFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "license expired",
		Description: "IDE refuses to start",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if _, err := comments.AddComment(ctx, admin(), ticket.Number, "renewing now"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	first, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	stamp := *first.FirstResponseAt

	if _, err := comments.AddComment(ctx, admin(), ticket.Number, "done, please retry"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	second, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if second.FirstResponseAt == nil || !second.FirstResponseAt.Equal(stamp) {
		t.Errorf("first_response_at changed: %v -> %v", stamp, second.FirstResponseAt)
	}
}

func TestAddCommentValidation(t *testing.T) {
	comments, f := newCommentFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "docking station",
		Description: "no external display",
		Priority:    domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if _, err := comments.AddComment(ctx, reporter(), ticket.Number, "   "); err == nil {
		t.Fatal("blank body must be rejected")
	} else if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", code)
	}

	if _, err := comments.AddComment(ctx, reporter(), "TKT-000000-0000", "hello"); err == nil {
		t.Fatal("unknown ticket must be rejected")
	} else if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", code)
	}
}

func TestListCommentsOrdered(t *testing.T) {
	comments, f := newCommentFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "headset",
		Description: "mic not detected",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	bodies := []string{"tried rebooting", "check the USB hub", "that fixed it"}
	for _, body := range bodies {
		if _, err := comments.AddComment(ctx, reporter(), ticket.Number, body); err != nil {
			t.Fatalf("AddComment: %v", err)
		}
	}

	listed, err := comments.ListComments(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(listed) != len(bodies) {
		t.Fatalf("got %d comments, want %d", len(listed), len(bodies))
	}
	for i, body := range bodies {
		if listed[i].Body != body {
			t.Errorf("comment %d = %q, want %q", i, listed[i].Body, body)
		}
	}
}
