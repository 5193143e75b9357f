package dto

import (
	"time"

	"github.com/helpdesk-kit/ticketd/internal/domain"
)

// CreateTicketRequest is the payload for filing a ticket.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	CategoryID  *string               `json:"category_id,omitempty"`
	Priority    domain.TicketPriority `json:"priority"`
	AssigneeID  *string               `json:"assignee_id,omitempty"`
}

// UpdateTicketRequest is a partial update; absent fields stay untouched.
type UpdateTicketRequest struct {
	Status      *domain.TicketStatus   `json:"status,omitempty"`
	AssigneeID  *string                `json:"assignee_id,omitempty"`
	Subject     *string                `json:"subject,omitempty"`
	Description *string                `json:"description,omitempty"`
	CategoryID  *string                `json:"category_id,omitempty"`
	Priority    *domain.TicketPriority `json:"priority,omitempty"`
}

// SLAStatus pairs a raw deadline with its standing computed at read time.
type SLAStatus struct {
	Deadline    time.Time          `json:"deadline"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Standing    domain.SLAStanding `json:"standing"`
}

// TicketSummary is the listing shape.
type TicketSummary struct {
	Number        string                `json:"number"`
	Subject       string                `json:"subject"`
	CategoryID    *string               `json:"category_id,omitempty"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	AssigneeID    *string               `json:"assignee_id,omitempty"`
	ResponseSLA   SLAStatus             `json:"response_sla"`
	ResolutionSLA SLAStatus             `json:"resolution_sla"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse is the single-ticket shape.
type TicketDetailResponse struct {
	Number        string                `json:"number"`
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	CategoryID    *string               `json:"category_id,omitempty"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	ReporterID    string                `json:"reporter_id"`
	AssigneeID    *string               `json:"assignee_id,omitempty"`
	ResponseSLA   SLAStatus             `json:"response_sla"`
	ResolutionSLA SLAStatus             `json:"resolution_sla"`
	ResolvedAt    *time.Time            `json:"resolved_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Comments      []CommentResponse     `json:"comments,omitempty"`
}

// CreateCommentRequest is the payload for replying to a ticket.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse is the comment shape.
type CommentResponse struct {
	ID         string             `json:"id"`
	AuthorName string             `json:"author_name"`
	AuthorRole domain.UserRole    `json:"author_role"`
	Body       string             `json:"body"`
	Kind       domain.CommentKind `json:"kind"`
	CreatedAt  time.Time          `json:"created_at"`
}

// CategoryResponse is the category shape.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
