package domain

import "time"

// CommentKind distinguishes human replies from system log entries.
type CommentKind string

const (
	CommentKindComment CommentKind = "COMMENT"
	CommentKindLog     CommentKind = "LOG"
)

// Comment is a reply or log line on a ticket. The first admin-authored
// comment on a ticket stamps the ticket's first_response_at.
type Comment struct {
	ID           string
	TicketNumber string
	AuthorID     string
	AuthorName   string
	AuthorRole   UserRole
	Body         string
	Kind         CommentKind
	CreatedAt    time.Time
}
