package dto

import (
	"github.com/helpdesk-kit/ticketd/internal/domain"
)

// SLAPolicyResponse is the policy shape.
type SLAPolicyResponse struct {
	Priority              domain.TicketPriority `json:"priority"`
	Name                  string                `json:"name"`
	Description           string                `json:"description"`
	ResponseTimeMinutes   int                   `json:"response_time_minutes"`
	ResolutionTimeMinutes int                   `json:"resolution_time_minutes"`
}

// UpdateSLAPolicyRequest adjusts the budgets for one priority.
type UpdateSLAPolicyRequest struct {
	Name                  string `json:"name"`
	Description           string `json:"description"`
	ResponseTimeMinutes   int    `json:"response_time_minutes"`
	ResolutionTimeMinutes int    `json:"resolution_time_minutes"`
}

// PriorityCountResponse is one dashboard row.
type PriorityCountResponse struct {
	Priority domain.TicketPriority `json:"priority"`
	Count    int64                 `json:"count"`
}
