package domain

import "time"

// SLAPolicy maps a priority to its response and resolution budgets.
// Reference data: ticket operations read it, only admin configuration
// writes it.
type SLAPolicy struct {
	Priority              TicketPriority
	Name                  string
	Description           string
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	UpdatedAt             time.Time
}

// SLAStanding classifies a ticket against one of its deadlines.
type SLAStanding string

const (
	SLAOnTime   SLAStanding = "ON_TIME"
	SLAOverdue  SLAStanding = "OVERDUE"
	SLAMet      SLAStanding = "MET"
	SLABreached SLAStanding = "BREACHED"
)

// CalculateDeadline returns createdAt advanced by the given number of
// minutes. All SLA timestamps in this system live in a fixed UTC+7 offset,
// so minute arithmetic never crosses a DST transition.
func CalculateDeadline(createdAt time.Time, minutes int) time.Time {
	return createdAt.Add(time.Duration(minutes) * time.Minute)
}

// EvaluateSLA classifies standing against a single deadline. completedAt is
// the actual completion stamp for that deadline (first_response_at for the
// response deadline, resolved_at for the resolution deadline). The caller
// supplies now; the function never reads the clock.
//
// A nil deadline always evaluates on-time. A present completion stamp wins
// over status. A completed status without a stamp counts as met.
func EvaluateSLA(deadline, completedAt *time.Time, status TicketStatus, now time.Time) SLAStanding {
	if deadline == nil {
		return SLAOnTime
	}
	if completedAt != nil {
		if completedAt.After(*deadline) {
			return SLABreached
		}
		return SLAMet
	}
	if status.Completed() {
		return SLAMet
	}
	if now.After(*deadline) {
		return SLAOverdue
	}
	return SLAOnTime
}
