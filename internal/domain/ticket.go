package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is one of the four known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Terminal reports whether no further mutation is permitted.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// Completed reports whether the status counts as done for SLA purposes.
func (s TicketStatus) Completed() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency and keys the SLA policy table.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is a known SLA policy key.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. Number is the generated
// TKT-YYMMDD-NNNN identifier and the primary key; it never changes and is
// never reused. ResponseDeadline and ResolutionDeadline are fixed at
// creation and are not recomputed when priority is edited later.
type Ticket struct {
	Number             string
	Subject            string
	Description        string
	CategoryID         *string
	Priority           TicketPriority
	Status             TicketStatus
	ReporterID         string
	AssigneeID         *string
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time
	FirstResponseAt    *time.Time
	ResolvedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Category is reference data for grouping tickets.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
