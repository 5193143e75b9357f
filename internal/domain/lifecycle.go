package domain

import "errors"

// ErrTicketClosed signals a mutation attempt against a closed ticket.
var ErrTicketClosed = errors.New("ticket is closed")

// ErrInvalidStatus signals a status outside the known enumeration.
var ErrInvalidStatus = errors.New("invalid ticket status")

// StatusChange describes the effects of a permitted status transition.
type StatusChange struct {
	From TicketStatus
	To   TicketStatus
	// StampResolvedAt is set when the transition enters a completed state
	// for the first time; the caller records resolved_at = now alongside
	// the status write. An already-set resolved_at is never overwritten.
	StampResolvedAt bool
}

// PlanStatusChange validates a transition and returns its side effects.
// Any non-closed ticket may move to any status; Closed is terminal.
// resolvedAtSet tells the planner whether the ticket already carries a
// resolved_at stamp.
func PlanStatusChange(current, next TicketStatus, resolvedAtSet bool) (StatusChange, error) {
	if current.Terminal() {
		return StatusChange{}, ErrTicketClosed
	}
	if !next.Valid() {
		return StatusChange{}, ErrInvalidStatus
	}
	change := StatusChange{From: current, To: next}
	if next.Completed() && !current.Completed() && !resolvedAtSet {
		change.StampResolvedAt = true
	}
	return change, nil
}

// CanMutate reports whether any field edit, assignment, or deletion is
// still permitted for a ticket in the given status.
func CanMutate(status TicketStatus) bool {
	return !status.Terminal()
}
