// Package ticketno issues the human-readable TKT-YYMMDD-NNNN ticket numbers.
// The per-day sequence lives in a CounterStore whose Increment must be a
// single atomic read-modify-write; the package itself holds no state.
package ticketno

import (
	"context"
	"fmt"
	"time"
)

// Prefix precedes every ticket number.
const Prefix = "TKT"

// CounterStore increments the sequence for a calendar day and returns the
// new value. The first increment for a day returns 1. Implementations must
// guarantee that concurrent callers on the same day each receive a distinct
// strictly-increasing value, and that a failed commit retains no increment.
type CounterStore interface {
	Increment(ctx context.Context, day time.Time) (int, error)
}

// Generator produces ticket numbers scoped to calendar days in a fixed
// timezone.
type Generator struct {
	store CounterStore
	loc   *time.Location
}

// NewGenerator builds a generator. loc fixes the timezone used to bucket
// days; nil defaults to UTC.
func NewGenerator(store CounterStore, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{store: store, loc: loc}
}

// Next allocates the next number for the day containing now. The returned
// identifier is only handed out after the underlying counter increment has
// committed; on error no identifier is issued.
func (g *Generator) Next(ctx context.Context, now time.Time) (string, error) {
	day := DayKey(now, g.loc)
	seq, err := g.store.Increment(ctx, day)
	if err != nil {
		return "", fmt.Errorf("increment ticket counter: %w", err)
	}
	return Format(day, seq), nil
}

// DayKey truncates t to midnight of its calendar day in loc.
func DayKey(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Format renders a ticket number for a day and sequence value. The numeric
// suffix is zero-padded to four digits and widens naturally past 9999, so
// a day with more than 9999 tickets keeps producing unique, ordered
// identifiers at the cost of the fixed width.
func Format(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%02d%02d%02d-%04d", Prefix, day.Year()%100, int(day.Month()), day.Day(), seq)
}
