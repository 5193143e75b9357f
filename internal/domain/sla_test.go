package domain

import (
	"testing"
	"time"
)

var wib = time.FixedZone("UTC+07:00", 7*3600)

func TestCalculateDeadline(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 30, 0, 0, wib)

	got := CalculateDeadline(base, 45)
	want := time.Date(2025, 3, 10, 10, 15, 0, 0, wib)
	if !got.Equal(want) {
		t.Errorf("CalculateDeadline(base, 45) = %v, want %v", got, want)
	}

	if got := CalculateDeadline(base, 0); !got.Equal(base) {
		t.Errorf("zero minutes should return the same instant, got %v", got)
	}
}

func TestCalculateDeadlineRollsOverBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Time
		minutes int
		want    time.Time
	}{
		{
			name:    "across midnight",
			base:    time.Date(2025, 3, 10, 23, 50, 0, 0, wib),
			minutes: 20,
			want:    time.Date(2025, 3, 11, 0, 10, 0, 0, wib),
		},
		{
			name:    "across month end",
			base:    time.Date(2025, 1, 31, 23, 0, 0, 0, wib),
			minutes: 120,
			want:    time.Date(2025, 2, 1, 1, 0, 0, 0, wib),
		},
		{
			name:    "across year end",
			base:    time.Date(2025, 12, 31, 23, 59, 0, 0, wib),
			minutes: 2,
			want:    time.Date(2026, 1, 1, 0, 1, 0, 0, wib),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateDeadline(tt.base, tt.minutes); !got.Equal(tt.want) {
				t.Errorf("CalculateDeadline(%v, %d) = %v, want %v", tt.base, tt.minutes, got, tt.want)
			}
		})
	}
}

func TestCalculateDeadlineIsAdditive(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, wib)
	for _, pair := range [][2]int{{0, 0}, {1, 59}, {30, 30}, {90, 1440}} {
		m1, m2 := pair[0], pair[1]
		stepped := CalculateDeadline(CalculateDeadline(base, m1), m2)
		direct := CalculateDeadline(base, m1+m2)
		if !stepped.Equal(direct) {
			t.Errorf("m1=%d m2=%d: stepped %v != direct %v", m1, m2, stepped, direct)
		}
	}
}

func TestEvaluateSLA(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, wib)
	deadline := base.Add(60 * time.Minute)
	at := func(minutes int) *time.Time {
		v := base.Add(time.Duration(minutes) * time.Minute)
		return &v
	}

	tests := []struct {
		name        string
		deadline    *time.Time
		completedAt *time.Time
		status      TicketStatus
		now         time.Time
		want        SLAStanding
	}{
		{"open before deadline", &deadline, nil, TicketStatusOpen, base.Add(30 * time.Minute), SLAOnTime},
		{"open past deadline", &deadline, nil, TicketStatusOpen, base.Add(90 * time.Minute), SLAOverdue},
		{"completed before deadline", &deadline, at(45), TicketStatusResolved, base.Add(90 * time.Minute), SLAMet},
		{"completed after deadline", &deadline, at(75), TicketStatusResolved, base.Add(90 * time.Minute), SLABreached},
		{"completion exactly at deadline", &deadline, &deadline, TicketStatusResolved, base.Add(90 * time.Minute), SLAMet},
		{"no deadline configured", nil, nil, TicketStatusOpen, base.Add(500 * time.Hour), SLAOnTime},
		{"no deadline with completion", nil, at(45), TicketStatusClosed, base, SLAOnTime},
		{"completed status without stamp", &deadline, nil, TicketStatusClosed, base.Add(90 * time.Minute), SLAMet},
		{"in progress at deadline instant", &deadline, nil, TicketStatusInProgress, deadline, SLAOnTime},
		{"stamp wins over open status", &deadline, at(75), TicketStatusInProgress, base.Add(80 * time.Minute), SLABreached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateSLA(tt.deadline, tt.completedAt, tt.status, tt.now); got != tt.want {
				t.Errorf("EvaluateSLA() = %v, want %v", got, tt.want)
			}
		})
	}
}
