package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/ticketd/internal/domain"
	"github.com/helpdesk-kit/ticketd/internal/repository"
	"github.com/helpdesk-kit/ticketd/internal/ticketno"
	apperrors "github.com/helpdesk-kit/ticketd/pkg/util"
)

var wib = time.FixedZone("UTC+07:00", 7*3600)

// memTicketRepo mirrors the transactional semantics of the postgres
// repository: guarded mutations apply to a copy and only land on success.
type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.Number] = *ticket
	return nil
}

func (r *memTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[number]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		result = append(result, ticket)
	}
	return result, nil
}

func (r *memTicketRepo) UpdateGuarded(_ context.Context, number string, apply func(*domain.Ticket) error) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[number]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := stored
	if err := apply(&ticket); err != nil {
		return nil, err
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[number] = ticket
	return &ticket, nil
}

func (r *memTicketRepo) DeleteGuarded(_ context.Context, number string, guard func(*domain.Ticket) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[number]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := guard(&stored); err != nil {
		return err
	}
	delete(r.tickets, number)
	return nil
}

func (r *memTicketRepo) StampFirstResponse(_ context.Context, number string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[number]
	if !ok {
		return pgx.ErrNoRows
	}
	if ticket.FirstResponseAt == nil {
		stamp := at
		ticket.FirstResponseAt = &stamp
		ticket.UpdatedAt = time.Now()
		r.tickets[number] = ticket
	}
	return nil
}

type memPolicyRepo struct {
	policies map[domain.TicketPriority]domain.SLAPolicy
}

func newMemPolicyRepo() *memPolicyRepo {
	return &memPolicyRepo{policies: map[domain.TicketPriority]domain.SLAPolicy{
		domain.TicketPriorityHigh: {
			Priority:              domain.TicketPriorityHigh,
			Name:                  "High",
			ResponseTimeMinutes:   30,
			ResolutionTimeMinutes: 480,
		},
		domain.TicketPriorityLow: {
			Priority:              domain.TicketPriorityLow,
			Name:                  "Low",
			ResponseTimeMinutes:   120,
			ResolutionTimeMinutes: 2880,
		},
	}}
}

func (r *memPolicyRepo) GetByPriority(_ context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	policy, ok := r.policies[priority]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &policy, nil
}

func (r *memPolicyRepo) List(_ context.Context) ([]domain.SLAPolicy, error) {
	result := make([]domain.SLAPolicy, 0, len(r.policies))
	for _, policy := range r.policies {
		result = append(result, policy)
	}
	return result, nil
}

func (r *memPolicyRepo) Update(_ context.Context, policy *domain.SLAPolicy) error {
	if _, ok := r.policies[policy.Priority]; !ok {
		return pgx.ErrNoRows
	}
	r.policies[policy.Priority] = *policy
	return nil
}

type memCounterStore struct {
	mu       sync.Mutex
	counters map[time.Time]int
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{counters: make(map[time.Time]int)}
}

func (s *memCounterStore) Increment(_ context.Context, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[day]++
	return s.counters[day], nil
}

func (s *memCounterStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, v := range s.counters {
		sum += v
	}
	return sum
}

type fixture struct {
	service  *TicketService
	tickets  *memTicketRepo
	counters *memCounterStore
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tickets := newMemTicketRepo()
	counters := newMemCounterStore()
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, wib)
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		PolicyRepo: newMemPolicyRepo(),
		Numbers:    ticketno.NewGenerator(counters, wib),
		Location:   wib,
		Now:        func() time.Time { return now },
	})
	return &fixture{service: svc, tickets: tickets, counters: counters, now: now}
}

func reporter() *domain.User {
	return &domain.User{ID: "user-1", Name: "Reporter", Role: domain.UserRoleUser}
}

func admin() *domain.User {
	return &domain.User{ID: "admin-1", Name: "Admin", Role: domain.UserRoleAdmin}
}

func domainErrCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return de.Code
}

func TestCreateTicketComputesDeadlinesFromPolicy(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.service.CreateTicket(context.Background(), reporter(), TicketCreateInput{
		Subject:     "VPN down",
		Description: "cannot connect since 09:00",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if ticket.Number != "TKT-250309-0001" {
		t.Errorf("number = %q, want TKT-250309-0001", ticket.Number)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", ticket.Status)
	}
	if want := f.now.Add(30 * time.Minute); !ticket.ResponseDeadline.Equal(want) {
		t.Errorf("response deadline = %v, want %v", ticket.ResponseDeadline, want)
	}
	if want := f.now.Add(480 * time.Minute); !ticket.ResolutionDeadline.Equal(want) {
		t.Errorf("resolution deadline = %v, want %v", ticket.ResolutionDeadline, want)
	}
	if ticket.ResolvedAt != nil || ticket.FirstResponseAt != nil {
		t.Error("fresh ticket must have no completion stamps")
	}
}

func TestCreateTicketSequencesNumbers(t *testing.T) {
	f := newFixture(t)
	want := []string{"TKT-250309-0001", "TKT-250309-0002", "TKT-250309-0003"}
	for _, expected := range want {
		ticket, err := f.service.CreateTicket(context.Background(), reporter(), TicketCreateInput{
			Subject:     "printer jam",
			Description: "3rd floor",
			Priority:    domain.TicketPriorityLow,
		})
		if err != nil {
			t.Fatalf("CreateTicket: %v", err)
		}
		if ticket.Number != expected {
			t.Errorf("number = %q, want %q", ticket.Number, expected)
		}
	}
}

func TestCreateTicketUnknownPriorityLeavesNoTrace(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateTicket(context.Background(), reporter(), TicketCreateInput{
		Subject:     "broken keyboard",
		Description: "keys missing",
		Priority:    domain.TicketPriority("CRITICAL"),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", code)
	}
	if f.counters.total() != 0 {
		t.Error("counter must not be incremented when creation fails validation")
	}
	if len(f.tickets.tickets) != 0 {
		t.Error("no ticket row may exist after failed creation")
	}
}

func TestCreateTicketMissingPolicyLeavesNoTrace(t *testing.T) {
	f := newFixture(t)

	// MEDIUM is a valid enum value but the fixture's policy table has no
	// row for it.
	_, err := f.service.CreateTicket(context.Background(), reporter(), TicketCreateInput{
		Subject:     "slow laptop",
		Description: "takes 10 minutes to boot",
		Priority:    domain.TicketPriorityMedium,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", code)
	}
	if f.counters.total() != 0 {
		t.Error("counter must not be incremented when the policy lookup fails")
	}
}

func TestUpdateTicketStampsResolvedAtOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "monitor flicker",
		Description: "intermittent",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	resolved := domain.TicketStatusResolved
	updated, err := f.service.UpdateTicket(ctx, admin(), ticket.Number, TicketUpdateInput{Status: &resolved})
	if err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if updated.ResolvedAt == nil {
		t.Fatal("resolved_at must be stamped on Open -> Resolved")
	}
	firstStamp := *updated.ResolvedAt

	closed := domain.TicketStatusClosed
	updated, err = f.service.UpdateTicket(ctx, admin(), ticket.Number, TicketUpdateInput{Status: &closed})
	if err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(firstStamp) {
		t.Errorf("Resolved -> Closed must keep resolved_at %v, got %v", firstStamp, updated.ResolvedAt)
	}
}

func TestClosedTicketIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "mouse broken",
		Description: "left click dead",
		Priority:    domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	closed := domain.TicketStatusClosed
	if _, err := f.service.UpdateTicket(ctx, admin(), ticket.Number, TicketUpdateInput{Status: &closed}); err != nil {
		t.Fatalf("closing: %v", err)
	}
	frozen, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}

	newSubject := "changed"
	reopen := domain.TicketStatusOpen
	assignee := "admin-1"
	attempts := []TicketUpdateInput{
		{Status: &reopen},
		{Subject: &newSubject},
		{AssigneeID: &assignee},
	}
	for i, input := range attempts {
		_, err := f.service.UpdateTicket(ctx, admin(), ticket.Number, input)
		if err == nil {
			t.Fatalf("attempt %d: update on closed ticket must fail", i)
		}
		if code := domainErrCode(t, err); code != "FORBIDDEN" {
			t.Errorf("attempt %d: code = %s, want FORBIDDEN", i, code)
		}
	}

	if err := f.service.DeleteTicket(ctx, admin(), ticket.Number); err == nil {
		t.Fatal("delete on closed ticket must fail")
	} else if code := domainErrCode(t, err); code != "FORBIDDEN" {
		t.Errorf("delete code = %s, want FORBIDDEN", code)
	}

	after, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if after.Subject != frozen.Subject || after.Status != frozen.Status || after.AssigneeID != nil {
		t.Error("closed ticket fields changed despite rejected updates")
	}
}

func TestUpdateTicketAtomicRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "projector",
		Description: "no signal",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	// A combined update carrying both a bad status and a field edit must
	// leave everything untouched.
	bad := domain.TicketStatus("LIMBO")
	newSubject := "projector replaced"
	_, err = f.service.UpdateTicket(ctx, admin(), ticket.Number, TicketUpdateInput{
		Status:  &bad,
		Subject: &newSubject,
	})
	if err == nil {
		t.Fatal("expected rejection")
	}

	current, err := f.service.GetTicket(ctx, ticket.Number)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if current.Subject != "projector" {
		t.Errorf("subject partially applied: %q", current.Subject)
	}
}

func TestUpdateTicketPriorityKeepsDeadlines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "email bounce",
		Description: "outbound mail rejected",
		Priority:    domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	high := domain.TicketPriorityHigh
	updated, err := f.service.UpdateTicket(ctx, admin(), ticket.Number, TicketUpdateInput{Priority: &high})
	if err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if updated.Priority != domain.TicketPriorityHigh {
		t.Errorf("priority = %s, want HIGH", updated.Priority)
	}
	if !updated.ResponseDeadline.Equal(ticket.ResponseDeadline) || !updated.ResolutionDeadline.Equal(ticket.ResolutionDeadline) {
		t.Error("deadlines must not be re-baselined when priority changes")
	}
}

func TestUpdateTicketNotFound(t *testing.T) {
	f := newFixture(t)
	status := domain.TicketStatusInProgress
	_, err := f.service.UpdateTicket(context.Background(), admin(), "TKT-000000-0000", TicketUpdateInput{Status: &status})
	if err == nil {
		t.Fatal("expected not found")
	}
	if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", code)
	}
}

func TestUpdateTicketClearsAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assignee := "admin-1"
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "wifi drops",
		Description: "meeting room B",
		Priority:    domain.TicketPriorityHigh,
		AssigneeID:  &assignee,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	clear := ""
	updated, err := f.service.UpdateTicket(ctx, admin(), ticket.Number, TicketUpdateInput{AssigneeID: &clear})
	if err != nil {
		t.Fatalf("UpdateTicket: %v", err)
	}
	if updated.AssigneeID != nil {
		t.Errorf("assignee should be cleared, got %v", *updated.AssigneeID)
	}
}

func TestDeleteOpenTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, err := f.service.CreateTicket(ctx, reporter(), TicketCreateInput{
		Subject:     "duplicate request",
		Description: "filed twice",
		Priority:    domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	if err := f.service.DeleteTicket(ctx, admin(), ticket.Number); err != nil {
		t.Fatalf("DeleteTicket: %v", err)
	}
	if _, err := f.service.GetTicket(ctx, ticket.Number); err == nil {
		t.Fatal("deleted ticket still readable")
	} else if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", code)
	}
}
