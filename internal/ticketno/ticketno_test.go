package ticketno

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

var wib = time.FixedZone("UTC+07:00", 7*3600)

// memCounterStore serializes increments with a mutex, mirroring the
// row-lock semantics of the database-backed store.
type memCounterStore struct {
	mu       sync.Mutex
	counters map[time.Time]int
	failWith error
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{counters: make(map[time.Time]int)}
}

func (s *memCounterStore) Increment(_ context.Context, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	s.counters[day]++
	return s.counters[day], nil
}

func TestFormat(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, wib)
	tests := []struct {
		seq  int
		want string
	}{
		{1, "TKT-250309-0001"},
		{42, "TKT-250309-0042"},
		{9999, "TKT-250309-9999"},
		{10000, "TKT-250309-10000"},
	}
	for _, tt := range tests {
		if got := Format(day, tt.seq); got != tt.want {
			t.Errorf("Format(day, %d) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func TestDayKey(t *testing.T) {
	// 23:30 UTC on March 9 is already March 10 in UTC+7.
	instant := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	got := DayKey(instant, wib)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, wib)
	if !got.Equal(want) {
		t.Errorf("DayKey = %v, want %v", got, want)
	}
}

func TestNextStartsAtOnePerDay(t *testing.T) {
	gen := NewGenerator(newMemCounterStore(), wib)
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, wib)

	number, err := gen.Next(context.Background(), now)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if number != "TKT-250309-0001" {
		t.Errorf("first number of the day = %q, want TKT-250309-0001", number)
	}
}

func TestNextDateRollover(t *testing.T) {
	gen := NewGenerator(newMemCounterStore(), wib)
	ctx := context.Background()

	beforeMidnight := time.Date(2025, 3, 9, 23, 59, 0, 0, wib)
	afterMidnight := time.Date(2025, 3, 10, 0, 1, 0, 0, wib)

	first, err := gen.Next(ctx, beforeMidnight)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	second, err := gen.Next(ctx, afterMidnight)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	if !strings.HasPrefix(first, "TKT-250309-") {
		t.Errorf("before midnight: %q", first)
	}
	if second != "TKT-250310-0001" {
		t.Errorf("new day should restart at 1, got %q", second)
	}
}

func TestNextConcurrentUniqueness(t *testing.T) {
	const n = 200
	gen := NewGenerator(newMemCounterStore(), wib)
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, wib)

	results := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := gen.Next(context.Background(), now)
			if err != nil {
				errs <- err
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("Next: %v", err)
	}

	seen := make(map[string]bool, n)
	suffixes := make([]int, 0, n)
	for number := range results {
		if seen[number] {
			t.Fatalf("duplicate number issued: %s", number)
		}
		seen[number] = true

		parts := strings.Split(number, "-")
		if len(parts) != 3 {
			t.Fatalf("malformed number: %s", number)
		}
		seq, err := strconv.Atoi(parts[2])
		if err != nil {
			t.Fatalf("non-numeric suffix in %s: %v", number, err)
		}
		suffixes = append(suffixes, seq)
	}

	sort.Ints(suffixes)
	for i, seq := range suffixes {
		if seq != i+1 {
			t.Fatalf("sequence has a gap or duplicate: position %d holds %d", i, seq)
		}
	}
}

func TestNextPropagatesStoreFailure(t *testing.T) {
	store := newMemCounterStore()
	store.failWith = errors.New("lock timeout")
	gen := NewGenerator(store, wib)

	if _, err := gen.Next(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error when the counter store fails")
	} else if !strings.Contains(err.Error(), "lock timeout") {
		t.Errorf("store error not propagated: %v", err)
	}
}

func TestFormatMatchesGeneratorOutput(t *testing.T) {
	store := newMemCounterStore()
	gen := NewGenerator(store, wib)
	now := time.Date(2025, 12, 31, 8, 0, 0, 0, wib)

	for i := 1; i <= 3; i++ {
		number, err := gen.Next(context.Background(), now)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		want := fmt.Sprintf("TKT-251231-%04d", i)
		if number != want {
			t.Errorf("issue %d = %q, want %q", i, number, want)
		}
	}
}
