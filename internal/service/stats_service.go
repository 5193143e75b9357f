package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/ticketd/internal/domain"
	"github.com/helpdesk-kit/ticketd/internal/persistence"
	"github.com/helpdesk-kit/ticketd/internal/repository"
	"github.com/helpdesk-kit/ticketd/internal/ticketno"
)

const statsCacheKey = "dashboard:stats"

// DashboardStats aggregates ticket counts for the admin dashboard.
type DashboardStats struct {
	TotalTickets      int64 `json:"total_tickets"`
	TodayTickets      int64 `json:"today_tickets"`
	InProgressTickets int64 `json:"in_progress_tickets"`
	ResolvedTickets   int64 `json:"resolved_tickets"`
	OverdueTickets    int64 `json:"overdue_tickets"`
}

// StatsService computes dashboard aggregates, caching results in Redis for
// a short TTL.
type StatsService struct {
	stats    repository.StatsRepository
	cache    *persistence.Redis
	cacheTTL time.Duration
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(stats repository.StatsRepository, cache *persistence.Redis, cacheTTL time.Duration, loc *time.Location, logger *zap.Logger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		stats:    stats,
		cache:    cache,
		cacheTTL: cacheTTL,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Dashboard returns the headline ticket counts. Overdue means a
// non-terminal status with a resolution deadline behind now; standing is
// derived at read time, never persisted.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	now := s.now().In(s.loc)
	result := &DashboardStats{}

	var err error
	if result.TotalTickets, err = s.stats.CountAll(ctx); err != nil {
		return nil, err
	}
	if result.TodayTickets, err = s.stats.CountCreatedSince(ctx, ticketno.DayKey(now, s.loc)); err != nil {
		return nil, err
	}
	if result.InProgressTickets, err = s.stats.CountByStatus(ctx, domain.TicketStatusInProgress); err != nil {
		return nil, err
	}
	if result.ResolvedTickets, err = s.stats.CountByStatus(ctx, domain.TicketStatusResolved); err != nil {
		return nil, err
	}
	if result.OverdueTickets, err = s.stats.CountOverdue(ctx, now); err != nil {
		return nil, err
	}

	s.toCache(ctx, result)
	return result, nil
}

// OpenByPriority returns counts of non-terminal tickets per priority.
func (s *StatsService) OpenByPriority(ctx context.Context) (map[domain.TicketPriority]int64, error) {
	return s.stats.CountOpenByPriority(ctx)
}

func (s *StatsService) fromCache(ctx context.Context) *DashboardStats {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, stats *DashboardStats) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, statsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard stats cache write failed", zap.Error(err))
	}
}
