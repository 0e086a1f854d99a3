package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/cache"
	"github.com/poolchaos/personalfit-api/internal/store/model"
)

const (
	maxOverviewDays = 90
	overviewTTL     = time.Minute
)

type Service interface {
	UsageOverview(ctx context.Context, days int) ([]model.UsageStat, error)
	RecentGenerations(ctx context.Context, userID string, limit int) ([]model.Generation, error)
}

type service struct {
	repo  store.Repository
	cache cache.CacheService
}

func NewService(repo store.Repository, cacheSvc cache.CacheService) Service {
	return &service{
		repo:  repo,
		cache: cacheSvc,
	}
}

func (s *service) UsageOverview(ctx context.Context, days int) ([]model.UsageStat, error) {
	if days <= 0 {
		days = 7 // default to last week
	}
	if days > maxOverviewDays {
		days = maxOverviewDays
	}

	key := cache.Key("usage", "overview", strconv.Itoa(days))

	var cached []model.UsageStat
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	stats, err := s.repo.Generations().DailyStats(ctx, days)
	if err != nil {
		return nil, err
	}

	// Stats are aggregates over a rolling window; a stale minute is fine.
	_ = s.cache.Set(ctx, key, stats, overviewTTL)

	return stats, nil
}

func (s *service) RecentGenerations(ctx context.Context, userID string, limit int) ([]model.Generation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Generations().ListRecent(ctx, userID, limit)
}
