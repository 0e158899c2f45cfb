package services

import (
	"context"

	"coindrop/internal/datastore/redis_store"
	"coindrop/internal/models"
	"coindrop/internal/pkg/caching"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// ServiceLeaderboard keeps redis sorted sets of top earners, one
// all-time and one cleared weekly by cron.
type ServiceLeaderboard struct {
	container *do.Injector
	redisDB   redis.UniversalClient
	cache     caching.Cache
}

func NewServiceLeaderboard(container *do.Injector) (*ServiceLeaderboard, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLeaderboard{container, redisDB, cache}, nil
}

func (service *ServiceLeaderboard) IncrEarnerScore(ctx context.Context, accountID int64, amount int64) error {
	if err := redis_store.IncrEarnerScore(ctx, service.redisDB, LEADERBOARD_EARNERS, accountID, amount); err != nil {
		return err
	}

	return redis_store.IncrEarnerScore(ctx, service.redisDB, LEADERBOARD_EARNERS_WEEKLY, accountID, amount)
}

func (service *ServiceLeaderboard) GetEarnerLeaderboard(ctx context.Context, name string, limit int) ([]*models.LeaderboardItem, error) {
	if limit <= 0 {
		limit = EARNER_LEADERBOARD_DEFAULT_LIMIT
	}

	callback := func() ([]*models.LeaderboardItem, error) {
		return redis_store.GetEarnerLeaderboard(ctx, service.redisDB, name, limit)
	}

	return caching.UseCache(ctx, service.cache, DBKeyLeaderboard(name, limit), CACHE_TTL_5_SECONDS, callback)
}

func (service *ServiceLeaderboard) ClearWeeklyLeaderboard(ctx context.Context) error {
	return redis_store.ClearEarnerLeaderboard(ctx, service.redisDB, LEADERBOARD_EARNERS_WEEKLY)
}
