package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// StatusCache кэш отчётов о состоянии ссылок
type StatusCache interface {
	Get(ctx context.Context, alias string) (*models.LinkReport, error)
	Set(ctx context.Context, alias string, report *models.LinkReport, ttl time.Duration) error
}

type statusCache struct {
	redis *RedisDB
}

func NewStatusCache(redis *RedisDB) StatusCache {
	return &statusCache{redis: redis}
}

func (r *statusCache) Get(ctx context.Context, alias string) (*models.LinkReport, error) {
	data, err := r.redis.Client.Get(ctx, r.key(alias)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var report models.LinkReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link report: %w", err)
	}

	return &report, nil
}

func (r *statusCache) Set(ctx context.Context, alias string, report *models.LinkReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal link report: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(alias), data, ttl).Err()
}

func (r *statusCache) key(alias string) string {
	return "status:" + alias
}
