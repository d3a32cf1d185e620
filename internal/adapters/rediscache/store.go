// Package rediscache caches the dashboard summary in Redis so that kiosk
// polling does not recompute the aggregate on every request.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/dashcache"
)

const summaryKey = "dashboard:summary"

// Store implements dashcache.Store on a Redis client.
type Store struct {
	rdb *redis.Client
}

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New builds a Store with its own Redis client.
func New(cfg Config) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

var _ dashcache.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context) (domain.DashboardSummary, bool, error) {
	val, err := s.rdb.Get(ctx, summaryKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DashboardSummary{}, false, nil
		}
		return domain.DashboardSummary{}, false, fmt.Errorf("get summary from redis: %w", err)
	}

	var sum domain.DashboardSummary
	if err := json.Unmarshal([]byte(val), &sum); err != nil {
		return domain.DashboardSummary{}, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return sum, true, nil
}

func (s *Store) Put(ctx context.Context, sum domain.DashboardSummary, ttl time.Duration) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := s.rdb.Set(ctx, summaryKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store summary in redis: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
