package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/order-console/internal/core/domain"
)

const (
	historyKeyPrefix       = "orderconsole:"
	DefaultHistoryCacheTTL = 24 * time.Hour
)

// RedisAdapter keeps the last full order snapshot per scope so a restarted
// console has something to show before its first poll lands.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = DefaultHistoryCacheTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) SaveHistory(ctx context.Context, key string, orders []domain.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return r.client.Set(ctx, historyKeyPrefix+key, payload, r.ttl).Err()
}

func (r *RedisAdapter) LoadHistory(ctx context.Context, key string) ([]domain.Order, bool, error) {
	payload, err := r.client.Get(ctx, historyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(payload, &orders); err != nil {
		return nil, false, fmt.Errorf("decode history: %w", err)
	}
	return orders, true, nil
}
