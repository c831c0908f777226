// internal/cache/report_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javajoker/querylab/internal/config"
	"github.com/javajoker/querylab/internal/services"
)

const productReportKey = "report:products:v1"

// RedisReportCache keeps the aggregated product report as one JSON value.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

// Connect opens a client from config and checks it answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

func (c *RedisReportCache) GetProductReport(ctx context.Context) ([]services.ProductReportRow, bool, error) {
	data, err := c.client.Get(ctx, productReportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rows []services.ProductReportRow
	if err := json.Unmarshal(data, &rows); err != nil {
		// A value we cannot read is treated as a miss and dropped.
		c.client.Del(ctx, productReportKey)
		return nil, false, nil
	}
	return rows, true, nil
}

func (c *RedisReportCache) SetProductReport(ctx context.Context, rows []services.ProductReportRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productReportKey, data, c.ttl).Err()
}

func (c *RedisReportCache) InvalidateProductReport(ctx context.Context) error {
	return c.client.Del(ctx, productReportKey).Err()
}
