package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/convoinsight/backend/pkg/logger"
	"github.com/convoinsight/backend/pkg/utils"
)

// Client caches shaped analytics results under keys derived from the metric
// name and window, so identical requests over an unchanged dataset skip
// recomputation. Invalidate drops everything; ingest writes call it because
// any new record can shift any window.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis result cache initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func key(metric, windowKey string) string {
	return "analytics:" + utils.CacheKey(metric, windowKey)
}

func (c *Client) Get(ctx context.Context, metric, windowKey string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key(metric, windowKey)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read result cache: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}

	logger.Debug("Result cache hit", zap.String("metric", metric))
	return true, nil
}

func (c *Client) Set(ctx context.Context, metric, windowKey string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Set(ctx, key(metric, windowKey), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write result cache: %w", err)
	}

	return nil
}

func (c *Client) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "analytics:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Debug("Analytics result cache invalidated")
	return nil
}
