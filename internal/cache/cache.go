// Package cache indexes provider message ids to send log rows in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks

const keyPrefix = "sms:message:"

var ErrNotFound = errors.New("message id not cached")

// MessageIndex maps provider message ids to send log ids.
type MessageIndex interface {
	Remember(ctx context.Context, providerMessageID string, logID int64) error
	Lookup(ctx context.Context, providerMessageID string) (int64, error)
	Ping(ctx context.Context) error
}

type redisMessageIndex struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMessageIndex stores entries in client for ttl.
func NewRedisMessageIndex(client *redis.Client, ttl time.Duration) MessageIndex {
	return &redisMessageIndex{
		client: client,
		ttl:    ttl,
	}
}

func (c *redisMessageIndex) Remember(ctx context.Context, providerMessageID string, logID int64) error {
	if err := c.client.Set(ctx, keyPrefix+providerMessageID, logID, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache message id: %w", err)
	}
	return nil
}

func (c *redisMessageIndex) Lookup(ctx context.Context, providerMessageID string) (int64, error) {
	value, err := c.client.Get(ctx, keyPrefix+providerMessageID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cached message id: %w", err)
	}

	logID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cached log id %q: %w", value, err)
	}
	return logID, nil
}

func (c *redisMessageIndex) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
