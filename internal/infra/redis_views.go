package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctxPing).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisViewCounter keeps one hash per channel: field = stored video key,
// value = views. HINCRBY creates missing hashes and fields at zero.
type RedisViewCounter struct {
	client *redis.Client
}

var (
	_ ports.ViewCounter = (*RedisViewCounter)(nil)
	_ ports.Pinger      = (*RedisViewCounter)(nil)
)

func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client}
}

func viewsHashKey(ck keys.ChannelKey) string {
	return "video_views:" + ck.Stored()
}

func (c *RedisViewCounter) GetViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) (int64, error) {
	n, err := c.client.HGet(ctx, viewsHashKey(ck), vk.Stored()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get views: %w", err)
	}
	return n, nil
}

func (c *RedisViewCounter) IncrementViews(ctx context.Context, ck keys.ChannelKey, vk keys.VideoKey) error {
	if err := c.client.HIncrBy(ctx, viewsHashKey(ck), vk.Stored(), 1).Err(); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (c *RedisViewCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisViewCounter) Close() error {
	return c.client.Close()
}
