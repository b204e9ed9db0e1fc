/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Thin go-redis wrapper: connection + ping, plus
             pub/sub helpers used by internal/cache to broadcast
             cache-flush events across server processes.
Root Cause:  Sprint task T230 — extend the Redis client beyond a
             ping check so the cache layer can invalidate peers.
Context:     Redis is optional; a nil/unreachable client degrades
             to single-process cache invalidation only.
Suitability: L2.
──────────────────────────────────────────────────────────────
*/

package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sgpropanalytics/condocore/config"
)

// Client wraps a go-redis client for the handful of operations this
// service needs: liveness checks and cache-invalidation pub/sub.
type Client struct {
	c *redis.Client
}

// New creates a Redis client from the provided config. Returns an error
// if the Redis URL cannot be parsed.
func New(cfg *config.Config) (*Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	r := redis.NewClient(opt)
	return &Client{c: r}, nil
}

// Ping verifies connectivity.
func (r *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.c.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Client) Close() error {
	return r.c.Close()
}

// Publish broadcasts payload on channel. Used by the cache layer to
// tell peer processes to drop an invalidated entry or namespace.
func (r *Client) Publish(ctx context.Context, channel, payload string) error {
	return r.c.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a go-redis PubSub handle for channel. Callers read
// from Channel() until the context is cancelled, then must Close it.
func (r *Client) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return r.c.Subscribe(ctx, channel)
}
