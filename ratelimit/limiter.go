package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"realty_backoffice/config"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most Max requests per key within any Window-long interval.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Close() error
}

// New returns a Redis-backed limiter when a Redis URL is configured and reachable,
// otherwise an in-memory one.
func New(cfg config.RateLimitConfig) Limiter {
	if cfg.RedisURL == "" {
		return NewMemory(cfg.Window, cfg.Max)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("RateLimit: invalid REDIS_URL, using in-memory limiter: %v", err)
		return NewMemory(cfg.Window, cfg.Max)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("RateLimit: redis unreachable, using in-memory limiter: %v", err)
		client.Close()
		return NewMemory(cfg.Window, cfg.Max)
	}

	log.Printf("RateLimit: using redis at %s", opts.Addr)
	return NewRedis(client, cfg.Window, cfg.Max)
}
