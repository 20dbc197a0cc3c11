package ratelimit

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "ratelimit:"

// Redis keeps one sorted set of request timestamps per key, shared by every instance.
type Redis struct {
	client *redis.Client
	window time.Duration
	max    int
	now    func() time.Time
}

func NewRedis(client *redis.Client, window time.Duration, max int) *Redis {
	return &Redis{client: client, window: window, max: max, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	rkey := keyPrefix + key
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	windowStart := now.Add(-r.window).UnixMilli()

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, rkey, "-inf", strconv.FormatInt(windowStart, 10))
		pipe.ZAdd(ctx, rkey, &redis.Z{Score: float64(now.UnixMilli()), Member: member})
		card = pipe.ZCard(ctx, rkey)
		pipe.PExpire(ctx, rkey, r.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count := int(card.Val())
	if count <= r.max {
		return Decision{Allowed: true, Remaining: r.max - count}, nil
	}

	// Over the limit: this request does not count against the window.
	if err := r.client.ZRem(ctx, rkey, member).Err(); err != nil {
		log.Printf("RateLimit: rollback of %s failed: %v", rkey, err)
	}

	retry := r.window
	oldest, err := r.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
	if err == nil && len(oldest) == 1 {
		retry = time.UnixMilli(int64(oldest[0].Score)).Add(r.window).Sub(now)
	}
	if retry < time.Second {
		retry = time.Second
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
