package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisExhaustion shares exhaustion state between worker processes through
// Redis. Failures degrade to "not exhausted": the worst case is one extra
// failed call against a rate-limited model.
type RedisExhaustion struct {
	client    redis.UniversalClient
	keyPrefix string
	// defaultTTL bounds entries marked without an explicit cooldown so a
	// crashed worker cannot poison the shared set forever.
	defaultTTL time.Duration
	logger     *slog.Logger
}

// RedisExhaustionOption configures RedisExhaustion.
type RedisExhaustionOption func(*RedisExhaustion)

// WithKeyPrefix sets the Redis key prefix (default "llmroute:exhausted").
func WithKeyPrefix(prefix string) RedisExhaustionOption {
	return func(r *RedisExhaustion) { r.keyPrefix = prefix }
}

// WithDefaultTTL sets the TTL used when Mark is called without a cooldown
// (default 24h).
func WithDefaultTTL(ttl time.Duration) RedisExhaustionOption {
	return func(r *RedisExhaustion) { r.defaultTTL = ttl }
}

// WithExhaustionLogger sets the logger.
func WithExhaustionLogger(logger *slog.Logger) RedisExhaustionOption {
	return func(r *RedisExhaustion) { r.logger = logger }
}

// NewRedisExhaustion creates a Redis-backed exhaustion set.
func NewRedisExhaustion(client redis.UniversalClient, opts ...RedisExhaustionOption) *RedisExhaustion {
	r := &RedisExhaustion{
		client:     client,
		keyPrefix:  "llmroute:exhausted",
		defaultTTL: 24 * time.Hour,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisExhaustion) key(model string) string {
	return r.keyPrefix + ":" + model
}

// Mark records the model as exhausted.
func (r *RedisExhaustion) Mark(model string, cooldown time.Duration) {
	ttl := cooldown
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Set(ctx, r.key(model), "1", ttl).Err(); err != nil {
		r.logger.Warn("failed to mark model exhausted in redis",
			"model", model, "error", err)
	}
}

// IsExhausted reports whether the model is marked and not yet recovered.
func (r *RedisExhaustion) IsExhausted(model string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := r.client.Exists(ctx, r.key(model)).Result()
	if err != nil {
		r.logger.Warn("redis exhaustion lookup failed", "model", model, "error", err)
		return false
	}
	return n > 0
}

// Exhausted returns the currently marked identifiers.
func (r *RedisExhaustion) Exhausted() []string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out []string
	iter := r.client.Scan(ctx, 0, r.keyPrefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(r.keyPrefix)+1:])
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("redis exhaustion scan failed", "error", err)
	}
	return out
}
