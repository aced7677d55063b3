package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/DianaTao/solace/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRequests = 100
	defaultWindow   = time.Minute
	pingTimeout     = 3 * time.Second
)

// Result is the outcome of one rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter enforces a per-client sliding window
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter over store using the configured limit and window
func NewLimiter(store Store, cfg config.RateLimitConfig, logger *zap.Logger) *Limiter {
	if cfg.Requests <= 0 {
		cfg.Requests = defaultRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	return &Limiter{
		store:  store,
		limit:  cfg.Requests,
		window: cfg.Window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow records a request from clientID and reports whether it is within
// the limit. The request counts against the window even when rejected.
func (l *Limiter) Allow(ctx context.Context, clientID string) (*Result, error) {
	now := l.now()
	count, err := l.store.Hit(ctx, clientID, now, l.window)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	res := &Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: l.limit - count,
		ResetAt:   now.Add(l.window),
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = l.window
		l.logger.Warn("rate limit exceeded",
			zap.String("client", clientID),
			zap.Int("requests", count),
			zap.Int("limit", l.limit))
	}
	return res, nil
}

// Limit returns the configured request limit
func (l *Limiter) Limit() int {
	return l.limit
}

// Store returns the backing store
func (l *Limiter) Store() Store {
	return l.store
}

// NewStore connects to Redis when a URL is configured and reachable and
// falls back to the in-memory store otherwise. The returned closer
// releases whatever was opened.
func NewStore(ctx context.Context, cfg config.RateLimitConfig, logger *zap.Logger) (Store, func() error) {
	noop := func() error { return nil }
	if cfg.RedisURL == "" {
		logger.Info("rate limiting with in-memory store")
		return NewMemoryStore(logger), noop
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, rate limiting with in-memory store", zap.Error(err))
		return NewMemoryStore(logger), noop
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("redis unreachable, rate limiting with in-memory store", zap.Error(err))
		return NewMemoryStore(logger), noop
	}

	logger.Info("rate limiting with redis store", zap.String("addr", opts.Addr))
	store := NewRedisStore(client)
	return store, store.Close
}
