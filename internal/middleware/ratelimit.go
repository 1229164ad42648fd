package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter is a Redis sliding-window limiter keyed by client
type RateLimiter struct {
	redis        *redis.Client
	maxRequests  int
	window       time.Duration
	isProduction bool
	logger       logrus.FieldLogger
}

// NewRateLimiter creates a new rate limiter. A nil client disables it.
func NewRateLimiter(client *redis.Client, maxRequests int, window time.Duration, isProduction bool, logger logrus.FieldLogger) *RateLimiter {
	return &RateLimiter{
		redis:        client,
		maxRequests:  maxRequests,
		window:       window,
		isProduction: isProduction,
		logger:       logger,
	}
}

// Limit returns a middleware that rate limits requests
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := rl.allow(r.Context(), rl.identifier(r))
		if err != nil {
			// Fail open on Redis errors
			rl.logger.WithError(err).Warn("Rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":"Too many requests. Please try again later."}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// identifier returns the client id when known, else the remote address
func (rl *RateLimiter) identifier(r *http.Request) string {
	if id, ok := ClientIDFromContext(r.Context()); ok && id != uuid.Nil {
		return "client:" + id.String()
	}

	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// allow records the request and reports whether it fits in the window
func (rl *RateLimiter) allow(ctx context.Context, identifier string) (bool, error) {
	// Skip rate limiting in local/dev mode and without Redis
	if !rl.isProduction || rl.redis == nil {
		return true, nil
	}

	key := "kinocatalog:ratelimit:" + identifier
	now := time.Now()
	windowStart := now.Add(-rl.window).UnixNano()

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return countCmd.Val() < int64(rl.maxRequests), nil
}
