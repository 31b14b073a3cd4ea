package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
)

// RateLimitStore is the sliding-window counter backing rate limiting.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, key string, cutoff time.Time) error
	CountAttempts(ctx context.Context, key string, cutoff time.Time) (int64, error)
	RecordAttempt(ctx context.Context, key string, at time.Time, window time.Duration) error
	OldestAttempt(ctx context.Context, key string, cutoff time.Time) (time.Time, error)
}

// RateLimitRule names one limit: a keyspace, a window and a request budget.
type RateLimitRule struct {
	Name        string
	Window      time.Duration
	MaxRequests int
}

// ProblemDetails is the RFC 7807 body returned on 429.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	RetryAfter int    `json:"retry_after_seconds"`
}

// RateLimit enforces a per-client-IP sliding window. The store is fail-open:
// if Redis is unreachable the request proceeds and the error is logged.
func RateLimit(store RateLimitStore, rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()
		cutoff := now.Add(-rule.Window)
		key := rule.Name + ":" + c.ClientIP()

		if err := store.TrimWindow(ctx, key, cutoff); err != nil {
			logger.FromContext(ctx).Warn("rate limit trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := store.CountAttempts(ctx, key, cutoff)
		if err != nil {
			logger.FromContext(ctx).Warn("rate limit count failed", zap.Error(err))
			c.Next()
			return
		}

		if count >= int64(rule.MaxRequests) {
			retryAfter := int(rule.Window.Seconds())
			if oldest, err := store.OldestAttempt(ctx, key, cutoff); err == nil && !oldest.IsZero() {
				retryAfter = int(oldest.Add(rule.Window).Sub(now).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
				Type:       "about:blank",
				Title:      "Too Many Requests",
				Status:     http.StatusTooManyRequests,
				Detail:     "request rate limit exceeded, slow down",
				RetryAfter: retryAfter,
			})
			return
		}

		if err := store.RecordAttempt(ctx, key, now, rule.Window); err != nil {
			logger.FromContext(ctx).Warn("rate limit record failed", zap.Error(err))
		}

		c.Next()
	}
}
