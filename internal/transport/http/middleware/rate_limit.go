package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/logger"
)

const loginThrottleScope = "login"

// LoginThrottleOptions configures the per-client login limit.
type LoginThrottleOptions struct {
	Limit  int
	Window time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// LoginThrottle limits login attempts per client IP with a sliding window.
// Store failures let the request through.
type LoginThrottle struct {
	store  port.RateLimitStore
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewLoginThrottle(store port.RateLimitStore, opts LoginThrottleOptions) *LoginThrottle {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &LoginThrottle{
		store:  store,
		limit:  opts.Limit,
		window: opts.Window,
		logger: log,
		now:    now,
	}
}

// Handler returns a Gin middleware enforcing the limit.
func (t *LoginThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t == nil || t.store == nil || t.limit <= 0 || t.window <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := loginThrottleScope + ":" + ip
		ctx := c.Request.Context()
		now := t.now()

		if err := t.store.TrimWindow(ctx, key, t.window, now); err != nil {
			t.failOpen(c, ip, err)
			return
		}
		count, err := t.store.CountAttempts(ctx, key, t.window, now)
		if err != nil {
			t.failOpen(c, ip, err)
			return
		}
		oldest, found, err := t.store.OldestAttempt(ctx, key, t.window, now)
		if err != nil {
			t.failOpen(c, ip, err)
			return
		}

		reset := now.Add(t.window)
		if found {
			reset = oldest.Add(t.window)
		}

		if count >= t.limit {
			retry := int(math.Ceil(reset.Sub(now).Seconds()))
			if retry < 0 {
				retry = 0
			}
			t.setHeaders(c, 0, reset)
			c.Header("Retry-After", strconv.Itoa(retry))
			logger.WithContext(ctx).Warn("login throttled", zap.String("client_ip", logger.MaskIP(ip)), zap.Int("attempts", count))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, newErrorResponse(c, "too many login attempts"))
			return
		}

		if err := t.store.RecordAttempt(ctx, key, now); err != nil {
			t.failOpen(c, ip, err)
			return
		}

		t.setHeaders(c, t.limit-count-1, reset)
		c.Next()
	}
}

func (t *LoginThrottle) setHeaders(c *gin.Context, remaining int, reset time.Time) {
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(t.limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

func (t *LoginThrottle) failOpen(c *gin.Context, ip string, err error) {
	t.logger.Warn("login throttle check failed", zap.String("client_ip", logger.MaskIP(ip)), zap.Error(err))
	c.Next()
}
