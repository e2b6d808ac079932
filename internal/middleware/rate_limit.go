// internal/middleware/rate_limit.go
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/utils"
)

const (
	visitorIdle     = 3 * time.Minute
	rateLimitedCode = "RATE_LIMITED"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. Authenticated clients are
// keyed by user id, anonymous ones by IP.
type RateLimiter struct {
	visitors  map[string]*visitor
	mtx       sync.Mutex
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		rate:      r,
		burst:     b,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// PerMinute allows n requests per minute with a burst of n.
func PerMinute(n int) *RateLimiter {
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

// sweep drops idle visitors. Called with mtx held.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < time.Minute {
		return
	}
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(rl.visitors, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.now()
	rl.sweep(now)

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[key] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("user_id")
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		if !rl.getVisitor(key).Allow() {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(rl.rate)))))
			lang := utils.GetLangFromContext(c)
			utils.ErrorResponse(c, http.StatusTooManyRequests, rateLimitedCode, i18n.T(lang, i18n.KeyRateLimited), nil)
			return
		}

		c.Next()
	}
}

// RateLimits holds the limiters for each route class.
type RateLimits struct {
	enabled  bool
	general  *RateLimiter
	auth     *RateLimiter
	upload   *RateLimiter
	checkout *RateLimiter
}

func NewRateLimits(cfg config.RateLimitConfig) *RateLimits {
	return &RateLimits{
		enabled:  cfg.Enabled,
		general:  PerMinute(positive(cfg.GeneralPerMin, 120)),
		auth:     PerMinute(positive(cfg.AuthPerMin, 10)),
		upload:   PerMinute(positive(cfg.UploadPerMin, 20)),
		checkout: PerMinute(positive(cfg.CheckoutPerMin, 10)),
	}
}

func positive(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func (r *RateLimits) use(rl *RateLimiter) gin.HandlerFunc {
	if !r.enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}

func (r *RateLimits) General() gin.HandlerFunc  { return r.use(r.general) }
func (r *RateLimits) Auth() gin.HandlerFunc     { return r.use(r.auth) }
func (r *RateLimits) Upload() gin.HandlerFunc   { return r.use(r.upload) }
func (r *RateLimits) Checkout() gin.HandlerFunc { return r.use(r.checkout) }
