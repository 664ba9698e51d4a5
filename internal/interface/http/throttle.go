package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
	"github.com/yanqian/multimodal-summarizer/pkg/util"
)

const bucketIdleTTL = 5 * time.Minute

// submitThrottle hands out one token bucket per client IP. Only submits spend
// tokens; selecting files and editing the prompt stay free.
type submitThrottle struct {
	perSecond float64
	burst     float64

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

type tokenBucket struct {
	tokens  float64
	updated time.Time
}

// newSubmitThrottle returns nil when the guard is disabled.
func newSubmitThrottle(cfg config.RateLimitConfig) *submitThrottle {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return nil
	}
	return &submitThrottle{
		perSecond: float64(cfg.RequestsPerMinute) / 60,
		burst:     float64(cfg.Burst),
		buckets:   make(map[string]*tokenBucket),
	}
}

// take spends one token for key. When the bucket is empty it returns false and
// how long until the next token.
func (t *submitThrottle) take(key string, now time.Time) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) > bucketIdleTTL {
		for k, b := range t.buckets {
			if now.Sub(b.updated) > bucketIdleTTL {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: t.burst, updated: now}
		t.buckets[key] = b
	}
	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(t.burst, b.tokens+elapsed*t.perSecond)
		b.updated = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / t.perSecond * float64(time.Second))
	return false, wait
}

// admitSubmit spends one token for the caller's IP. It runs after the file
// and prompt were applied, so a refused submit still keeps the user's pick.
func (h *Handler) admitSubmit(c *gin.Context) error {
	if h.throttle == nil {
		return nil
	}
	ip := c.ClientIP()
	ok, wait := h.throttle.take(ip, util.NowUTC())
	if ok {
		return nil
	}
	h.logger.Warn("submission throttled", "ip", ip, "path", c.Request.URL.Path, "retry_after", wait)
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	return apperrors.Wrap(apperrors.CodeRateLimited, "too many submissions, slow down", nil)
}
