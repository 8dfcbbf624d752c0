package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gidimart-be/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rate limit tiers. Checkout and payment endpoints get the strict tier;
// everything else gets the general tier.
const (
	limitStrict = rate.Limit(2)
	burstStrict = 5

	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newLimiterPool() *limiterPool {
	p := &limiterPool{visitors: make(map[string]*visitor)}
	go p.cleanup()
	return p
}

func (p *limiterPool) get(key string, r rate.Limit, b int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, exists := p.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		p.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanup evicts idle entries so the map cannot grow without bound.
func (p *limiterPool) cleanup() {
	for {
		time.Sleep(time.Minute)

		p.mu.Lock()
		for key, v := range p.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(p.visitors, key)
			}
		}
		p.mu.Unlock()
	}
}

var pool = newLimiterPool()

// RateLimit applies the named tier, keyed by user id when authenticated and
// by client IP otherwise.
func RateLimit(tier string) gin.HandlerFunc {
	limit, burst := limitGeneral, burstGeneral
	if tier == "strict" {
		limit, burst = limitStrict, burstStrict
	}

	return func(c *gin.Context) {
		var identity string
		if userID, ok := utils.GetUserIDFromContext(c.Request.Context()); ok {
			identity = fmt.Sprintf("user:%d", userID)
		} else {
			identity = "ip:" + c.ClientIP()
		}

		// Same user keeps separate quotas for strict vs general actions.
		key := fmt.Sprintf("%s:%s", identity, tier)

		if !pool.get(key, limit, burst).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": http.StatusText(http.StatusTooManyRequests),
			})
			return
		}

		c.Next()
	}
}
