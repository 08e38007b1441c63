package utils

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Cooldown struct {
	mu       sync.Mutex
	every    time.Duration
	burst    int
	limiters map[string]*cooldownEntry
}

type cooldownEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewCooldown(every time.Duration, burst int) *Cooldown {
	if burst <= 0 {
		burst = 1
	}
	return &Cooldown{every: every, burst: burst, limiters: make(map[string]*cooldownEntry)}
}

func (c *Cooldown) Allow(key string, now time.Time) bool {
	if c.every <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.limiters[key]
	if entry == nil {
		entry = &cooldownEntry{limiter: rate.NewLimiter(rate.Every(c.every), c.burst)}
		c.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (c *Cooldown) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	idle := c.every * time.Duration(c.burst)
	removed := 0
	for key, entry := range c.limiters {
		if now.Sub(entry.lastSeen) >= idle {
			delete(c.limiters, key)
			removed++
		}
	}
	return removed
}
