package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// writeBudget caps mutations per client IP within writeWindow.
	writeBudget = 60
	writeWindow = time.Minute

	limiterSweepEvery = 5 * time.Minute
	limiterIdleCutoff = 10 * time.Minute
)

// rateLimiter counts mutating requests per client IP in a fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	stopSweep    chan struct{}
	shutdownOnce sync.Once
}

type bucket struct {
	windowStart time.Time
	lastSeen    time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		buckets:   make(map[string]*bucket),
		stopSweep: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow reports whether the IP still has write budget in the current
// window. Refused requests count towards the security metrics.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[clientIP]
	if !ok || now.Sub(b.windowStart) >= writeWindow {
		rl.buckets[clientIP] = &bucket{windowStart: now, lastSeen: now, count: 1}
		return true
	}

	b.count++
	b.lastSeen = now
	if b.count > writeBudget {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopSweep:
			return
		}
	}
}

// sweep drops buckets for IPs that have gone quiet.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-limiterIdleCutoff)
	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// stop terminates the sweep goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopSweep)
	})
}
