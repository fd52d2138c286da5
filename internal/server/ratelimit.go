package server

import (
	"sync"
	"time"

	"github.com/spyice/room-generator/internal/config"
)

// RegenRateLimiter caps how often one IP may trigger a regeneration.
type RegenRateLimiter struct {
	mu              sync.Mutex
	requests        map[string]*requestInfo
	maxRequests     int
	window          time.Duration
	lockout         time.Duration
	maxLockout      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

type requestInfo struct {
	count        int
	windowStart  time.Time
	lockedUntil  time.Time
	lockoutCount int // Consecutive lockouts, for exponential backoff
}

// NewRegenRateLimiter creates a limiter from cfg and starts its cleanup loop.
func NewRegenRateLimiter(cfg config.RateLimitConfig) *RegenRateLimiter {
	rl := &RegenRateLimiter{
		requests:        make(map[string]*requestInfo),
		maxRequests:     cfg.MaxRegenerations,
		window:          time.Duration(cfg.WindowSeconds) * time.Second,
		lockout:         time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:      time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	if rl.maxRequests == 0 {
		rl.maxRequests = 10
	}
	if rl.window == 0 {
		rl.window = time.Minute
	}
	if rl.lockout == 0 {
		rl.lockout = 30 * time.Second
	}
	if rl.maxLockout == 0 {
		rl.maxLockout = 5 * time.Minute
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine.
func (rl *RegenRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Allow records a regenerate request from ip. It returns false and the
// remaining wait while the IP is locked out.
func (rl *RegenRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	info, exists := rl.requests[ip]
	if !exists {
		info = &requestInfo{windowStart: now}
		rl.requests[ip] = info
	}

	if now.Before(info.lockedUntil) {
		return false, info.lockedUntil.Sub(now)
	}

	if now.Sub(info.windowStart) >= rl.window {
		// A full quiet window resets the backoff as well.
		if now.Sub(info.windowStart) >= 2*rl.window {
			info.lockoutCount = 0
		}
		info.count = 0
		info.windowStart = now
	}

	info.count++
	if info.count <= rl.maxRequests {
		return true, 0
	}

	info.lockoutCount++
	duration := rl.lockout
	for i := 1; i < info.lockoutCount; i++ {
		// Check before multiplication to prevent overflow
		if duration >= rl.maxLockout/2 {
			duration = rl.maxLockout
			break
		}
		duration *= 2
	}
	if duration > rl.maxLockout {
		duration = rl.maxLockout
	}

	info.lockedUntil = now.Add(duration)
	info.count = 0
	info.windowStart = info.lockedUntil
	return false, duration
}

// Requests returns how many requests ip has made in its current window.
func (rl *RegenRateLimiter) Requests(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.requests[ip]; exists {
		return info.count
	}
	return 0
}

func (rl *RegenRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops IPs that are not locked and have been quiet for two windows.
func (rl *RegenRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, info := range rl.requests {
		if now.After(info.lockedUntil) && now.Sub(info.windowStart) >= 2*rl.window {
			delete(rl.requests, ip)
		}
	}
}
