package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/propstack/buyerbase/pkg/models"
)

// RateLimiter holds the rate limiters for different IPs
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.RWMutex
	r        rate.Limit // requests per second
	b        int        // burst
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	rps := float64(requestsPerMinute) / 60.0

	rl := &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		r:        rate.Limit(rps),
		b:        burst,
	}

	// Clean up old visitors every 3 minutes
	go rl.cleanupVisitors()

	return rl
}

// GetLimiter returns the rate limiter for the given IP
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.visitors[ip] = limiter
	}

	return limiter
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(3 * time.Minute)

		rl.mu.Lock()
		for ip, limiter := range rl.visitors {
			// A limiter back at full tokens has been idle long enough.
			if limiter.Tokens() >= float64(rl.b) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware creates an Echo middleware for rate limiting
func (rl *RateLimiter) RateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = c.Request().RemoteAddr
			}

			if !rl.GetLimiter(ip).Allow() {
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:   "rate_limit_exceeded",
					Message: "Too many requests. Please try again later.",
				})
			}

			return next(c)
		}
	}
}

// FixedWindowLimiter caps write operations per (client IP, operation) pair
// over a fixed window, and tells rejected clients when to retry.
type FixedWindowLimiter struct {
	entries map[string]*windowEntry
	mu      sync.Mutex
	window  time.Duration
	limit   int
	now     func() time.Time
}

type windowEntry struct {
	windowStart time.Time
	count       int
}

// NewFixedWindowLimiter creates a fixed-window limiter allowing limit
// requests per window for each (ip, operation) pair.
func NewFixedWindowLimiter(window time.Duration, limit int) *FixedWindowLimiter {
	fw := &FixedWindowLimiter{
		entries: make(map[string]*windowEntry),
		window:  window,
		limit:   limit,
		now:     time.Now,
	}

	go fw.cleanup()

	return fw
}

// Allow records one request against the pair's current window. When the
// window is exhausted it returns false and the time until the window resets.
func (fw *FixedWindowLimiter) Allow(ip, operation string) (bool, time.Duration) {
	key := ip + "|" + operation
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	entry, exists := fw.entries[key]
	if !exists || now.Sub(entry.windowStart) >= fw.window {
		fw.entries[key] = &windowEntry{windowStart: now, count: 1}
		return true, 0
	}

	if entry.count >= fw.limit {
		return false, entry.windowStart.Add(fw.window).Sub(now)
	}

	entry.count++
	return true, 0
}

func (fw *FixedWindowLimiter) cleanup() {
	for {
		time.Sleep(3 * time.Minute)

		fw.mu.Lock()
		now := fw.now()
		for key, entry := range fw.entries {
			if now.Sub(entry.windowStart) >= fw.window {
				delete(fw.entries, key)
			}
		}
		fw.mu.Unlock()
	}
}

// Middleware limits one named write operation, e.g. "create" or "import".
func (fw *FixedWindowLimiter) Middleware(operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = c.Request().RemoteAddr
			}

			allowed, retryAfter := fw.Allow(ip, operation)
			if !allowed {
				seconds := int(retryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:   "rate_limit_exceeded",
					Message: fmt.Sprintf("Too many %s requests. Try again in %d seconds.", operation, seconds),
				})
			}

			return next(c)
		}
	}
}
