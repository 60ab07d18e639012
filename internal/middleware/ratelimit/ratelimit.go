package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxRequestsPerMinute int
	Logger               *zap.Logger
}

// Limiter enforces a per-client sliding one-minute window, keyed by the
// X-User-ID header when present, otherwise by IP.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	logger  *zap.Logger
	done    chan struct{}
}

func New(cfg Config) *Limiter {
	if cfg.MaxRequestsPerMinute <= 0 {
		cfg.MaxRequestsPerMinute = 120
	}

	l := &Limiter{
		windows: make(map[string][]time.Time),
		max:     cfg.MaxRequestsPerMinute,
		logger:  cfg.Logger,
		done:    make(chan struct{}),
	}

	go l.evictLoop()

	return l
}

func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-User-ID")
		if key == "" {
			key = c.IP()
		}

		if !l.allow(key, time.Now()) {
			if l.logger != nil {
				l.logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.String("path", c.Path()),
				)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return c.Next()
	}
}

func (l *Limiter) allow(key string, now time.Time) bool {
	cutoff := now.Add(-time.Minute)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[key]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.windows[key] = kept
		return false
	}

	l.windows[key] = append(kept, now)
	return true
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			cutoff := now.Add(-time.Minute)
			l.mu.Lock()
			for key, window := range l.windows {
				if len(window) == 0 || !window[len(window)-1].After(cutoff) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *Limiter) Stop() {
	close(l.done)
}
