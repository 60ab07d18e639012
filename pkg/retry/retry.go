package retry

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls exponential backoff for transient failures at the I/O
// boundary. Zero values fall back to the defaults.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
	Logger    *zap.Logger
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		MaxDelay:  2 * time.Second,
		Jitter:    0.2,
	}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 50 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 2 * time.Second
	}
	return p
}

// Do runs op until it succeeds, the attempts are exhausted, or the context is
// done. The delay doubles each attempt, capped at MaxDelay, with a random
// jitter fraction applied on top.
func Do(ctx context.Context, p Policy, op func() error) error {
	p = p.normalized()

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt == p.Attempts {
			break
		}

		if p.Logger != nil {
			p.Logger.Warn("Retrying after failure",
				zap.Error(lastErr),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(delay, p.Jitter)):
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := float64(d) * fraction
	return d + time.Duration((rand.Float64()*2-1)*spread)
}
