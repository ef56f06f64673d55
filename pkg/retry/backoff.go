package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff returns the delay before retry number attempt, counting from 1
type Backoff func(attempt int) time.Duration

// Exponential doubles base on every attempt up to ceiling. jitter in [0,1]
// spreads each delay by up to that fraction in either direction.
func Exponential(base, ceiling time.Duration, jitter float64) Backoff {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		delay := base
		for i := 1; i < attempt && delay < ceiling; i++ {
			delay *= 2
		}
		delay = min(delay, ceiling)

		if jitter > 0 {
			spread := float64(delay) * jitter
			delay += time.Duration(spread * (2*rand.Float64() - 1))
		}
		return max(delay, 0)
	}
}

// Constant waits d before every retry
func Constant(d time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		return d
	}
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
