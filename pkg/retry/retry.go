package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/logger"
)

// Policy says how often and how patiently an operation is retried
type Policy struct {
	// Attempts caps the number of tries; 0 retries until ctx is done
	Attempts int
	Backoff  Backoff
	// Retryable defaults to the package Retryable
	Retryable func(error) bool
	Log       logger.Logger
}

// LoginPolicy retries a login up to attempts times, starting at 2s
func LoginPolicy(attempts int, log logger.Logger) Policy {
	return Policy{
		Attempts: attempts,
		Backoff:  Exponential(2*time.Second, 30*time.Second, 0.1),
		Log:      log,
	}
}

// Retryable accepts network and server failures only. Throttling belongs
// to the rate controller and is never retried here.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return e.Kind == errs.KindTransient && errs.IsRetryableStatusCode(e.Code)
	}
	return true
}

// Do runs op until it succeeds, fails with a non-retryable error, runs out
// of attempts or ctx is done.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := DoWithResult(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = Retryable
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Constant(time.Second)
	}
	log := p.Log
	if log == nil {
		log = logger.NewNopLogger()
	}

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("succeeded after retry", map[string]interface{}{"attempt": attempt})
			}
			return result, nil
		}
		if !retryable(err) {
			return result, err
		}
		if p.Attempts > 0 && attempt >= p.Attempts {
			log.WithError(err).ErrorWithFields("giving up", map[string]interface{}{"attempts": attempt})
			return result, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		delay := backoff(attempt)
		log.WithError(err).WarnWithFields("retrying", map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
		})
		if werr := Wait(ctx, delay); werr != nil {
			return result, fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}
