package ratelimit

import (
	"context"
	"sync"
	"time"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/logger"
	"igcrawler/pkg/retry"
)

// Rotator abandons the current session in favour of the next one.
// It returns a CredentialsExhausted error when no session is left.
type Rotator interface {
	Rotate() error
}

// Config holds the controller's pacing parameters
type Config struct {
	Window           time.Duration
	Budget           int
	Margin           time.Duration
	TotalBlockBudget time.Duration
	// Account labels log lines
	Account string

	// Now and Sleep default to time.Now and retry.Wait
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Stats is a snapshot of a controller's activity
type Stats struct {
	Requests  int
	Blocks    int
	Delayed   time.Duration
	BlockWait time.Duration
	Rotations int
}

// Controller paces the requests of exactly one session
type Controller struct {
	cfg     Config
	window  *Window
	ledger  *BlockLedger
	rotator Rotator
	log     logger.Logger

	mu    sync.Mutex
	stats Stats
}

// NewController binds a window, a ledger and a rotator. A nil ledger
// gives the controller a private one.
func NewController(cfg Config, ledger *BlockLedger, rotator Rotator, log logger.Logger) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = retry.Wait
	}
	if ledger == nil {
		ledger = NewBlockLedger()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Controller{
		cfg:     cfg,
		window:  NewWindow(cfg.Budget, cfg.Window),
		ledger:  ledger,
		rotator: rotator,
		log:     log.WithField("account", cfg.Account),
	}
}

// Do issues op, waiting first if the window is full. A Blocked result is
// absorbed: the controller sleeps, charges the ledger and retries op on
// the same session. Once the ledger reaches its budget the controller
// rotates once and returns a Rotated error. Every other outcome of op is
// returned unchanged.
func (c *Controller) Do(ctx context.Context, op func(ctx context.Context) error) error {
	for {
		if delay := c.window.Delay(c.cfg.Now()); delay > 0 {
			c.log.DebugWithFields("window full, delaying request", map[string]interface{}{
				"delay": delay,
			})
			if err := c.cfg.Sleep(ctx, delay); err != nil {
				return err
			}
			c.addStats(func(s *Stats) { s.Delayed += delay })
		}

		c.window.Record(c.cfg.Now())
		c.addStats(func(s *Stats) { s.Requests++ })

		err := op(ctx)
		if !errs.IsBlocked(err) {
			return err
		}

		wait := c.window.BlockWait(c.cfg.Now(), c.cfg.Margin)
		c.addStats(func(s *Stats) {
			s.Blocks++
			s.BlockWait += wait
		})

		if err := c.cfg.Sleep(ctx, wait); err != nil {
			return err
		}

		total, exceeded := c.ledger.Charge(wait, c.cfg.TotalBlockBudget)
		logger.LogBlock(c.log, c.cfg.Account, wait, total, c.cfg.TotalBlockBudget)
		if !exceeded {
			continue
		}

		c.addStats(func(s *Stats) { s.Rotations++ })
		if c.rotator == nil {
			return errs.Wrap(errs.KindCredentialsExhausted, "rotate", err)
		}
		if rerr := c.rotator.Rotate(); rerr != nil {
			return rerr
		}
		return errs.Wrap(errs.KindRotated, c.cfg.Account, err)
	}
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, c *Controller, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := c.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

// Stats returns a copy of the controller's counters
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Ledger exposes the ledger this controller charges
func (c *Controller) Ledger() *BlockLedger {
	return c.ledger
}

func (c *Controller) addStats(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
