// Package pool holds the ordered credential sessions of one crawl run.
//
// Sessions are consumed front to back. Once the pool has moved past a
// session it never hands it out again within the run.
package pool

import (
	"context"
	"sync"

	"igcrawler/pkg/auth"
	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/logger"
)

// DialFunc authenticates one account and returns its session
type DialFunc[T any] func(ctx context.Context, account *auth.Account) (T, error)

type entry[T any] struct {
	account string
	value   T
}

// Pool is the credential pool. Its zero value is not usable; call New.
type Pool[T any] struct {
	log logger.Logger

	mu      sync.Mutex
	entries []entry[T]
	pos     int
	dropped []string
}

func New[T any](log logger.Logger) *Pool[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pool[T]{log: log.WithField("component", "pool")}
}

// Open dials every account in order. An account that fails to dial is
// dropped with a warning; Open fails only when none is left, or when
// ctx is done.
func (p *Pool[T]) Open(ctx context.Context, accounts []*auth.Account, dial DialFunc[T]) error {
	for _, account := range accounts {
		value, err := dial(ctx, account)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.WithError(err).WarnWithFields("dropping credential", map[string]interface{}{
				"account": account.Username,
				"kind":    string(errs.KindOf(err)),
			})
			p.mu.Lock()
			p.dropped = append(p.dropped, account.Username)
			p.mu.Unlock()
			continue
		}

		p.mu.Lock()
		p.entries = append(p.entries, entry[T]{account: account.Username, value: value})
		p.mu.Unlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return errs.New(errs.KindCredentialsExhausted, "pool.open", "no credential could be authenticated")
	}
	p.log.InfoWithFields("credential pool ready", map[string]interface{}{
		"sessions": len(p.entries),
		"dropped":  len(p.dropped),
	})
	return nil
}

// Current returns the session in use
func (p *Pool[T]) Current() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current()
}

// Advance abandons the current session and returns the next one
func (p *Pool[T]) Advance() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.account()
	if p.pos < len(p.entries) {
		p.pos++
	}
	logger.LogRotation(p.log, from, p.account(), "advance")
	return p.current()
}

// Rotate is Advance for callers that only need to know whether a session
// is left. It lets the pool serve as a ratelimit.Rotator.
func (p *Pool[T]) Rotate() error {
	_, err := p.Advance()
	return err
}

// Account names the current session, or "" once exhausted
func (p *Pool[T]) Account() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.account()
}

// Remaining counts the current session and every one after it
func (p *Pool[T]) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries) - p.pos
}

// Len counts the sessions that were opened
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Dropped lists the accounts that failed to authenticate
func (p *Pool[T]) Dropped() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.dropped...)
}

func (p *Pool[T]) current() (T, error) {
	if p.pos >= len(p.entries) {
		var zero T
		return zero, errs.ErrCredentialsExhausted
	}
	return p.entries[p.pos].value, nil
}

func (p *Pool[T]) account() string {
	if p.pos >= len(p.entries) {
		return ""
	}
	return p.entries[p.pos].account
}
