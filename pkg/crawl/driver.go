package crawl

import (
	"context"
	"errors"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/logger"
	"igcrawler/pkg/session"
)

// Credentials hands out sessions in order. Both methods return a
// CredentialsExhausted error once no session is left.
type Credentials interface {
	Current() (session.Fetcher, error)
	Advance() (session.Fetcher, error)
}

// DriverConfig wires a Driver
type DriverConfig struct {
	Budgets  Budgets
	Store    Checkpointer
	Logger   logger.Logger
	Observer Observer
}

// Driver runs a crawl to completion across a credential pool
type Driver struct {
	creds    Credentials
	budgets  Budgets
	store    Checkpointer
	log      logger.Logger
	observer Observer
}

func NewDriver(creds Credentials, cfg DriverConfig) *Driver {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Driver{
		creds:    creds,
		budgets:  cfg.Budgets,
		store:    cfg.Store,
		log:      cfg.Logger.WithField("component", "driver"),
		observer: cfg.Observer,
	}
}

// Run crawls target. A non-nil resume graph continues a prior crawl
// instead of seeding. The returned graph is the last state reached, also
// on error; it has been checkpointed on every path that produced one.
func (d *Driver) Run(ctx context.Context, target string, resume *graph.Graph) (*graph.Graph, error) {
	g := resume
	if g == nil {
		err := d.withSession(ctx, func(f session.Fetcher) error {
			seeded, err := Seed(ctx, f, target)
			if err != nil {
				return err
			}
			g = seeded
			return nil
		})
		if err != nil {
			return nil, d.fail(err)
		}
		d.log.InfoWithFields("graph seeded", map[string]interface{}{"target": target, "nodes": g.Len()})
		d.observer.Observe(Event{Kind: EventSeeded, Stats: g.Stats()})
	} else {
		d.log.InfoWithFields("resuming crawl", map[string]interface{}{
			"target":     g.Target,
			"phase":      string(g.Phase),
			"unresolved": g.Stats().Unresolved,
		})
	}

	m := NewMachine(g, d.budgets, d.store, d.log, d.observer)
	if err := m.Save(ctx); err != nil {
		return g, err
	}

	if g.Phase != graph.PhaseSampled {
		err := d.withSession(ctx, func(f session.Fetcher) error {
			return m.SampleEngagement(ctx, f)
		})
		if err != nil {
			return g, d.abort(ctx, m, err)
		}
		if err := m.Save(ctx); err != nil {
			return g, err
		}
		d.observer.Observe(Event{Kind: EventSampled, Stats: g.Stats()})
	}

	for pass := 1; g.HasPending(); pass++ {
		f, err := d.creds.Current()
		if err != nil {
			return g, d.abort(ctx, m, err)
		}

		d.observer.Observe(Event{Kind: EventPassStarted, Account: f.Account(), Pass: pass, Stats: g.Stats()})
		res, err := m.ResolvePass(ctx, f, pass)
		logger.LogPass(d.log, pass, res.Resolved, res.Unresolved, res.BadRequests)
		d.observer.Observe(Event{Kind: EventPassFinished, Account: f.Account(), Pass: pass, Result: &res, Stats: g.Stats()})
		if err != nil {
			return g, d.abort(ctx, m, err)
		}

		if !g.HasPending() {
			break
		}
		if res.Rotated {
			// the controller already advanced the pool
			d.rotated()
			continue
		}
		if _, err := d.creds.Advance(); err != nil {
			return g, d.abort(ctx, m, err)
		}
		d.rotated()
	}

	if err := m.Save(ctx); err != nil {
		return g, err
	}
	d.observer.Observe(Event{Kind: EventFinished, Stats: g.Stats()})
	d.log.InfoWithFields("crawl finished", map[string]interface{}{
		"target": g.Target,
		"nodes":  g.Len(),
		"edges":  len(g.Edges()),
	})
	return g, nil
}

// withSession runs fn against the current session, rerunning it on the
// next session each time the rate controller rotates away.
func (d *Driver) withSession(ctx context.Context, fn func(session.Fetcher) error) error {
	for {
		f, err := d.creds.Current()
		if err != nil {
			return err
		}
		err = fn(f)
		if !errs.IsRotated(err) {
			return err
		}
		d.rotated()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (d *Driver) rotated() {
	account := ""
	if f, err := d.creds.Current(); err == nil {
		account = f.Account()
	}
	d.observer.Observe(Event{Kind: EventRotated, Account: account})
}

// abort checkpoints the graph and reports err
func (d *Driver) abort(ctx context.Context, m *Machine, err error) error {
	// a cancelled ctx must not prevent the final save
	saveCtx := context.WithoutCancel(ctx)
	if serr := m.Save(saveCtx); serr != nil {
		d.log.WithError(serr).Error("final checkpoint failed")
		err = errors.Join(err, serr)
	}
	return d.fail(err)
}

func (d *Driver) fail(err error) error {
	if errs.IsExhausted(err) {
		d.log.Error("no working credentials left")
		err = errs.Wrap(errs.KindCredentialsExhausted, "crawl", err)
	}
	d.observer.Observe(Event{Kind: EventFinished, Err: err})
	return err
}
