// Package runner wires a crawl run together from configuration: the
// credential pool and its sessions, the checkpoint store and the driver.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"igcrawler/pkg/auth"
	"igcrawler/pkg/checkpoint"
	"igcrawler/pkg/config"
	"igcrawler/pkg/crawl"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/instagram"
	"igcrawler/pkg/logger"
	"igcrawler/pkg/pool"
	"igcrawler/pkg/ratelimit"
	"igcrawler/pkg/retry"
	"igcrawler/pkg/session"
	"igcrawler/pkg/ui"
)

const rateRefresh = time.Second

// Options are the collaborators of a Runner. All fields are optional.
type Options struct {
	// Manager receives fresh sessions after login and supplies stored accounts
	Manager *auth.Manager
	// Display is fed crawl events and rate controller snapshots
	Display ui.Display
	// Dial replaces the Instagram dialer
	Dial pool.DialFunc[session.Fetcher]
}

// RunOptions select where a crawl starts
type RunOptions struct {
	// Resume continues from the target's checkpoint in the store
	Resume bool
	// LoadState continues from an explicit checkpoint file
	LoadState string
}

// Runner runs crawls with one configuration
type Runner struct {
	cfg     *config.Config
	log     logger.Logger
	manager *auth.Manager
	display ui.Display
	dial    pool.DialFunc[session.Fetcher]

	ledger *ratelimit.BlockLedger
	pool   *pool.Pool[session.Fetcher]
}

func New(cfg *config.Config, log logger.Logger, opts Options) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Runner{
		cfg:     cfg,
		log:     log.WithField("component", "runner"),
		manager: opts.Manager,
		display: opts.Display,
		dial:    opts.Dial,
		ledger:  ratelimit.NewBlockLedger(),
	}
	r.pool = pool.New[session.Fetcher](log)
	if r.dial == nil {
		r.dial = r.dialInstagram
	}
	return r
}

// Pool exposes the credential pool, mainly for reporting
func (r *Runner) Pool() *pool.Pool[session.Fetcher] { return r.pool }

// Run crawls target with the accounts of the configuration. The returned
// graph is the last checkpointed state and may be non-nil with an error.
// A Runner performs a single run.
func (r *Runner) Run(ctx context.Context, target string, opts RunOptions) (*graph.Graph, error) {
	target = instagram.SanitizeUsername(target)
	if !instagram.IsValidUsername(target) {
		return nil, fmt.Errorf("invalid target username %q", target)
	}

	store, err := checkpoint.New(r.cfg.Checkpoint, r.log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	resume, err := r.startingPoint(ctx, store, target, opts)
	if err != nil {
		return nil, err
	}

	accounts, err := Accounts(r.cfg.Instagram.Accounts, r.manager, r.log)
	if err != nil {
		return nil, err
	}
	logger.LogComponentStart(r.log, "crawl", map[string]interface{}{
		"target":   target,
		"accounts": len(accounts),
		"resume":   resume != nil,
		"backend":  r.cfg.Checkpoint.Backend,
	})

	if err := r.pool.Open(ctx, accounts, r.dial); err != nil {
		return resume, err
	}
	for _, name := range r.pool.Dropped() {
		r.logDisplay(func(d ui.Display) { d.LogWarning("Dropped account %s", name) })
	}

	var observer crawl.Observer
	if r.display != nil {
		observer = r.display
		stop := r.reportRates(ctx)
		defer stop()
	}

	driver := crawl.NewDriver(r.pool, crawl.DriverConfig{
		Budgets:  crawl.BudgetsFromConfig(r.cfg.Crawl),
		Store:    store,
		Logger:   r.log,
		Observer: observer,
	})
	return driver.Run(ctx, target, resume)
}

// startingPoint returns the graph to resume, or nil for a fresh crawl.
// A fresh crawl backs up whatever checkpoint it is about to overwrite.
func (r *Runner) startingPoint(ctx context.Context, store checkpoint.Store, target string, opts RunOptions) (*graph.Graph, error) {
	var (
		g   *graph.Graph
		err error
	)

	switch {
	case opts.LoadState != "":
		g, err = checkpoint.LoadFile(opts.LoadState)
		if err != nil {
			return nil, err
		}
	case opts.Resume:
		g, err = store.Load(ctx, target)
		if err != nil {
			return nil, err
		}
		if g == nil {
			r.log.WithField("target", target).Warn("no checkpoint to resume, starting fresh")
			r.logDisplay(func(d ui.Display) { d.LogWarning("No checkpoint for @%s, starting fresh", target) })
		}
	default:
		if err := store.Backup(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to back up previous checkpoint: %w", err)
		}
		return nil, nil
	}

	if g != nil && !strings.EqualFold(g.Target, target) {
		return nil, fmt.Errorf("checkpoint is for @%s, not @%s", g.Target, target)
	}
	return g, nil
}

// dialInstagram authenticates one account and binds it to a fresh rate
// controller. A cached session skips the login.
func (r *Runner) dialInstagram(ctx context.Context, account *auth.Account) (session.Fetcher, error) {
	ig := r.cfg.Instagram
	log := r.log.WithField("account", account.Username)

	doer, err := instagram.NewDoer(ig.Transport, ig.RequestTimeout, ig.Proxy)
	if err != nil {
		return nil, err
	}
	client := instagram.NewClient(doer, instagram.Options{
		BaseURL:   ig.BaseURL,
		UserAgent: ig.UserAgent,
		Logger:    log,
	})

	if cached := account.CachedSession(); cached != nil {
		client.UseSession(cached)
		log.Debug("using cached session")
	} else {
		if account.Password == "" {
			return nil, fmt.Errorf("%w: no password for %s", auth.ErrInvalidCredentials, account.Username)
		}
		sess, err := r.login(ctx, client, account, log)
		if err != nil {
			return nil, err
		}
		r.remember(account, sess, log)
	}

	return session.New(account.Username, client, r.controller(account.Username, log)), nil
}

func (r *Runner) login(ctx context.Context, client *instagram.Client, account *auth.Account, log logger.Logger) (*instagram.Session, error) {
	policy := retry.LoginPolicy(r.cfg.Instagram.LoginAttempts, log)
	return retry.DoWithResult(ctx, policy, func(ctx context.Context) (*instagram.Session, error) {
		return client.Login(ctx, account.Credentials())
	})
}

// remember writes a fresh session back to the credential stores
func (r *Runner) remember(account *auth.Account, sess *instagram.Session, log logger.Logger) {
	account.SetSession(sess)
	if r.manager == nil {
		return
	}
	if err := r.manager.Store(account); err != nil {
		log.WithError(err).Warn("failed to cache session")
	}
}

func (r *Runner) controller(account string, log logger.Logger) *ratelimit.Controller {
	rl := r.cfg.RateLimit

	ledger := ratelimit.NewBlockLedger()
	if rl.BlockBudgetScope == config.ScopeGlobal {
		ledger = r.ledger
	}

	return ratelimit.NewController(ratelimit.Config{
		Window:           rl.Window,
		Budget:           rl.RequestsPerWindow,
		Margin:           rl.BlockMargin,
		TotalBlockBudget: rl.TotalBlockBudget,
		Account:          account,
	}, ledger, r.pool, log)
}

// reportRates feeds the display the stats of the bound session until the
// returned stop function is called
func (r *Runner) reportRates(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(rateRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendRate()
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

type statser interface {
	Stats() ratelimit.Stats
}

func (r *Runner) sendRate() {
	f, err := r.pool.Current()
	if err != nil {
		return
	}
	if s, ok := f.(statser); ok {
		r.display.UpdateRate(f.Account(), s.Stats(), r.cfg.RateLimit.TotalBlockBudget)
	}
}

func (r *Runner) logDisplay(fn func(ui.Display)) {
	if r.display != nil {
		fn(r.display)
	}
}

// ExitCode maps a crawl error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
