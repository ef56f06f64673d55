package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"igcrawler/internal/runner"
	"igcrawler/pkg/auth"
	"igcrawler/pkg/config"
	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/instagram"
	"igcrawler/pkg/logger"
	"igcrawler/pkg/ui"
	"igcrawler/pkg/ui/tui"
)

var (
	// Crawl command flags
	credentialPairs     []string
	maxFollowees        int
	starFollowers       int
	badRequestThreshold int
	totalBlockBudget    time.Duration
	likesMaxAmount      int
	likesThreshold      int
	ghostLikes          int
	loadState           string
	resumeCrawl         bool
	checkpointBackend   string
	checkpointDir       string
	blockBudgetScope    string
	transport           string
	proxy               string
	useTUI              bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <target>",
	Short: "Map the follow graph around a target account",
	Long: `Map the follow graph around a target Instagram account.

The crawl seeds the graph with the target's followees and followers, adds
"ghost" nodes for accounts that like the target's posts without following,
then resolves every node's followees in passes. Each pass runs on one
credential; a pass that runs into too many rejected requests hands over to
the next credential.

The graph is checkpointed after every resolved node. An interrupted crawl
keeps its state and continues with --resume.

Credentials come from (first match wins):
  - --credentials login,password[,totp_secret] (repeatable)
  - IGCRAWLER_ACCOUNTS (semicolon separated)
  - Accounts stored with 'igcrawler auth add'`,
	Example: `  # Crawl with two accounts
  igcrawler crawl alice --credentials scout,hunter2 --credentials backup,s3cret

  # Continue an interrupted crawl
  igcrawler crawl alice --resume

  # Continue from a checkpoint file somewhere else
  igcrawler crawl alice --load-state ./alice_graph.json

  # Smaller budgets, SQLite checkpoints and the interactive UI
  igcrawler crawl alice --max-followees 100 --checkpoint-backend sqlite --tui`,
	Args: cobra.ExactArgs(1),
	Run:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringArrayVar(&credentialPairs, "credentials", nil, "credential pair login,password[,totp_secret]; repeat for more accounts")
	f.IntVar(&maxFollowees, "max-followees", 0, "followees scanned per node (default 500)")
	f.IntVar(&starFollowers, "star-followers", 0, "follower count above which a node is popular and not scanned (default 5000)")
	f.IntVar(&badRequestThreshold, "bad-request-threshold", 0, "rejected requests that end a pass (default 10)")
	f.DurationVar(&totalBlockBudget, "total-block-budget", 0, "time a session may spend blocked before rotating (default 20m)")
	f.IntVar(&likesMaxAmount, "likes-max-amount", 0, "posts with at least this many likes are not sampled (default 500)")
	f.IntVar(&likesThreshold, "likes-threshold", 0, "stop sampling after this many likes in total (default 5000)")
	f.IntVar(&ghostLikes, "ghost-likes", 0, "likes that make a non-follower a ghost node (default 5)")
	f.StringVar(&loadState, "load-state", "", "continue from an explicit checkpoint file")
	f.BoolVar(&resumeCrawl, "resume", false, "continue from the target's last checkpoint")
	f.StringVar(&checkpointBackend, "checkpoint-backend", "", "checkpoint backend: file or sqlite")
	f.StringVar(&checkpointDir, "checkpoint-dir", "", "directory that holds checkpoints")
	f.StringVar(&blockBudgetScope, "block-budget-scope", "", "block budget per session or global")
	f.StringVar(&transport, "transport", "", "HTTP transport: stealth or std")
	f.StringVar(&proxy, "proxy", "", "proxy URL for all requests")
	f.BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")

	crawlCmd.MarkFlagsMutuallyExclusive("resume", "load-state")
}

// crawlFlags maps the explicitly set flags to configuration keys
func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)
	changed := cmd.Flags().Changed

	if len(credentialPairs) > 0 {
		flags["credentials"] = credentialPairs
	}
	ints := map[string]int{
		"max-followees":         maxFollowees,
		"star-followers":        starFollowers,
		"bad-request-threshold": badRequestThreshold,
		"likes-max-amount":      likesMaxAmount,
		"likes-threshold":       likesThreshold,
		"ghost-likes":           ghostLikes,
	}
	for name, v := range ints {
		if changed(name) {
			flags[name] = v
		}
	}
	if changed("total-block-budget") {
		flags["total-block-budget"] = totalBlockBudget
	}
	strs := map[string]string{
		"checkpoint-backend": checkpointBackend,
		"checkpoint-dir":     checkpointDir,
		"block-budget-scope": blockBudgetScope,
		"transport":          transport,
		"proxy":              proxy,
	}
	for name, v := range strs {
		if changed(name) {
			flags[name] = v
		}
	}
	if changed("tui") {
		flags["tui"] = useTUI
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) {
	target := instagram.SanitizeUsername(args[0])

	cfg, err := config.Load(configFile, crawlFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	useTUI = cfg.UI.TUI
	if !verbose && !useTUI && !cmd.Flags().Changed("log-level") && os.Getenv("IGCRAWLER_LOG_LEVEL") == "" {
		// the progress line reports what matters
		cfg.Logging.Level = "warn"
	}

	log, err := crawlLogger(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log.WithField("version", version).Info("igcrawler starting")

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential stores unavailable, using command line accounts only")
		manager = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g *graph.Graph
	if useTUI {
		g, err = crawlWithTUI(ctx, cfg, log, manager, target)
	} else {
		ui.PrintInfo("Target Profile", "@"+target)
		display := ui.NewConsoleProgress(target, verbose)
		r := runner.New(cfg, log, runner.Options{Manager: manager, Display: display})
		g, err = r.Run(ctx, target, runner.RunOptions{Resume: resumeCrawl, LoadState: loadState})
	}

	if notifications && g != nil {
		ui.NewNotifier().CrawlFinished(target, g.Stats(), err)
	}

	if err != nil {
		log.WithError(err).WithField("target", target).Error("crawl failed")
		ui.PrintError("CRAWL STOPPED", err.Error())
		if g != nil {
			fmt.Printf("\nState is saved. Continue with:\n  igcrawler crawl %s --resume\n", target)
		}
		if errs.IsExhausted(err) {
			fmt.Println("\nAll credentials are worn out. Add accounts with --credentials or 'igcrawler auth add'.")
		}
		os.Exit(runner.ExitCode(err))
	}

	log.WithField("target", target).Info("crawl completed successfully")
	ui.PrintSuccess("[CRAWL COMPLETED]")
	fmt.Printf("Report: igcrawler status %s\n", target)
}

// crawlWithTUI runs the crawl and the terminal UI side by side. Quitting
// the UI cancels the crawl, which still checkpoints before returning.
func crawlWithTUI(ctx context.Context, cfg *config.Config, log logger.Logger, manager *auth.Manager, target string) (*graph.Graph, error) {
	terminal := tui.NewTUI(target)
	r := runner.New(cfg, log, runner.Options{Manager: manager, Display: terminal})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g        *graph.Graph
		crawlErr error
	)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		g, crawlErr = r.Run(ctx, target, runner.RunOptions{Resume: resumeCrawl, LoadState: loadState})
		terminal.Stop()
		return nil
	})
	group.Go(func() error {
		err := terminal.Start()
		cancel()
		return err
	})

	if err := group.Wait(); err != nil {
		log.WithError(err).Error("terminal UI failed")
	}
	return g, crawlErr
}

// crawlLogger keeps log lines off the terminal while the TUI owns it
func crawlLogger(cfg *config.Config) (logger.Logger, error) {
	if !cfg.UI.TUI {
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return nil, err
		}
		return logger.GetLogger(), nil
	}

	var out io.Writer = io.Discard
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}
	return logger.NewWithWriter(&cfg.Logging, out)
}
