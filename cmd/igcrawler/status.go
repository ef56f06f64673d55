package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"igcrawler/pkg/checkpoint"
	"igcrawler/pkg/config"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/instagram"
	"igcrawler/pkg/report"
	"igcrawler/pkg/ui"
)

var (
	statusOutput    string
	statusTopLikers int
	statusBackend   string
	statusBackup    bool
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [target]",
	Short: "Report on a checkpointed crawl",
	Long: `Render a Markdown report of a target's checkpoint: node counts per
status, the most frequent likers, ghost nodes and popular nodes.

Without a target, list every target that has a checkpoint.`,
	Example: `  # Print the report of alice's crawl
  igcrawler status alice

  # Write it to a file
  igcrawler status alice --output alice.md

  # Report on the checkpoint kept before the last fresh crawl
  igcrawler status alice --backup

  # List checkpointed targets in the SQLite backend
  igcrawler status --checkpoint-backend sqlite`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "", "write the report to a file instead of stdout")
	statusCmd.Flags().IntVar(&statusTopLikers, "top-likers", 10, "rows in the top likers table")
	statusCmd.Flags().StringVar(&statusBackend, "checkpoint-backend", "", "checkpoint backend: file or sqlite")
	statusCmd.Flags().BoolVar(&statusBackup, "backup", false, "report on the backup copy instead of the live checkpoint")
}

func runStatus(cmd *cobra.Command, args []string) {
	flags := globalFlags(cmd)
	if statusBackend != "" {
		flags["checkpoint-backend"] = statusBackend
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	store, err := checkpoint.New(cfg.Checkpoint, nil)
	if err != nil {
		ui.PrintError("Failed to open checkpoints", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if len(args) == 0 {
		listTargets(ctx, store)
		return
	}

	target := instagram.SanitizeUsername(args[0])
	g, err := loadStatusGraph(ctx, store, target, statusBackup)
	if err != nil {
		ui.PrintError("Failed to load checkpoint", err.Error())
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if statusOutput != "" {
		file, err := os.Create(statusOutput)
		if err != nil {
			ui.PrintError("Failed to create report file", err.Error())
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}

	if _, err := report.Write(out, g, report.Options{TopLikers: statusTopLikers}); err != nil {
		ui.PrintError("Failed to render report", err.Error())
		os.Exit(1)
	}
	if statusOutput != "" {
		ui.PrintSuccess("Report written: " + statusOutput)
	}
}

// loadStatusGraph reads the live checkpoint of target, or its backup copy
func loadStatusGraph(ctx context.Context, store checkpoint.Store, target string, backup bool) (*graph.Graph, error) {
	load, what := store.Load, "checkpoint"
	if backup {
		load, what = store.LoadBackup, "backup"
	}
	g, err := load(ctx, target)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("no %s for @%s", what, target)
	}
	return g, nil
}

func listTargets(ctx context.Context, store checkpoint.Store) {
	targets, err := store.Targets(ctx)
	if err != nil {
		ui.PrintError("Failed to list checkpoints", err.Error())
		os.Exit(1)
	}
	if len(targets) == 0 {
		ui.PrintInfo("No checkpoints", "Start one with 'igcrawler crawl <target>'")
		return
	}

	for _, target := range targets {
		g, err := store.Load(ctx, target)
		if err != nil || g == nil {
			fmt.Printf("  @%s %s\n", target, ui.Red("(unreadable)"))
			continue
		}
		stats := g.Stats()
		state := ui.Green("complete")
		if stats.Unresolved > 0 {
			state = ui.Yellow(fmt.Sprintf("%d unresolved", stats.Unresolved))
		}
		fmt.Printf("  @%-30s %5d nodes %6d edges  %s\n", target, stats.Nodes, stats.Edges, state)
	}
}
