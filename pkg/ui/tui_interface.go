package ui

import (
	"time"

	"igcrawler/pkg/crawl"
	"igcrawler/pkg/ratelimit"
)

// Display is what the runner drives while a crawl is in progress.
// ConsoleProgress and tui.TUI both satisfy it.
type Display interface {
	crawl.Observer
	UpdateRate(account string, stats ratelimit.Stats, blockBudget time.Duration)
	LogInfo(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
}
