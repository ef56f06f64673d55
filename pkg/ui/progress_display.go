package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"igcrawler/pkg/crawl"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/ratelimit"
)

// ConsoleProgress prints a single updating progress line per crawl.
// In debug mode every node gets its own line instead.
type ConsoleProgress struct {
	mu        sync.Mutex
	out       io.Writer
	target    string
	account   string
	pass      int
	stats     graph.Stats
	resolved  int
	failures  int
	rotations int
	rate      ratelimit.Stats
	startTime time.Time
	isDebug   bool
	finished  bool
}

// NewConsoleProgress creates a progress display writing to stdout
func NewConsoleProgress(target string, debug bool) *ConsoleProgress {
	return NewConsoleProgressWithWriter(os.Stdout, target, debug)
}

func NewConsoleProgressWithWriter(out io.Writer, target string, debug bool) *ConsoleProgress {
	return &ConsoleProgress{
		out:       out,
		target:    target,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// Observe implements crawl.Observer
func (p *ConsoleProgress) Observe(e crawl.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e.Account != "" {
		p.account = e.Account
	}
	if e.Pass > 0 {
		p.pass = e.Pass
	}
	if e.Stats.Nodes > 0 {
		p.stats = e.Stats
	}

	switch e.Kind {
	case crawl.EventSeeded:
		fmt.Fprintf(p.out, "%s Seeded @%s with %d nodes\n", Magenta("→"), p.target, e.Stats.Nodes)
	case crawl.EventSampled:
		fmt.Fprintf(p.out, "%s Engagement sampled, %d ghosts\n", Magenta("→"), e.Stats.Ghosts)
	case crawl.EventPassStarted:
		if p.isDebug {
			fmt.Fprintf(p.out, "\n%s Pass %d as %s\n", Magenta("→"), e.Pass, e.Account)
		}
	case crawl.EventNodeResolved:
		p.resolved++
		if p.isDebug && e.Node != nil {
			fmt.Fprintf(p.out, "%s %s\n", Green("✓"), nodeLabel(e.Node))
		} else {
			p.printProgress()
		}
	case crawl.EventNodeFailed:
		p.failures++
		if p.isDebug && e.Node != nil {
			fmt.Fprintf(p.out, "%s %s - %v\n", Red("✗"), nodeLabel(e.Node), e.Err)
		} else {
			p.printProgress()
		}
	case crawl.EventPassFinished:
		if e.Result != nil && e.Result.Halted {
			fmt.Fprintf(p.out, "\n%s Pass %d halted after %d bad requests\n", Yellow("⚠"), e.Result.Pass, e.Result.BadRequests)
		}
	case crawl.EventRotated:
		p.rotations++
		p.rate = ratelimit.Stats{}
		if e.Account != "" {
			fmt.Fprintf(p.out, "\n%s Switched to %s\n", Yellow("⚠"), e.Account)
		}
	case crawl.EventFinished:
		p.finished = true
		p.printSummary(e.Err)
	}
}

// UpdateRate records the controller snapshot shown on the progress line
func (p *ConsoleProgress) UpdateRate(account string, stats ratelimit.Stats, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if account != "" {
		p.account = account
	}
	p.rate = stats
}

func (p *ConsoleProgress) LogInfo(format string, args ...interface{}) {
	p.log(Cyan("•"), format, args...)
}

func (p *ConsoleProgress) LogWarning(format string, args ...interface{}) {
	p.log(Yellow("⚠"), format, args...)
}

func (p *ConsoleProgress) LogError(format string, args ...interface{}) {
	p.log(Red("✗"), format, args...)
}

func (p *ConsoleProgress) log(icon, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s %s\n", icon, fmt.Sprintf(format, args...))
}

func (p *ConsoleProgress) printProgress() {
	todo := p.stats.Resolved + p.stats.Unresolved
	progress := 0.0
	if todo > 0 {
		progress = float64(p.stats.Resolved) / float64(todo)
	}

	barWidth := 20
	filled := int(progress * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d • pass %d • %s • %s",
		Cyan("@"+p.target),
		bar,
		p.stats.Resolved,
		todo,
		p.pass,
		p.account,
		p.calculateETA(),
	)

	if p.rate.Blocks > 0 {
		line += fmt.Sprintf(" • %s", Yellow(fmt.Sprintf("%d blocks", p.rate.Blocks)))
	}
	if p.failures > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failures", p.failures)))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func (p *ConsoleProgress) printSummary(err error) {
	elapsed := time.Since(p.startTime)

	if err != nil {
		fmt.Fprintf(p.out, "\n\n%s Crawl of @%s stopped: %v\n", Red("✗"), p.target, err)
	} else {
		fmt.Fprintf(p.out, "\n\n%s Mapped @%s\n", Green("✓"), p.target)
	}

	fmt.Fprintf(p.out, "  %s %d nodes, %d edges, %d unresolved\n",
		Dim("•"), p.stats.Nodes, p.stats.Edges, p.stats.Unresolved)
	fmt.Fprintf(p.out, "  %s %d resolved this run in %s over %d passes\n",
		Dim("•"), p.resolved, formatDuration(elapsed), p.pass)

	if p.rotations > 0 {
		fmt.Fprintf(p.out, "  %s %d credential rotations\n", Dim("•"), p.rotations)
	}
}

// calculateETA estimates time remaining from this run's resolution rate
func (p *ConsoleProgress) calculateETA() string {
	if p.resolved == 0 {
		return "calculating..."
	}

	rate := float64(p.resolved) / time.Since(p.startTime).Seconds()
	if rate == 0 {
		return "calculating..."
	}

	eta := time.Duration(float64(p.stats.Unresolved)/rate) * time.Second
	return formatDuration(eta)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func nodeLabel(n *graph.Node) string {
	label := n.ID
	if n.Nickname != "" {
		label = n.Nickname + " (" + n.ID + ")"
	}
	if n.IsPopular {
		label += " ★"
	}
	return label
}
