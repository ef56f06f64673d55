package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igcrawler/pkg/crawl"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/ratelimit"
)

// NodeItem is a snapshot of a node the crawl just touched
type NodeItem struct {
	ID        string
	Nickname  string
	Followers int
	Popular   bool
	Failed    bool
	Error     string
	Pass      int
	At        time.Time
}

// Label is the nickname, or the id when unknown
func (n NodeItem) Label() string {
	if n.Nickname != "" {
		return n.Nickname
	}
	return n.ID
}

// Model represents the TUI model
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	// Crawl state
	target    string
	account   string
	phase     string
	pass      int
	stats     graph.Stats
	recent    []NodeItem
	maxRecent int
	finished  bool
	err       error

	// Counters for this run
	resolved    int
	failures    int
	badRequests int
	rotations   int
	startTime   time.Time

	// Rate controller of the current session
	rate        ratelimit.Stats
	blockBudget time.Duration

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

func NewModel(target string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(teal)

	p := progress.New(progress.WithGradient(string(teal), string(violet)))
	p.Width = 40

	return Model{
		spinner:        s,
		progress:       p,
		target:         target,
		phase:          "starting",
		maxRecent:      8,
		startTime:      time.Now(),
		maxLogMessages: 50,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// ApplyEvent folds one crawl event into the model
func (m *Model) ApplyEvent(e EventMsg) {
	if e.Account != "" {
		m.account = e.Account
	}
	if e.Pass > 0 {
		m.pass = e.Pass
	}
	if e.Stats.Nodes > 0 {
		m.stats = e.Stats
	}

	switch e.Kind {
	case crawl.EventSeeded:
		m.phase = "sampling"
		m.AddLogMessage("INFO", fmt.Sprintf("Seeded %d nodes", e.Stats.Nodes))
	case crawl.EventSampled:
		m.phase = "resolving"
		m.AddLogMessage("INFO", fmt.Sprintf("Engagement sampled, %d ghosts", e.Stats.Ghosts))
	case crawl.EventPassStarted:
		m.phase = "resolving"
		m.AddLogMessage("INFO", fmt.Sprintf("Pass %d started as %s", e.Pass, e.Account))
	case crawl.EventNodeResolved:
		m.resolved++
		m.pushRecent(e.Node)
	case crawl.EventNodeFailed:
		m.failures++
		m.pushRecent(e.Node)
	case crawl.EventPassFinished:
		if e.Result != nil {
			m.badRequests += e.Result.BadRequests
			level := "SUCCESS"
			if e.Result.Halted {
				level = "WARN"
			}
			m.AddLogMessage(level, fmt.Sprintf("Pass %d: %d resolved, %d unresolved", e.Result.Pass, e.Result.Resolved, e.Result.Unresolved))
		}
	case crawl.EventRotated:
		m.rotations++
		m.rate = ratelimit.Stats{}
		if e.Account == "" {
			m.AddLogMessage("WARN", "Credentials exhausted")
		} else {
			m.AddLogMessage("WARN", "Rotated to "+e.Account)
		}
	case crawl.EventFinished:
		m.finished = true
		m.err = e.Err
		m.phase = "done"
		if e.Err != nil {
			m.AddLogMessage("ERROR", "Crawl stopped: "+e.Err.Error())
		} else {
			m.AddLogMessage("SUCCESS", "Crawl complete")
		}
	}
}

func (m *Model) pushRecent(n *NodeItem) {
	if n == nil {
		return
	}
	m.recent = append(m.recent, *n)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// UpdateRate replaces the rate controller snapshot
func (m *Model) UpdateRate(msg RateMsg) {
	if msg.Account != "" {
		m.account = msg.Account
	}
	m.rate = msg.Stats
	if msg.BlockBudget > 0 {
		m.blockBudget = msg.BlockBudget
	}
}

// BlockUsage is the share of the block budget already slept, in percent
func (m Model) BlockUsage() float64 {
	if m.blockBudget <= 0 {
		return 0
	}
	usage := float64(m.rate.BlockWait) / float64(m.blockBudget) * 100
	if usage > 100 {
		usage = 100
	}
	return usage
}

func (m *Model) AddLogMessage(level, message string) {
	color := fog
	switch level {
	case "ERROR":
		color = coral
	case "WARN":
		color = amber
	case "SUCCESS":
		color = mint
	case "INFO":
		color = teal
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Completion is the resolved share of nodes that need resolving
func (m Model) Completion() float64 {
	todo := m.stats.Resolved + m.stats.Unresolved
	if todo == 0 {
		return 0
	}
	return float64(m.stats.Resolved) / float64(todo)
}

// ETA extrapolates this run's resolution rate over the unresolved nodes
func (m Model) ETA() time.Duration {
	if m.resolved == 0 || m.stats.Unresolved == 0 {
		return 0
	}
	per := time.Since(m.startTime) / time.Duration(m.resolved)
	return per * time.Duration(m.stats.Unresolved)
}

func (m Model) Finished() bool { return m.finished }
func (m Model) Err() error     { return m.err }
