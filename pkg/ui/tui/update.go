package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igcrawler/pkg/crawl"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/ratelimit"
)

// EventMsg carries a crawl event. Node is a copy taken on the crawl
// goroutine, so the model never reads the live graph.
type EventMsg struct {
	Kind    crawl.EventKind
	Account string
	Pass    int
	Node    *NodeItem
	Result  *crawl.PassResult
	Stats   graph.Stats
	Err     error
}

// RateMsg is sent to update the rate controller panel
type RateMsg struct {
	Account     string
	Stats       ratelimit.Stats
	BlockBudget time.Duration
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// NewEventMsg snapshots e
func NewEventMsg(e crawl.Event) EventMsg {
	msg := EventMsg{
		Kind:    e.Kind,
		Account: e.Account,
		Pass:    e.Pass,
		Stats:   e.Stats,
		Err:     e.Err,
	}
	if e.Result != nil {
		r := *e.Result
		msg.Result = &r
	}
	if e.Node != nil {
		item := NodeItem{
			ID:       e.Node.ID,
			Nickname: e.Node.Nickname,
			Popular:  e.Node.IsPopular,
			Failed:   e.Kind == crawl.EventNodeFailed,
			Pass:     e.Pass,
			At:       time.Now(),
		}
		if e.Node.FollowerCount != nil {
			item.Followers = *e.Node.FollowerCount
		}
		if e.Err != nil {
			item.Error = e.Err.Error()
		}
		msg.Node = &item
	}
	return msg
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case EventMsg:
		m.ApplyEvent(msg)
		return m, nil

	case RateMsg:
		m.UpdateRate(msg)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = []LogMessage{}
		return m, nil
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
