package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"igcrawler/pkg/crawl"
	"igcrawler/pkg/ratelimit"
)

// TUI runs the crawl dashboard. It satisfies ui.Display, so the runner can
// feed it from the crawl goroutine while Start blocks in another.
type TUI struct {
	program *tea.Program
}

// NewTUI builds the dashboard for target. Without options it takes over
// the whole screen.
func NewTUI(target string, opts ...tea.ProgramOption) *TUI {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	model := NewModel(target)
	return &TUI{program: tea.NewProgram(&model, opts...)}
}

// Start blocks until Stop is called or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

func (t *TUI) Stop() { t.program.Quit() }

// Send hands msg to the program, blocking until it is running. It returns
// at once after the program has exited.
func (t *TUI) Send(msg tea.Msg) { t.program.Send(msg) }

// Observe snapshots e so the model never reads the live graph
func (t *TUI) Observe(e crawl.Event) { t.Send(NewEventMsg(e)) }

func (t *TUI) UpdateRate(account string, stats ratelimit.Stats, blockBudget time.Duration) {
	t.Send(RateMsg{Account: account, Stats: stats, BlockBudget: blockBudget})
}

func (t *TUI) LogInfo(format string, args ...interface{})    { t.log("INFO", format, args) }
func (t *TUI) LogWarning(format string, args ...interface{}) { t.log("WARN", format, args) }
func (t *TUI) LogError(format string, args ...interface{})   { t.log("ERROR", format, args) }

func (t *TUI) log(level, format string, args []interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}
