package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"igcrawler/pkg/crawl"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/ratelimit"
)

func intPtr(v int) *int { return &v }

func TestModel(t *testing.T) {
	model := NewModel("alice")

	model.ApplyEvent(EventMsg{Kind: crawl.EventSeeded, Stats: graph.Stats{Nodes: 4, Unresolved: 4}})
	if model.phase != "sampling" {
		t.Errorf("Expected phase sampling, got %s", model.phase)
	}

	model.ApplyEvent(EventMsg{Kind: crawl.EventPassStarted, Account: "scout", Pass: 1})
	if model.account != "scout" || model.pass != 1 {
		t.Errorf("Expected scout on pass 1, got %s on %d", model.account, model.pass)
	}

	model.ApplyEvent(EventMsg{
		Kind:  crawl.EventNodeResolved,
		Node:  &NodeItem{ID: "1", Nickname: "bob", Followers: 12},
		Stats: graph.Stats{Nodes: 4, Resolved: 1, Unresolved: 3},
	})
	model.ApplyEvent(EventMsg{
		Kind:  crawl.EventNodeFailed,
		Node:  &NodeItem{ID: "2", Failed: true},
		Stats: graph.Stats{Nodes: 4, Resolved: 1, Unresolved: 3},
	})

	if model.resolved != 1 || model.failures != 1 {
		t.Errorf("Expected 1 resolved and 1 failure, got %d and %d", model.resolved, model.failures)
	}
	if len(model.recent) != 2 {
		t.Errorf("Expected 2 recent nodes, got %d", len(model.recent))
	}
	if got := model.Completion(); got != 0.25 {
		t.Errorf("Expected completion 0.25, got %f", got)
	}

	model.ApplyEvent(EventMsg{Kind: crawl.EventPassFinished, Result: &crawl.PassResult{Pass: 1, BadRequests: 2, Halted: true}})
	if model.badRequests != 2 {
		t.Errorf("Expected 2 bad requests, got %d", model.badRequests)
	}

	model.ApplyEvent(EventMsg{Kind: crawl.EventRotated, Account: "backup"})
	if model.rotations != 1 || model.account != "backup" {
		t.Errorf("Expected rotation to backup, got %d rotations as %s", model.rotations, model.account)
	}

	model.ApplyEvent(EventMsg{Kind: crawl.EventFinished, Err: errors.New("exhausted")})
	if !model.Finished() || model.Err() == nil {
		t.Error("Expected finished model to keep its error")
	}
}

func TestRecentNodesAreBounded(t *testing.T) {
	model := NewModel("alice")
	for i := 0; i < 20; i++ {
		model.ApplyEvent(EventMsg{Kind: crawl.EventNodeResolved, Node: &NodeItem{ID: string(rune('a' + i))}})
	}
	if len(model.recent) != model.maxRecent {
		t.Errorf("Expected %d recent nodes, got %d", model.maxRecent, len(model.recent))
	}
	if model.recent[len(model.recent)-1].ID != "t" {
		t.Errorf("Expected newest node last, got %s", model.recent[len(model.recent)-1].ID)
	}
}

func TestNewEventMsgSnapshotsNode(t *testing.T) {
	n := &graph.Node{ID: "7", Nickname: "carol", FollowerCount: intPtr(99), IsPopular: true}
	msg := NewEventMsg(crawl.Event{Kind: crawl.EventNodeResolved, Pass: 2, Node: n})

	n.Nickname = "changed"

	if msg.Node == nil {
		t.Fatal("Expected node snapshot")
	}
	if msg.Node.Nickname != "carol" || msg.Node.Followers != 99 || !msg.Node.Popular {
		t.Errorf("Unexpected snapshot %+v", *msg.Node)
	}
	if msg.Node.Pass != 2 {
		t.Errorf("Expected pass 2, got %d", msg.Node.Pass)
	}
}

func TestBlockUsage(t *testing.T) {
	model := NewModel("alice")
	if model.BlockUsage() != 0 {
		t.Error("Expected zero usage without a budget")
	}

	model.UpdateRate(RateMsg{
		Account:     "scout",
		Stats:       ratelimit.Stats{Requests: 10, Blocks: 1, BlockWait: 5 * time.Minute},
		BlockBudget: 20 * time.Minute,
	})
	if got := model.BlockUsage(); got != 25 {
		t.Errorf("Expected 25%% usage, got %f", got)
	}

	model.UpdateRate(RateMsg{Stats: ratelimit.Stats{BlockWait: time.Hour}})
	if got := model.BlockUsage(); got != 100 {
		t.Errorf("Expected usage capped at 100, got %f", got)
	}
}

func TestKeyPresses(t *testing.T) {
	model := NewModel("alice")
	model.AddLogMessage("INFO", "hello")

	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !model.showHelp {
		t.Error("Expected help to be shown")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(model.logMessages) != 0 {
		t.Errorf("Expected cleared logs, got %d", len(model.logMessages))
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("Expected quit command")
	}
}

func TestView(t *testing.T) {
	model := NewModel("alice")
	if model.View() != "Initializing..." {
		t.Error("Expected placeholder before the window size is known")
	}

	model.Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	model.ApplyEvent(EventMsg{Kind: crawl.EventNodeResolved, Node: &NodeItem{ID: "1", Nickname: "bob"}, Stats: graph.Stats{Nodes: 2, Resolved: 1, Unresolved: 1}})

	view := model.View()
	for _, want := range []string{"GRAPH STATS", "RATE CONTROL", "@alice", "bob"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{-time.Second, "00:00"},
		{90 * time.Second, "01:30"},
		{2*time.Hour + 5*time.Minute, "02:05:00"},
	}

	for _, test := range tests {
		if got := formatDuration(test.d); got != test.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", test.d, got, test.expected)
		}
	}
}
