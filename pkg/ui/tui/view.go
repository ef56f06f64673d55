package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderLogo())

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ",
		rightColumn,
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) renderLogo() string {
	logo := `
╔═════════════════════════════════════════════════════════════════════╗
║ ██╗ ██████╗  ██████╗██████╗  █████╗ ██╗    ██╗██╗     ███████╗██████╗ ║
║ ██║██╔════╝ ██╔════╝██╔══██╗██╔══██╗██║    ██║██║     ██╔════╝██╔══██╗║
║ ██║██║  ███╗██║     ██████╔╝███████║██║ █╗ ██║██║     █████╗  ██████╔╝║
║ ██║██║   ██║██║     ██╔══██╗██╔══██║██║███╗██║██║     ██╔══╝  ██╔══██╗║
║ ██║╚██████╔╝╚██████╗██║  ██║██║  ██║╚███╔███╔╝███████╗███████╗██║  ██║║
║ ╚═╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚══╝╚══╝ ╚══════╝╚══════╝╚═╝  ╚═╝║
║              SOCIAL GRAPH CARTOGRAPHY - FOLLOW THE FOLLOWEES          ║
╚═════════════════════════════════════════════════════════════════════╝`

	return logoStyle.Width(m.width).Render(logo)
}

func (m Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderProgressPanel(width),
		m.renderRecentPanel(width),
	)
}

func (m Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderRatePanel(width),
		m.renderLogsPanel(width),
	)
}

// renderStatsPanel renders the graph statistics
func (m Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" GRAPH STATS ")

	account := m.account
	if account == "" {
		account = "-"
	}

	phase := statsValueStyle.Render(m.phase)
	if !m.finished {
		phase = m.spinner.View() + " " + phase
	}

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Target:"), statsValueStyle.Render("@"+m.target)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Phase:"), phase),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Account:"), statsValueStyle.Render(account)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Pass:"), statsValueStyle.Render(fmt.Sprintf("%d", m.pass))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(time.Since(m.startTime)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Nodes:"), statsValueStyle.Render(fmt.Sprintf("%d (%d edges)", m.stats.Nodes, m.stats.Edges))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Ghosts / Popular:"), statsValueStyle.Render(fmt.Sprintf("%d / %d", m.stats.Ghosts, m.stats.Popular))),
	}

	if m.finished {
		if m.err != nil {
			stats = append(stats, errorStyle.Render("✗ STOPPED"))
		} else {
			stats = append(stats, successStyle.Render("✓ COMPLETE"))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderProgressPanel renders resolution progress over the whole graph
func (m Model) renderProgressPanel(width int) string {
	title := titleStyle.Render(" RESOLUTION ")

	bar := m.progress
	bar.Width = width - 8

	eta := "-"
	if d := m.ETA(); d > 0 {
		eta = formatDuration(d)
	}

	content := []string{
		bar.ViewAs(m.Completion()),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Resolved:"),
			successStyle.Render(fmt.Sprintf("%d", m.stats.Resolved))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Unresolved:"),
			warningStyle.Render(fmt.Sprintf("%d", m.stats.Unresolved))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Failures / Bad requests:"),
			statsValueStyle.Render(fmt.Sprintf("%d / %d", m.failures, m.badRequests))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("ETA:"), statsValueStyle.Render(eta)),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" RECENT NODES ")

	if len(m.recent) == 0 {
		content := lipgloss.NewStyle().Foreground(fog).Render("Nothing resolved yet")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	var items []string
	for i := len(m.recent) - 1; i >= 0; i-- {
		n := m.recent[i]
		switch {
		case n.Failed:
			items = append(items, nodeFailedStyle.Render("✗ "+n.Label()))
		case n.Popular:
			items = append(items, nodePopularStyle.Render(fmt.Sprintf("★ %s (%d followers)", n.Label(), n.Followers)))
		default:
			items = append(items, nodeStyle.Render(fmt.Sprintf("✓ %s (%d followers)", n.Label(), n.Followers)))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderRatePanel renders the rate controller of the bound session
func (m Model) renderRatePanel(width int) string {
	title := titleStyle.Render(" RATE CONTROL ")

	usage := m.BlockUsage()

	barWidth := width - 8
	if barWidth < 0 {
		barWidth = 0
	}
	filled := int(usage * float64(barWidth) / 100)
	empty := barWidth - filled

	barStyle := BudgetStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", empty))

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Requests:"),
			statsValueStyle.Render(fmt.Sprintf("%d", m.rate.Requests))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Paced for:"),
			statsValueStyle.Render(formatDuration(m.rate.Delayed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Blocks:"),
			barStyle.Render(fmt.Sprintf("%d (%s slept)", m.rate.Blocks, formatDuration(m.rate.BlockWait)))),
		bar,
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Rotations:"),
			statsValueStyle.Render(fmt.Sprintf("%d", m.rotations))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" CRAWL LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		text := log.Message
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(text) > maxMsgLen {
			text = text[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(text)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(fog).Render("No logs yet...")
	}

	logsHeight := m.height - 35
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m Model) renderHelp() string {
	help := `
  Navigation:
    q/Q      - Stop the crawl (state is saved)
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Resolved/Healthy
    ` + warningStyle.Render("Orange") + `   - Unresolved/Blocked
    ` + errorStyle.Render("Red") + `      - Failed/Critical

  Icons:
    ✓        - Resolved node
    ★        - Popular node, followees not scanned
    ✗        - Failed node, retried next pass
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
