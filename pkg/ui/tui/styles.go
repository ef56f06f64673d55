package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Night-map palette
var (
	teal     = lipgloss.Color("#2EC4B6")
	amber    = lipgloss.Color("#FFBF46")
	coral    = lipgloss.Color("#FF6B6B")
	mint     = lipgloss.Color("#7BE495")
	violet   = lipgloss.Color("#9D8DF1")
	ink      = lipgloss.Color("#0B132B")
	slate    = lipgloss.Color("#1C2541")
	fog      = lipgloss.Color("#C5CBD3")
	graphite = lipgloss.Color("#5C6770")
)

var (
	baseStyle = lipgloss.NewStyle().Background(ink).Foreground(fog)

	logoStyle = lipgloss.NewStyle().
			Foreground(teal).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(violet).
			Background(slate).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Background(violet).
			Foreground(ink).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(graphite).Padding(1, 0, 0, 2)

	statsLabelStyle = lipgloss.NewStyle().Foreground(teal).Bold(true)
	statsValueStyle = lipgloss.NewStyle().Foreground(amber)

	successStyle = lipgloss.NewStyle().Foreground(mint).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(amber).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(coral).Bold(true)

	progressEmptyStyle = lipgloss.NewStyle().Foreground(graphite)

	// recent nodes
	nodeStyle        = lipgloss.NewStyle().Foreground(fog).PaddingLeft(2)
	nodePopularStyle = lipgloss.NewStyle().Foreground(amber).Bold(true).PaddingLeft(2)
	nodeFailedStyle  = lipgloss.NewStyle().Foreground(coral).Faint(true).PaddingLeft(2)

	logTimestampStyle = lipgloss.NewStyle().Foreground(graphite)
	logMessageStyle   = lipgloss.NewStyle().Foreground(fog)

	budgetCalmStyle     = lipgloss.NewStyle().Foreground(mint)
	budgetStrainedStyle = lipgloss.NewStyle().Foreground(amber)
	budgetSpentStyle    = lipgloss.NewStyle().Foreground(coral)
)

// BudgetStyle colors the block budget bar by how much of it is used
func BudgetStyle(usage float64) lipgloss.Style {
	switch {
	case usage >= 90:
		return budgetSpentStyle
	case usage >= 70:
		return budgetStrainedStyle
	default:
		return budgetCalmStyle
	}
}
