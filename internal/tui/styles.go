package tui

import "github.com/charmbracelet/lipgloss"

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	HiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	EmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3A3A3A"))

	FlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	HazardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	CursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#04B575")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// countStyles colours adjacency counts 1 through 8.
var countStyles = [9]lipgloss.Style{
	1: lipgloss.NewStyle().Foreground(lipgloss.Color("#4EA8DE")),
	2: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
	3: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	4: lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
	5: lipgloss.NewStyle().Foreground(lipgloss.Color("#C0392B")),
	6: lipgloss.NewStyle().Foreground(lipgloss.Color("#1ABC9C")),
	7: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
	8: lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")),
}
