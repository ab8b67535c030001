package console

import "github.com/charmbracelet/lipgloss"

var (
	colorConnected    = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorConnecting   = lipgloss.AdaptiveColor{Light: "#e65100", Dark: "#ffa726"}
	colorError        = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorMuted        = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	colorBorder       = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
	colorBorderActive = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#42a5f5"}

	labelStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	statusKey   = lipgloss.NewStyle().Bold(true).Foreground(colorBorderActive)
	activeBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorderActive)
	inactiveBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder)
)
