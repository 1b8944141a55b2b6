package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#3DDC97")
	colorSecondary = lipgloss.Color("#56B6C2")
	colorMuted     = lipgloss.Color("#5C6370")
	colorSuccess   = lipgloss.Color("#98C379")
	colorWarning   = lipgloss.Color("#E5C07B")
	colorError     = lipgloss.Color("#E06C75")
	colorFg        = lipgloss.Color("#ABB2BF")
	colorSubtle    = lipgloss.Color("#3E4451")
	colorHighlight = lipgloss.Color("#61AFEF")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// panel is a rounded box; focused panels take the primary border.
func panel(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)
}

// gutter draws a left rule, used for command text and process output.
func gutter(text, rule lipgloss.Color) lipgloss.Style {
	return fg(text).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(rule).
		PaddingLeft(1)
}

var (
	activeTabStyle = fg(colorPrimary).Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle       = panel(colorSubtle)
	activePanelStyle = panel(colorPrimary)

	previewStyle = gutter(colorSecondary, colorSecondary)
	outputStyle  = gutter(colorFg, colorSubtle)

	titleStyle     = fg(colorFg).Bold(true)
	subtitleStyle  = fg(colorMuted).Italic(true)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	tagOnStyle  = fg(colorSecondary).Bold(true).Underline(true)
	tagOffStyle = fg(colorMuted)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
)
