package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/cmdvault/internal/executor"
	"github.com/sadopc/cmdvault/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCommands viewState = iota
	viewProjects
	viewTags
	viewHistory
	viewSettings
)

var viewNames = []string{"Commands", "Projects", "Tags", "History", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type runDoneMsg struct {
	run    *store.Run
	result executor.Result
	err    error
}

// bundleDoneMsg reports a finished import or export so views that list
// commands and projects can reload.
type bundleDoneMsg struct {
	text    string
	isError bool
}

// --- Helpers ---

func statusCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate cuts s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// lastLines keeps the final n lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
