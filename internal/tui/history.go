package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/bundle"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/afero"
)

const (
	historyDays   = 7
	historyRecent = 10
)

type historyModel struct {
	store  *store.Store
	fs     afero.Fs
	width  int
	height int

	summaries []store.DailyRunSummary
	runs      []store.Run
	offset    int // 7-day blocks back from today (0 = current)
	now       func() time.Time

	chart barchart.Model
}

func newHistoryModel(s *store.Store, fsys afero.Fs) historyModel {
	return historyModel{
		store: s,
		fs:    fsys,
		now:   time.Now,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type historyDataMsg struct {
	summaries []store.DailyRunSummary
	runs      []store.Run
	err       error
}

// dateRange returns the UTC days shown by the chart, end exclusive.
func (h historyModel) dateRange() (time.Time, time.Time) {
	now := h.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1-historyDays*h.offset)
	return end.AddDate(0, 0, -historyDays), end
}

func (h historyModel) refresh() tea.Cmd {
	s := h.store
	from, to := h.dateRange()
	return func() tea.Msg {
		summaries, err := s.DailyRunSummary(from, to)
		if err != nil {
			return historyDataMsg{err: err}
		}
		runs, err := s.ListRuns(store.RunFilter{From: &from, To: &to, Limit: historyRecent})
		return historyDataMsg{summaries: summaries, runs: runs, err: err}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if msg.err != nil {
			return h, errorCmd(msg.err)
		}
		h.summaries = msg.summaries
		h.runs = msg.runs
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.CSV):
			return h, h.exportCSV()
		}
	}
	return h, nil
}

// exportCSV writes every run in the shown range into the export directory.
func (h historyModel) exportCSV() tea.Cmd {
	s, fsys := h.store, h.fs
	from, to := h.dateRange()
	return func() tea.Msg {
		dir, err := s.GetSetting(store.ExportPathKey)
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		runs, err := s.ListRuns(store.RunFilter{From: &from, To: &to})
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		path := filepath.Join(dir, fmt.Sprintf("cmdvault-runs-%s.csv", from.Format("2006-01-02")))
		if err := bundle.RunsToCSV(fsys, path, runs); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return statusMsg{text: fmt.Sprintf("Wrote %d runs to %s", len(runs), path)}
	}
}

func (h *historyModel) buildChart() {
	chartWidth := max(20, h.width-8)
	chartHeight := 10
	if h.height > 36 {
		chartHeight = 14
	}
	h.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]store.DailyRunSummary, len(h.summaries))
	for _, s := range h.summaries {
		byDate[s.Date] = s
	}

	okStyle := fg(colorSuccess)
	failStyle := fg(colorError)

	from, to := h.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		s := byDate[d.Format("2006-01-02")]
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{
				{Name: "ok", Value: float64(s.OK), Style: okStyle},
				{Name: "failed", Value: float64(s.Failed), Style: failStyle},
			},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) totals() (ok, failed int) {
	for _, s := range h.summaries {
		ok += s.OK
		failed += s.Failed
	}
	return ok, failed
}

func (h historyModel) view() string {
	w := h.width - 4

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("History"), "  ", dateLabel)

	ok, failed := h.totals()
	legend := "  " + successStyle.Render(fmt.Sprintf("● ok %d", ok)) + "  " + errorStyle.Render(fmt.Sprintf("● failed %d", failed))

	nav := mutedStyle.Render("  ←/→: previous/next week  c: export csv")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", legend, "", h.renderRuns(w), "", nav,
		),
	)
}

func (h historyModel) renderRuns(w int) string {
	if len(h.runs) == 0 {
		return mutedStyle.Render("  No runs in this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-16s %-6s %-20s %10s  %s", "Started", "Status", "Command", "Duration", "Rendered")),
		mutedStyle.Render("  " + strings.Repeat("─", min(max(w-6, 10), 80))),
	}
	for _, r := range h.runs {
		status := successStyle.Render(fmt.Sprintf("%-6s", "ok"))
		if !r.OK {
			status = errorStyle.Render(fmt.Sprintf("%-6d", r.ExitCode))
		}
		rows = append(rows, fmt.Sprintf("  %-16s %s %-20s %10s  %s",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			status,
			truncate(orDash(r.CommandName), 20),
			formatDuration(r.Duration),
			truncate(r.Rendered, max(10, w-64)),
		))
	}
	return strings.Join(rows, "\n")
}
