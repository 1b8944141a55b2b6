package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/bundle"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/afero"
)

// importPattern selects the bundles picked up from configPath.
const importPattern = "**/*.json"

type settingsModel struct {
	store  *store.Store
	fs     afero.Fs
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	configPath *string
	exportPath *string

	imported []bundle.FileResult
}

func newSettingsModel(s *store.Store, fsys afero.Fs) settingsModel {
	cp, ep := "", ""
	return settingsModel{
		store:      s,
		fs:         fsys,
		configPath: &cp,
		exportPath: &ep,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	err      error
}

type importDoneMsg struct {
	results []bundle.FileResult
	err     error
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.store
	return func() tea.Msg {
		settings, err := st.GetAllSettings()
		return settingsDataMsg{settings: settings, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			return s, errorCmd(msg.err)
		}
		s.settings = msg.settings
		return s, nil
	case importDoneMsg:
		s.imported = msg.results
		return s, importStatus(msg)
	}
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case key.Matches(msg, keys.Import):
			return s, s.importBundles()
		case key.Matches(msg, keys.Export):
			return s, s.exportBundle()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.configPath = s.getVal(store.ConfigPathKey)
	*s.exportPath = s.getVal(store.ExportPathKey)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Config path").
				Description("Directory searched for "+importPattern+" on import").
				Value(s.configPath),
			huh.NewInput().
				Title("Export path").
				Description("Directory that receives exported bundles and run CSVs").
				Value(s.exportPath),
		).Title("Paths"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		return s, tea.Batch(s.saveSettings(), s.refresh())
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
	}
	return s, cmd
}

func (s settingsModel) saveSettings() tea.Cmd {
	if err := s.store.SetSetting(store.ConfigPathKey, strings.TrimSpace(*s.configPath)); err != nil {
		return errorCmd(err)
	}
	if err := s.store.SetSetting(store.ExportPathKey, strings.TrimSpace(*s.exportPath)); err != nil {
		return errorCmd(err)
	}
	return statusCmd("Settings saved")
}

func (s settingsModel) getVal(k string) string {
	for _, st := range s.settings {
		if st.Key == k {
			return st.Value
		}
	}
	v, err := s.store.GetSetting(k)
	if err != nil {
		return ""
	}
	return v
}

func (s settingsModel) importBundles() tea.Cmd {
	st, fsys := s.store, s.fs
	return func() tea.Msg {
		dir, err := st.GetSetting(store.ConfigPathKey)
		if err != nil {
			return importDoneMsg{err: err}
		}
		results, err := bundle.ImportGlob(fsys, st, dir, importPattern)
		return importDoneMsg{results: results, err: err}
	}
}

func (s settingsModel) exportBundle() tea.Cmd {
	st, fsys := s.store, s.fs
	return func() tea.Msg {
		dir, err := st.GetSetting(store.ExportPathKey)
		if err != nil {
			return bundleDoneMsg{text: err.Error(), isError: true}
		}
		path, err := bundle.ExportToDir(fsys, st, dir)
		if err != nil {
			return bundleDoneMsg{text: err.Error(), isError: true}
		}
		return bundleDoneMsg{text: "Exported to " + path}
	}
}

// importStatus summarises an import for the footer.
func importStatus(msg importDoneMsg) tea.Cmd {
	if msg.err != nil {
		return func() tea.Msg { return bundleDoneMsg{text: msg.err.Error(), isError: true} }
	}
	var commands, failed int
	for _, r := range msg.results {
		commands += r.Commands
		if !r.Success {
			failed++
		}
	}
	done := bundleDoneMsg{
		text:    fmt.Sprintf("Imported %d commands from %d files", commands, len(msg.results)-failed),
		isError: failed > 0,
	}
	if failed > 0 {
		done.text += fmt.Sprintf(", %d failed", failed)
	}
	if len(msg.results) == 0 {
		done.text = "No bundles found"
	}
	return func() tea.Msg { return done }
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(16).Render(setting.Key)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(setting.Value)))
	}

	if len(s.imported) > 0 {
		rows = append(rows, "", subtitleStyle.Render("Last import"))
		for _, r := range s.imported {
			if r.Success {
				rows = append(rows, successStyle.Render(fmt.Sprintf("  ✓ %s", r.Path))+
					mutedStyle.Render(fmt.Sprintf("  %d projects, %d commands, %d skipped", r.Projects, r.Commands, r.Skipped)))
			} else {
				rows = append(rows, errorStyle.Render(fmt.Sprintf("  ✗ %s  %s", r.Path, r.Error)))
			}
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: edit paths  i: import from config path  x: export to export path"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
