package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/runner"
	"github.com/sadopc/cmdvault/internal/store"
)

type commandsModel struct {
	store  *store.Store
	runner *runner.Runner
	width  int
	height int

	commands []store.Command
	projects []store.Project
	tags     []store.Tag
	cursor   int

	// projectIdx selects projects[projectIdx-1]; 0 means every project.
	projectIdx int
	tagIDs     []int64
	tagPicking bool
	tagCursor  int

	inDetail bool
	detail   detailModel

	inEditor bool
	editor   editorModel
}

func newCommandsModel(s *store.Store, r *runner.Runner) commandsModel {
	return commandsModel{store: s, runner: r}
}

func (c *commandsModel) setSize(w, h int) {
	c.width = w
	c.height = h
	c.detail.setSize(w, h)
	c.editor.setSize(w)
}

// capturing reports whether the view needs every key, including the
// global tab and quit bindings.
func (c commandsModel) capturing() bool {
	return c.tagPicking || c.inEditor || (c.inDetail && c.detail.formActive)
}

type commandsDataMsg struct {
	commands []store.Command
	projects []store.Project
	tags     []store.Tag
	err      error
}

func (c commandsModel) filter() command.Filter {
	var f command.Filter
	if c.projectIdx > 0 && c.projectIdx <= len(c.projects) {
		f = f.ForProject(c.projects[c.projectIdx-1].ID)
	}
	if len(c.tagIDs) > 0 {
		f = f.WithTags(c.tagIDs...)
	}
	return f
}

func (c commandsModel) refresh() tea.Cmd {
	s, f := c.store, c.filter()
	return func() tea.Msg {
		projects, err := s.ListProjects()
		if err != nil {
			return commandsDataMsg{err: err}
		}
		tags, err := s.ListTags()
		if err != nil {
			return commandsDataMsg{err: err}
		}
		cmds, err := s.ListCommands(f)
		return commandsDataMsg{commands: cmds, projects: projects, tags: tags, err: err}
	}
}

func (c commandsModel) update(msg tea.Msg) (commandsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case commandsDataMsg:
		if msg.err != nil {
			return c, errorCmd(msg.err)
		}
		c.applyData(msg)
		return c, nil

	case runDoneMsg:
		var cmd tea.Cmd
		c.detail, cmd = c.detail.update(msg)
		return c, cmd
	}

	if c.inEditor {
		var cmd tea.Cmd
		c.editor, cmd = c.editor.update(msg)
		if c.editor.done {
			c.inEditor = false
			return c, tea.Batch(cmd, c.refresh())
		}
		return c, cmd
	}

	if c.inDetail {
		if msg, ok := msg.(tea.KeyMsg); ok && !c.detail.formActive && key.Matches(msg, keys.Back) {
			c.inDetail = false
			return c, nil
		}
		var cmd tea.Cmd
		c.detail, cmd = c.detail.update(msg)
		return c, cmd
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	if c.tagPicking {
		return c.updateTagPicker(km)
	}

	switch {
	case key.Matches(km, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(km, keys.Down):
		if c.cursor < len(c.commands)-1 {
			c.cursor++
		}
	case key.Matches(km, keys.Enter):
		if len(c.commands) > 0 {
			return c.openDetail(c.commands[c.cursor])
		}
	case key.Matches(km, keys.New):
		return c.openEditor(nil)
	case key.Matches(km, keys.Edit):
		if len(c.commands) > 0 {
			cmd := c.commands[c.cursor]
			return c.openEditor(&cmd)
		}
	case key.Matches(km, keys.Project):
		c.projectIdx = (c.projectIdx + 1) % (len(c.projects) + 1)
		c.cursor = 0
		return c, c.refresh()
	case key.Matches(km, keys.Tags):
		if len(c.tags) > 0 {
			c.tagPicking = true
		}
	case key.Matches(km, keys.Delete):
		if len(c.commands) > 0 {
			cmd := c.commands[c.cursor]
			if err := c.store.DeleteCommand(cmd.ID); err != nil {
				return c, errorCmd(err)
			}
			return c, tea.Batch(c.refresh(), statusCmd("Deleted %s", cmd.Name))
		}
	}
	return c, nil
}

// applyData replaces the lists and keeps the project filter on the same
// project when the project list changed underneath it.
func (c *commandsModel) applyData(msg commandsDataMsg) {
	var selected int64
	if c.projectIdx > 0 && c.projectIdx <= len(c.projects) {
		selected = c.projects[c.projectIdx-1].ID
	}
	c.projects = msg.projects
	c.projectIdx = 0
	for i, p := range c.projects {
		if p.ID == selected {
			c.projectIdx = i + 1
		}
	}

	c.tags = msg.tags
	c.tagIDs = slices.DeleteFunc(slices.Clone(c.tagIDs), func(id int64) bool {
		return !slices.ContainsFunc(c.tags, func(t store.Tag) bool { return t.ID == id })
	})
	if c.tagCursor >= len(c.tags) {
		c.tagCursor = max(0, len(c.tags)-1)
	}

	c.commands = msg.commands
	if c.cursor >= len(c.commands) {
		c.cursor = max(0, len(c.commands)-1)
	}
}

func (c commandsModel) openDetail(cmd store.Command) (commandsModel, tea.Cmd) {
	c.detail = newDetailModel(c.runner, &cmd)
	c.detail.setSize(c.width, c.height)
	c.inDetail = true
	var teaCmd tea.Cmd
	c.detail, teaCmd = c.detail.showForm()
	return c, teaCmd
}

func (c commandsModel) openEditor(cmd *store.Command) (commandsModel, tea.Cmd) {
	var teaCmd tea.Cmd
	c.editor, teaCmd = newEditorModel(c.store, c.projects, cmd)
	c.editor.setSize(c.width)
	c.inEditor = true
	return c, teaCmd
}

func (c commandsModel) updateTagPicker(msg tea.KeyMsg) (commandsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left):
		if c.tagCursor > 0 {
			c.tagCursor--
		}
	case key.Matches(msg, keys.Right):
		if c.tagCursor < len(c.tags)-1 {
			c.tagCursor++
		}
	case key.Matches(msg, keys.Toggle):
		if c.tagCursor < len(c.tags) {
			c.tagIDs = toggleID(c.tagIDs, c.tags[c.tagCursor].ID)
			c.cursor = 0
			return c, c.refresh()
		}
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Back), key.Matches(msg, keys.Tags):
		c.tagPicking = false
	}
	return c, nil
}

// toggleID returns a new slice with id added or removed.
func toggleID(ids []int64, id int64) []int64 {
	if slices.Contains(ids, id) {
		return slices.DeleteFunc(slices.Clone(ids), func(v int64) bool { return v == id })
	}
	out := append(slices.Clone(ids), id)
	slices.Sort(out)
	return out
}

func (c commandsModel) view() string {
	if c.inEditor {
		return c.editor.view()
	}
	if c.inDetail {
		return c.detail.view()
	}

	w := c.width - 4
	rows := []string{titleStyle.Render("Commands"), "", c.renderFilters(), ""}

	if len(c.commands) == 0 {
		msg := "No commands yet. Press n to create one or import a bundle from Settings."
		if !c.filter().IsZero() {
			msg = "No commands match the current filter."
		}
		rows = append(rows, mutedStyle.Render(msg))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	names := make(map[int64]string, len(c.projects))
	for _, p := range c.projects {
		names[p.ID] = p.Name
	}

	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %-20s %s", "Name", "Projects", "Tags")))
	for i, cmd := range c.commands {
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		projects := "(all)"
		if !cmd.Global() {
			var ps []string
			for _, id := range cmd.ProjectIDs {
				ps = append(ps, names[id])
			}
			projects = strings.Join(ps, ", ")
		}
		row := style.Render(fmt.Sprintf("%s%-28s %-20s", cursor, truncate(cmd.Name, 28), truncate(projects, 20)))
		rows = append(rows, row+" "+mutedStyle.Render(strings.Join(cmd.Tags, ", ")))
	}

	if sel := c.commands[c.cursor]; sel.Summary != "" {
		rows = append(rows, "", subtitleStyle.Render("  "+sel.Summary))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: open  n: new  e: edit  p: project  t: tags  d: delete"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (c commandsModel) renderFilters() string {
	project := "all projects"
	if c.projectIdx > 0 && c.projectIdx <= len(c.projects) {
		project = c.projects[c.projectIdx-1].Name
	}
	line := mutedStyle.Render("Project: ") + highlightStyle.Render(project)

	if len(c.tags) == 0 {
		return line
	}
	chips := make([]string, len(c.tags))
	for i, t := range c.tags {
		style := tagOffStyle
		if slices.Contains(c.tagIDs, t.ID) {
			style = tagOnStyle
		}
		label := t.Name
		if c.tagPicking && i == c.tagCursor {
			label = "[" + label + "]"
		}
		chips[i] = style.Render(label)
	}
	line += mutedStyle.Render("   Tags: ") + strings.Join(chips, " ")
	if c.tagPicking {
		line += mutedStyle.Render("   ←/→ move  space toggle  enter done")
	}
	return line
}
