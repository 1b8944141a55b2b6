package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/store"
)

type projectsModel struct {
	store  *store.Store
	width  int
	height int

	projects []store.Project
	cursor   int

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit"

	// Form field pointers (survive value copies)
	formName *string
	formCode *string
	formPath *string

	editingID int64
}

func newProjectsModel(s *store.Store) projectsModel {
	name, code, path := "", "", ""
	return projectsModel{
		store:    s,
		formName: &name,
		formCode: &code,
		formPath: &path,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects []store.Project
	err      error
}

func (p projectsModel) refresh() tea.Cmd {
	s := p.store
	return func() tea.Msg {
		projects, err := s.ListProjects()
		return projectsDataMsg{projects: projects, err: err}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(projectsDataMsg); ok {
		if msg.err != nil {
			return p, errorCmd(msg.err)
		}
		p.projects = msg.projects
		if p.cursor >= len(p.projects) {
			p.cursor = max(0, len(p.projects)-1)
		}
		return p, nil
	}
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.projects)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.New):
			return p.showForm(nil)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if len(p.projects) > 0 {
				return p.showForm(&p.projects[p.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if len(p.projects) > 0 {
				proj := p.projects[p.cursor]
				if err := p.store.DeleteProject(proj.ID); err != nil {
					return p, errorCmd(err)
				}
				return p, tea.Batch(p.refresh(), statusCmd("Deleted project %s", proj.Name))
			}
		}
	}
	return p, nil
}

func requiredName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

// showForm opens the project form, prefilled from proj when editing.
func (p projectsModel) showForm(proj *store.Project) (projectsModel, tea.Cmd) {
	*p.formName, *p.formCode, *p.formPath = "", "", ""
	p.formType = "new"
	if proj != nil {
		*p.formName, *p.formCode, *p.formPath = proj.Name, proj.CodeIndex, proj.Path
		p.formType = "edit"
		p.editingID = proj.ID
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(p.formName).Validate(requiredName),
			huh.NewInput().Title("Code index").Description("Matches the project on import; may be empty").Value(p.formCode),
			huh.NewInput().Title("Path").Description("Working directory for this project's commands").Value(p.formPath),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	switch p.form.State {
	case huh.StateCompleted:
		p.formActive = false
		return p, tea.Batch(p.save(), p.refresh())
	case huh.StateAborted:
		p.formActive = false
		p.form = nil
		return p, nil
	}
	return p, cmd
}

func (p projectsModel) save() tea.Cmd {
	name := strings.TrimSpace(*p.formName)
	code := strings.TrimSpace(*p.formCode)
	path := strings.TrimSpace(*p.formPath)

	if p.formType == "edit" {
		if err := p.store.UpdateProject(p.editingID, code, name, path); err != nil {
			return errorCmd(err)
		}
		return statusCmd("Updated project %s", name)
	}
	if _, err := p.store.CreateProject(code, name, path); err != nil {
		return errorCmd(err)
	}
	return statusCmd("Created project %s", name)
}

func (p projectsModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		if p.formType == "edit" {
			title = titleStyle.Render("Edit Project")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return activePanelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Projects")
	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-16s %-24s %s", "Code", "Name", "Path")))
	for i, proj := range p.projects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-16s %-24s %s",
			cursor, truncate(orDash(proj.CodeIndex), 16), truncate(proj.Name, 24), orDash(proj.Path))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
