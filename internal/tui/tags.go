package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/store"
)

type tagsModel struct {
	store  *store.Store
	width  int
	height int

	counts []store.TagCount
	cursor int

	formActive bool
	form       *huh.Form
	editing    *store.Tag

	formName *string
	formCode *string
}

func newTagsModel(s *store.Store) tagsModel {
	name, code := "", ""
	return tagsModel{store: s, formName: &name, formCode: &code}
}

func (t *tagsModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tagsDataMsg struct {
	counts []store.TagCount
	err    error
}

func (t tagsModel) refresh() tea.Cmd {
	s := t.store
	return func() tea.Msg {
		counts, err := s.CommandCountsByTag()
		return tagsDataMsg{counts: counts, err: err}
	}
}

func (t tagsModel) update(msg tea.Msg) (tagsModel, tea.Cmd) {
	if msg, ok := msg.(tagsDataMsg); ok {
		if msg.err != nil {
			return t, errorCmd(msg.err)
		}
		t.counts = msg.counts
		if t.cursor >= len(t.counts) {
			t.cursor = max(0, len(t.counts)-1)
		}
		return t, nil
	}
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.counts)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			return t.showForm(nil)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if len(t.counts) > 0 {
				tag := t.counts[t.cursor].Tag
				return t.showForm(&tag)
			}
		case key.Matches(msg, keys.Delete):
			if len(t.counts) > 0 {
				tag := t.counts[t.cursor].Tag
				if err := t.store.DeleteTag(tag.ID); err != nil {
					return t, errorCmd(err)
				}
				return t, tea.Batch(t.refresh(), statusCmd("Deleted tag %s", tag.Name))
			}
		}
	}
	return t, nil
}

func (t tagsModel) showForm(tag *store.Tag) (tagsModel, tea.Cmd) {
	*t.formName, *t.formCode = "", ""
	t.editing = tag
	if tag != nil {
		*t.formName, *t.formCode = tag.Name, tag.CodeIndex
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(t.formName).Validate(requiredName),
			huh.NewInput().Title("Code index").Value(t.formCode),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tagsModel) updateForm(msg tea.Msg) (tagsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	switch t.form.State {
	case huh.StateCompleted:
		t.formActive = false
		return t, tea.Batch(t.save(), t.refresh())
	case huh.StateAborted:
		t.formActive = false
		t.form = nil
	}
	return t, cmd
}

func (t tagsModel) save() tea.Cmd {
	name := strings.TrimSpace(*t.formName)
	code := strings.TrimSpace(*t.formCode)
	if t.editing != nil {
		if err := t.store.UpdateTag(t.editing.ID, code, name); err != nil {
			return errorCmd(err)
		}
		return statusCmd("Updated tag %s", name)
	}
	if _, err := t.store.CreateTag(code, name); err != nil {
		return errorCmd(err)
	}
	return statusCmd("Created tag %s", name)
}

func (t tagsModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := "New Tag"
		if t.editing != nil {
			title = "Edit Tag"
		}
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", t.form.View()),
		)
	}

	title := titleStyle.Render("Tags")
	if len(t.counts) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No tags yet. Press n to create one."),
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %-16s %8s", "Name", "Code", "Commands")))
	for i, c := range t.counts {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %-16s %8d",
			cursor, truncate(c.Tag.Name, 24), truncate(orDash(c.Tag.CodeIndex), 16), c.Commands)))
	}
	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
