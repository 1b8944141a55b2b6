package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/store"
)

// editorModel is the create/edit form for a command template. It edits the
// first step; any further steps are kept as they are.
type editorModel struct {
	store *store.Store
	width int

	editing *store.Command // nil when creating
	form    *huh.Form
	done    bool

	// Form values as pointers (survive value copies)
	name       *string
	code       *string
	summary    *string
	detail     *string
	tags       *string
	script     *string
	variables  *string
	projectIDs *[]int64
}

func newEditorModel(s *store.Store, projects []store.Project, c *store.Command) (editorModel, tea.Cmd) {
	var name, code, summary, detail, tags, script, variables string
	var projectIDs []int64
	if c != nil {
		name, code, summary, detail = c.Name, c.CodeIndex, c.Summary, c.Detail
		tags = strings.Join(c.Tags, ", ")
		projectIDs = slices.Clone(c.ProjectIDs)
		if len(c.Steps) > 0 {
			script = c.Steps[0].Command
			variables = formatVariableLines(c.Steps[0].Variables)
		}
	}
	e := editorModel{
		store:      s,
		editing:    c,
		name:       &name,
		code:       &code,
		summary:    &summary,
		detail:     &detail,
		tags:       &tags,
		script:     &script,
		variables:  &variables,
		projectIDs: &projectIDs,
	}

	about := huh.NewGroup(
		huh.NewInput().Title("Name").Value(e.name).Validate(requiredName),
		huh.NewInput().Title("Code index").Description("Matches the command on import; may be empty").Value(e.code),
		huh.NewInput().Title("Summary").Value(e.summary),
		huh.NewText().Title("Detail").Lines(3).Value(e.detail),
	).Title("Command")

	links := []huh.Field{
		huh.NewInput().Title("Tags").Description("Comma separated; new names are created").Value(e.tags),
	}
	if len(projects) > 0 {
		opts := make([]huh.Option[int64], len(projects))
		for i, p := range projects {
			opts[i] = huh.NewOption(p.Name, p.ID).Selected(slices.Contains(projectIDs, p.ID))
		}
		links = append([]huh.Field{
			huh.NewMultiSelect[int64]().
				Title("Projects").
				Description("None selected makes the command global").
				Options(opts...).
				Value(e.projectIDs),
		}, links...)
	}

	step := huh.NewGroup(
		huh.NewText().
			Title("Command").
			Description("Shell text; placeholders look like {{name}}").
			Lines(3).
			Value(e.script).
			Validate(requiredScript),
		huh.NewText().
			Title("Variables").
			Description("One per line: name type=option format=kebab-case options=a,b # help text").
			Lines(5).
			Value(e.variables).
			Validate(func(s string) error {
				_, err := parseVariableLines(s)
				return err
			}),
	).Title("Step")

	e.form = huh.NewForm(about, huh.NewGroup(links...).Title("Links"), step).
		WithShowHelp(true).
		WithShowErrors(true)
	return e, e.form.Init()
}

func (e *editorModel) setSize(w int) {
	e.width = w
	if e.form != nil && w > 10 {
		e.form = e.form.WithWidth(w - 10)
	}
}

func requiredScript(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("command text is required")
	}
	return nil
}

func (e editorModel) update(msg tea.Msg) (editorModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		e.done = true
		return e, nil
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	switch e.form.State {
	case huh.StateCompleted:
		e.done = true
		return e, e.save()
	case huh.StateAborted:
		e.done = true
		return e, nil
	}
	return e, cmd
}

// build assembles the command from the form values. Placeholders in the
// command text that no variable line declares become string variables.
func (e editorModel) build() (store.Command, error) {
	vars, err := parseVariableLines(*e.variables)
	if err != nil {
		return store.Command{}, err
	}
	script := strings.TrimSpace(*e.script)
	for _, name := range command.Unresolved(script, vars) {
		vars = append(vars, command.Variable{Name: name, Type: command.TypeString})
	}

	c := store.Command{
		CodeIndex:  strings.TrimSpace(*e.code),
		Name:       strings.TrimSpace(*e.name),
		Summary:    strings.TrimSpace(*e.summary),
		Detail:     strings.TrimSpace(*e.detail),
		ProjectIDs: slices.Clone(*e.projectIDs),
		Tags:       splitList(*e.tags),
	}
	first := command.Step{Command: script, Variables: vars}
	if e.editing != nil {
		c.ID = e.editing.ID
		if len(e.editing.Steps) > 0 {
			first.Name = e.editing.Steps[0].Name
			first.Detail = e.editing.Steps[0].Detail
			c.Steps = append(c.Steps, first)
			c.Steps = append(c.Steps, e.editing.Steps[1:]...)
			return c, nil
		}
	}
	c.Steps = []command.Step{first}
	return c, nil
}

func (e editorModel) save() tea.Cmd {
	c, err := e.build()
	if err != nil {
		return errorCmd(err)
	}
	if e.editing != nil {
		if err := e.store.UpdateCommand(c); err != nil {
			return errorCmd(err)
		}
		return statusCmd("Updated %s", c.Name)
	}
	if _, err := e.store.CreateCommand(c); err != nil {
		return errorCmd(err)
	}
	return statusCmd("Created %s", c.Name)
}

func (e editorModel) view() string {
	title := "New Command"
	if e.editing != nil {
		title = "Edit Command"
	}
	return activePanelStyle.Width(e.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", e.form.View()),
	)
}

// splitList splits a comma separated list, dropping blanks and repeats.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}

// parseVariableLines reads one variable per line in the form
//
//	name [type=T] [format=F] [options=a,b] [# detail]
//
// Blank lines are skipped. The type defaults to string.
func parseVariableLines(text string) ([]command.Variable, error) {
	var vars []command.Variable
	for i, line := range strings.Split(text, "\n") {
		decl, detail, _ := strings.Cut(line, "#")
		fields := strings.Fields(decl)
		if len(fields) == 0 {
			continue
		}
		v := command.Variable{
			Name:   fields[0],
			Type:   command.TypeString,
			Detail: strings.TrimSpace(detail),
		}
		for _, f := range fields[1:] {
			k, val, ok := strings.Cut(f, "=")
			if !ok {
				return nil, fmt.Errorf("line %d: expected key=value, got %q", i+1, f)
			}
			switch k {
			case "type":
				v.Type = command.VariableType(val)
			case "format":
				format, err := command.ParseFormat(val)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", i+1, err)
				}
				v.Format = format
			case "options":
				v.Options = splitList(val)
			default:
				return nil, fmt.Errorf("line %d: unknown key %q", i+1, k)
			}
		}
		vars = append(vars, v)
	}
	if err := (command.Step{Variables: vars}).Validate(); err != nil {
		return nil, err
	}
	return vars, nil
}

// formatVariableLines is the inverse of parseVariableLines.
func formatVariableLines(vars []command.Variable) string {
	lines := make([]string, 0, len(vars))
	for _, v := range vars {
		parts := []string{v.Name}
		if v.Type != "" && v.Type != command.TypeString {
			parts = append(parts, "type="+string(v.Type))
		}
		if v.Format != command.FormatNone {
			parts = append(parts, "format="+string(v.Format))
		}
		if len(v.Options) > 0 {
			parts = append(parts, "options="+strings.Join(v.Options, ","))
		}
		line := strings.Join(parts, " ")
		if v.Detail != "" {
			line += " # " + v.Detail
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
