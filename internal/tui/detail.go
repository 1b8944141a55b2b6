package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/executor"
	"github.com/sadopc/cmdvault/internal/runner"
	"github.com/sadopc/cmdvault/internal/store"
)

// detailModel shows one command: the variable form, a live preview of the
// rendered step and the output of the last run.
type detailModel struct {
	runner *runner.Runner
	width  int
	height int

	cmd  *store.Command
	step int

	// Form values as pointers (survive value copies). Values are keyed by
	// variable name and shared between steps.
	values   map[string]*string
	override *string
	dir      *string
	dirs     []store.Project

	formActive bool
	form       *huh.Form

	running bool
	result  *executor.Result
	run     *store.Run
	err     error
}

func newDetailModel(r *runner.Runner, c *store.Command) detailModel {
	override, dir := "", ""
	d := detailModel{
		runner:   r,
		cmd:      c,
		values:   make(map[string]*string),
		override: &override,
		dir:      &dir,
	}
	dirs, err := r.WorkDirs(c)
	if err != nil {
		d.err = err
		return d
	}
	d.dirs = dirs
	if len(dirs) > 0 {
		*d.dir = dirs[0].Path
	}
	return d
}

func (d *detailModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d detailModel) currentStep() (command.Step, bool) {
	if d.step < 0 || d.step >= len(d.cmd.Steps) {
		return command.Step{}, false
	}
	return d.cmd.Steps[d.step], true
}

func (d detailModel) currentValues() command.Values {
	values := make(command.Values, len(d.values))
	for name, v := range d.values {
		values[name] = *v
	}
	return values
}

func (d detailModel) prepare() (*runner.Prepared, error) {
	return d.runner.Prepare(d.cmd, d.step, d.currentValues())
}

// ensureValues allocates a value for every variable of the current step.
// Selects start on their first option so the preview matches the form.
func (d detailModel) ensureValues() {
	st, ok := d.currentStep()
	if !ok {
		return
	}
	for _, v := range st.Variables {
		if _, ok := d.values[v.Name]; ok {
			continue
		}
		val := ""
		if opts := variableOptions(v); len(opts) > 0 {
			val = opts[0]
		}
		d.values[v.Name] = &val
	}
}

func variableOptions(v command.Variable) []string {
	switch v.Type {
	case command.TypeOption:
		return v.Options
	case command.TypeBoolean:
		return []string{"false", "true"}
	}
	return nil
}

func variableField(v command.Variable, value *string) huh.Field {
	title := v.Name
	if v.Format != command.FormatNone {
		title += " (" + string(v.Format) + ")"
	}
	if opts := variableOptions(v); len(opts) > 0 {
		return huh.NewSelect[string]().
			Title(title).
			Description(v.Detail).
			Options(huh.NewOptions(opts...)...).
			Value(value)
	}
	input := huh.NewInput().Title(title).Description(v.Detail).Value(value)
	if v.Type == command.TypeNumber {
		input = input.Placeholder("number").Validate(func(s string) error {
			return command.ValidateValue(v, s)
		})
	}
	return input
}

// overrideCheck accepts an empty override and otherwise requires text the
// shell parser accepts.
func overrideCheck(e *executor.Executor) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return e.Check(s)
	}
}

func (d detailModel) showForm() (detailModel, tea.Cmd) {
	st, ok := d.currentStep()
	if !ok {
		return d, nil
	}
	d.ensureValues()

	var groups []*huh.Group
	if len(st.Variables) > 0 {
		fields := make([]huh.Field, 0, len(st.Variables))
		for _, v := range st.Variables {
			fields = append(fields, variableField(v, d.values[v.Name]))
		}
		groups = append(groups, huh.NewGroup(fields...).Title("Variables"))
	}

	dirOptions := []huh.Option[string]{huh.NewOption("current directory", "")}
	for _, p := range d.dirs {
		dirOptions = append(dirOptions, huh.NewOption(fmt.Sprintf("%s  %s", p.Name, p.Path), p.Path))
	}
	groups = append(groups, huh.NewGroup(
		huh.NewInput().
			Title("Command override").
			Description("Runs this text instead of the rendered command when not empty").
			Validate(overrideCheck(d.runner.Exec)).
			Value(d.override),
		huh.NewSelect[string]().
			Title("Working directory").
			Options(dirOptions...).
			Value(d.dir),
	).Title("Run"))

	d.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	if d.width > 10 {
		d.form = d.form.WithWidth(d.width - 10)
	}
	d.formActive = true
	return d, d.form.Init()
}

func (d detailModel) execute() (detailModel, tea.Cmd) {
	p, err := d.prepare()
	if err != nil {
		d.err = err
		return d, errorCmd(err)
	}
	d.running = true
	d.err = nil
	r, override, dir := d.runner, *d.override, *d.dir
	return d, func() tea.Msg {
		run, res, err := r.Execute(context.Background(), p, override, dir)
		return runDoneMsg{run: run, result: res, err: err}
	}
}

func (d detailModel) update(msg tea.Msg) (detailModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case runDoneMsg:
		return d.finishRun(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return d.showForm()
		case key.Matches(msg, keys.Run):
			if !d.running {
				return d.execute()
			}
		case key.Matches(msg, keys.Left):
			if d.step > 0 {
				d.step--
				d.result, d.run, d.err = nil, nil, nil
			}
		case key.Matches(msg, keys.Right):
			if d.step < len(d.cmd.Steps)-1 {
				d.step++
				d.result, d.run, d.err = nil, nil, nil
			}
		}
	}
	return d, nil
}

func (d detailModel) finishRun(msg runDoneMsg) (detailModel, tea.Cmd) {
	d.running = false
	d.run = msg.run
	d.err = msg.err
	d.result = nil
	if msg.err != nil && (errors.Is(msg.err, runner.ErrMissingValues) || errors.Is(msg.err, runner.ErrEmptyCommand)) {
		return d, errorCmd(msg.err)
	}
	res := msg.result
	d.result = &res
	if msg.err != nil {
		return d, errorCmd(msg.err)
	}
	if !res.OK {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("%s failed: %s", d.cmd.Name, res.Error), isError: true}
		}
	}
	return d, statusCmd("%s finished in %s", d.cmd.Name, formatDuration(res.Duration))
}

func (d detailModel) updateForm(msg tea.Msg) (detailModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	switch d.form.State {
	case huh.StateCompleted:
		d.formActive = false
		d.form = nil
		return d.execute()
	case huh.StateAborted:
		d.formActive = false
		d.form = nil
		return d, nil
	}
	return d, cmd
}

func (d detailModel) view() string {
	w := d.width - 4
	c := d.cmd

	title := titleStyle.Render(c.Name)
	if len(c.Steps) > 1 {
		st, _ := d.currentStep()
		title += mutedStyle.Render(fmt.Sprintf("  step %d/%d %s", d.step+1, len(c.Steps), st.Name))
	}
	rows := []string{title}
	if c.Summary != "" {
		rows = append(rows, subtitleStyle.Render(c.Summary))
	}
	rows = append(rows, "")

	if d.formActive && d.form != nil {
		rows = append(rows, d.form.View(), "")
	}
	rows = append(rows, d.renderPreview()...)

	if out := d.renderOutput(); out != "" {
		rows = append(rows, "", out)
	}

	rows = append(rows, "")
	if d.formActive {
		rows = append(rows, mutedStyle.Render("  enter: next/run  esc: close form"))
	} else {
		hint := "  enter: edit values  r: run  esc: back"
		if len(c.Steps) > 1 {
			hint += "  ←/→: step"
		}
		rows = append(rows, mutedStyle.Render(hint))
	}

	style := panelStyle
	if d.formActive {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (d detailModel) renderPreview() []string {
	if len(d.cmd.Steps) == 0 {
		return []string{warningStyle.Render("This command has no steps.")}
	}
	p, err := d.prepare()
	if err != nil {
		return []string{errorStyle.Render(err.Error())}
	}

	var rows []string
	if strings.TrimSpace(*d.override) != "" {
		rows = append(rows,
			previewStyle.Render("$ "+*d.override),
			mutedStyle.Render("  override replaces: "+p.Rendered),
		)
	} else {
		rows = append(rows, previewStyle.Render("$ "+p.Rendered))
	}
	if *d.dir != "" {
		rows = append(rows, mutedStyle.Render("  in "+*d.dir))
	}
	if len(p.Missing) > 0 {
		rows = append(rows, warningStyle.Render("  missing: "+strings.Join(p.Missing, ", ")))
	}
	for _, name := range slices.Sorted(maps.Keys(p.Invalid)) {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  %s: %s", name, p.Invalid[name])))
	}
	for _, name := range p.Unresolved {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  placeholder {{%s}} has no variable", name)))
	}
	return rows
}

func (d detailModel) renderOutput() string {
	if d.running {
		return highlightStyle.Render("running…")
	}
	if d.result == nil {
		if d.err != nil {
			return errorStyle.Render(d.err.Error())
		}
		return ""
	}

	res := d.result
	var status string
	if res.OK {
		status = successStyle.Render(fmt.Sprintf("✓ exit 0 in %s", formatDuration(res.Duration)))
	} else {
		status = errorStyle.Render(fmt.Sprintf("✗ %s after %s", res.Error, formatDuration(res.Duration)))
	}
	if d.err != nil {
		status += "  " + errorStyle.Render(d.err.Error())
	}

	lines := max(3, d.height-20)
	rows := []string{status}
	if res.Stdout != "" {
		rows = append(rows, outputStyle.Render(lastLines(res.Stdout, lines)))
	}
	if res.Stderr != "" {
		rows = append(rows, outputStyle.Foreground(colorWarning).Render(lastLines(res.Stderr, lines)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
