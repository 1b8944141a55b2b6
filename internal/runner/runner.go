// Package runner turns a stored command plus variable values into an
// executed, recorded run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/executor"
	"github.com/sadopc/cmdvault/internal/logging"
	"github.com/sadopc/cmdvault/internal/store"
)

var (
	ErrNoSteps       = errors.New("command has no steps")
	ErrMissingValues = errors.New("missing variable values")
	ErrEmptyCommand  = errors.New("nothing to run")
)

type Runner struct {
	Store *store.Store
	Exec  *executor.Executor
}

func New(s *store.Store, e *executor.Executor) *Runner {
	return &Runner{Store: s, Exec: e}
}

// Prepared is one rendered step, ready to run once Missing is empty.
type Prepared struct {
	Command    *store.Command
	StepIndex  int
	Rendered   string
	Missing    []string
	Unresolved []string
	// Invalid holds advisory per-variable problems (type or format).
	Invalid map[string]string
}

func (p *Prepared) Step() command.Step {
	return p.Command.Steps[p.StepIndex]
}

// Ready reports whether every declared variable has a value.
func (p *Prepared) Ready() bool {
	return len(p.Missing) == 0
}

// Prepare renders step stepIndex of cmd with values.
func (r *Runner) Prepare(cmd *store.Command, stepIndex int, values command.Values) (*Prepared, error) {
	if len(cmd.Steps) == 0 {
		return nil, fmt.Errorf("prepare %q: %w", cmd.Name, ErrNoSteps)
	}
	if stepIndex < 0 || stepIndex >= len(cmd.Steps) {
		return nil, fmt.Errorf("prepare %q: step %d out of range (command has %d)", cmd.Name, stepIndex, len(cmd.Steps))
	}
	st := cmd.Steps[stepIndex]
	p := &Prepared{
		Command:    cmd,
		StepIndex:  stepIndex,
		Rendered:   command.RenderStep(st, values),
		Missing:    command.Missing(st.Variables, values),
		Unresolved: command.Unresolved(st.Command, st.Variables),
	}
	for _, v := range st.Variables {
		raw := values[v.Name]
		if err := command.ValidateValue(v, raw); err != nil {
			if p.Invalid == nil {
				p.Invalid = map[string]string{}
			}
			p.Invalid[v.Name] = err.Error()
			continue
		}
		if strings.TrimSpace(raw) != "" && !command.ValidateFormat(raw, v.Format) {
			if p.Invalid == nil {
				p.Invalid = map[string]string{}
			}
			p.Invalid[v.Name] = fmt.Sprintf("not %s; will be converted", v.Format)
		}
	}
	return p, nil
}

// WorkDirs returns the projects of cmd that have a path, in id order. These
// are the candidate working directories for a run.
func (r *Runner) WorkDirs(cmd *store.Command) ([]store.Project, error) {
	var dirs []store.Project
	for _, id := range cmd.ProjectIDs {
		p, err := r.Store.GetProject(id)
		if err != nil {
			return nil, err
		}
		if p.Path != "" {
			dirs = append(dirs, *p)
		}
	}
	return dirs, nil
}

// Execute runs p in dir and records the run. A non-empty override replaces
// the rendered text and skips the missing-values check.
func (r *Runner) Execute(ctx context.Context, p *Prepared, override, dir string) (*store.Run, executor.Result, error) {
	text := p.Rendered
	if strings.TrimSpace(override) != "" {
		text = override
	} else if !p.Ready() {
		return nil, executor.Result{}, fmt.Errorf("%w: %s", ErrMissingValues, strings.Join(p.Missing, ", "))
	}
	if strings.TrimSpace(text) == "" {
		return nil, executor.Result{}, ErrEmptyCommand
	}

	started := time.Now()
	res := r.Exec.Run(ctx, text, dir)

	run, err := r.Store.RecordRun(store.Run{
		CommandID:   &p.Command.ID,
		CommandName: p.Command.Name,
		StepIndex:   p.StepIndex,
		Rendered:    text,
		WorkDir:     dir,
		OK:          res.OK,
		ExitCode:    res.ExitCode,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
		Error:       res.Error,
		StartedAt:   started,
		Duration:    res.Duration,
	})
	if err != nil {
		logging.Error().Err(err).Int64("command_id", p.Command.ID).Msg("record run failed")
		return nil, res, err
	}
	logging.Debug().Str("run_id", run.ID).Int64("command_id", p.Command.ID).Msg("run recorded")
	return run, res, nil
}
