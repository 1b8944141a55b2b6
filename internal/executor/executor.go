// Package executor runs rendered command strings through an embedded POSIX
// shell interpreter.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sadopc/cmdvault/internal/logging"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type Executor struct {
	// Timeout bounds a single run. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Env holds extra KEY=VALUE pairs layered over the process environment.
	Env []string
}

// Result never carries a Go error: failures are described in Error while
// whatever output was produced is still returned.
type Result struct {
	OK       bool
	ExitCode int
	Stdout   string
	Stderr   string
	Error    string
	Duration time.Duration
}

func New(timeout time.Duration) *Executor {
	return &Executor{Timeout: timeout}
}

func parse(command string) (*syntax.File, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return prog, nil
}

// Check reports whether command is syntactically valid without running it.
func (e *Executor) Check(command string) error {
	_, err := parse(command)
	return err
}

// Run executes command in dir, or in the current directory when dir is empty.
func (e *Executor) Run(ctx context.Context, command, dir string) Result {
	start := time.Now()
	res := e.run(ctx, command, dir)
	res.Duration = time.Since(start)

	logging.Info().
		Str("dir", dir).
		Bool("ok", res.OK).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("command executed")
	return res
}

func (e *Executor) run(ctx context.Context, command, dir string) Result {
	prog, err := parse(command)
	if err != nil {
		return Result{ExitCode: -1, Error: err.Error()}
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.StdIO(nil, &stdout, &stderr),
		interp.Env(expand.ListEnviron(append(os.Environ(), e.Env...)...)),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return Result{ExitCode: -1, Error: fmt.Sprintf("working directory: %v", err)}
	}

	err = runner.Run(ctx, prog)
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var status interp.ExitStatus
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.Error = fmt.Sprintf("timed out after %s", e.Timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		res.ExitCode = -1
		res.Error = "canceled"
	case err == nil:
		res.OK = true
	case errors.As(err, &status):
		res.ExitCode = int(status)
		res.Error = fmt.Sprintf("exit status %d", status)
	default:
		res.ExitCode = -1
		res.Error = err.Error()
	}
	return res
}
