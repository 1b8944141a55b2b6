package store

import (
	"time"

	"github.com/sadopc/cmdvault/internal/command"
)

type Project struct {
	ID        int64
	CodeIndex string
	Name      string
	Path      string // working directory for commands run in this project
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Tag struct {
	ID        int64
	CodeIndex string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Command is a stored command template. ProjectIDs empty means the command
// applies to every project.
type Command struct {
	ID         int64
	CodeIndex  string
	Name       string
	Detail     string
	Summary    string
	Steps      []command.Step
	ProjectIDs []int64
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Global reports whether the command is not tied to any project.
func (c Command) Global() bool {
	return len(c.ProjectIDs) == 0
}

type Setting struct {
	Key   string
	Value string
}

// Run is one recorded execution of a rendered command.
type Run struct {
	ID          string
	CommandID   *int64
	CommandName string
	StepIndex   int
	Rendered    string
	WorkDir     string
	OK          bool
	ExitCode    int
	Stdout      string
	Stderr      string
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

// RunFilter is used to filter runs in queries.
type RunFilter struct {
	CommandID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

// DailyRunSummary counts runs per day by outcome.
type DailyRunSummary struct {
	Date   string
	OK     int
	Failed int
}

// TagCount pairs a tag with the number of commands carrying it.
type TagCount struct {
	Tag      Tag
	Commands int
}
