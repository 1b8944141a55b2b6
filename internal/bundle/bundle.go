// Package bundle moves projects and commands in and out of the store as a
// JSON document keyed by code-index.
package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/logging"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/tidwall/jsonc"
)

type Bundle struct {
	Projects []Project `json:"projects"`
	Commands []Command `json:"commands"`
}

type Project struct {
	CodeIndex string `json:"codeindex"`
	Name      string `json:"name"`
	Path      string `json:"path"`
}

type Command struct {
	CodeIndex string         `json:"codeindex"`
	Name      string         `json:"name"`
	Detail    string         `json:"detail"`
	Summary   string         `json:"resumen"`
	Steps     []command.Step `json:"steps"`
	Projects  []string       `json:"project"`
	Tags      []string       `json:"tags"`
}

// Result reports an import. Counts cover what was written before any failure;
// an import that stops half way is not rolled back.
type Result struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Projects int    `json:"projects"`
	Commands int    `json:"commands"`
	Skipped  int    `json:"skipped"`
}

func failed(r Result, err error) Result {
	r.Success = false
	r.Error = err.Error()
	return r
}

// Export collects every project and command that carries a code-index.
// Store ids never leave the store; project references become code-indexes.
func Export(s *store.Store) (*Bundle, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("export projects: %w", err)
	}
	cmds, err := s.ListCommands(command.Filter{})
	if err != nil {
		return nil, fmt.Errorf("export commands: %w", err)
	}

	codes := make(map[int64]string, len(projects))
	b := &Bundle{Projects: []Project{}, Commands: []Command{}}
	for _, p := range projects {
		codes[p.ID] = p.CodeIndex
		if p.CodeIndex == "" {
			continue
		}
		b.Projects = append(b.Projects, Project{CodeIndex: p.CodeIndex, Name: p.Name, Path: p.Path})
	}

	for _, c := range cmds {
		if c.CodeIndex == "" {
			continue
		}
		out := Command{
			CodeIndex: c.CodeIndex,
			Name:      c.Name,
			Detail:    c.Detail,
			Summary:   c.Summary,
			Steps:     c.Steps,
			Projects:  []string{},
			Tags:      c.Tags,
		}
		for _, pid := range c.ProjectIDs {
			if code := codes[pid]; code != "" {
				out.Projects = append(out.Projects, code)
			}
		}
		if out.Tags == nil {
			out.Tags = []string{}
		}
		b.Commands = append(b.Commands, out)
	}
	return b, nil
}

// Marshal renders b as indented JSON.
func Marshal(b *Bundle) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	return data, nil
}

// Parse decodes a bundle. Comments and trailing commas are accepted.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(jsonc.ToJSON(data), &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	return &b, nil
}

// ParseCommand decodes a single command document in the bundle's command
// shape.
func ParseCommand(data []byte) (*Command, error) {
	var c Command
	if err := json.Unmarshal(jsonc.ToJSON(data), &c); err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}
	return &c, nil
}

// ToStore converts c to a store command. Project code-indexes that match no
// project are dropped.
func ToStore(s *store.Store, c Command) store.Command {
	cmd := store.Command{
		CodeIndex: c.CodeIndex,
		Name:      c.Name,
		Detail:    c.Detail,
		Summary:   c.Summary,
		Steps:     c.Steps,
		Tags:      c.Tags,
	}
	for _, code := range c.Projects {
		p, err := s.GetProjectByCodeIndex(code)
		if err != nil {
			logging.Debug().Str("command", c.CodeIndex).Str("project", code).Msg("unknown project reference skipped")
			continue
		}
		cmd.ProjectIDs = append(cmd.ProjectIDs, p.ID)
	}
	return cmd
}

// Import upserts the bundle's projects and then its commands by code-index.
// Entries without a code-index are skipped, as are project references that
// resolve to no project. Tags are created as needed.
func Import(s *store.Store, data []byte) Result {
	b, err := Parse(data)
	if err != nil {
		return failed(Result{}, err)
	}
	return Apply(s, b)
}

// Apply imports an already decoded bundle.
func Apply(s *store.Store, b *Bundle) Result {
	var r Result
	for _, p := range b.Projects {
		if p.CodeIndex == "" {
			r.Skipped++
			continue
		}
		if _, err := s.UpsertProjectByCodeIndex(p.CodeIndex, p.Name, p.Path); err != nil {
			return failed(r, err)
		}
		r.Projects++
	}

	for _, c := range b.Commands {
		if c.CodeIndex == "" {
			r.Skipped++
			continue
		}
		cmd := ToStore(s, c)
		if _, err := s.UpsertCommandByCodeIndex(cmd); err != nil {
			return failed(r, fmt.Errorf("import command %q: %w", c.CodeIndex, err))
		}
		r.Commands++
	}

	r.Success = true
	logging.Info().Int("projects", r.Projects).Int("commands", r.Commands).Int("skipped", r.Skipped).Msg("bundle imported")
	return r
}
