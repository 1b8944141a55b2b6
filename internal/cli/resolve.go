package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/store"
)

// resolveCommand finds a command by numeric id, code-index or exact name,
// in that order. An unknown reference suggests the closest name.
func resolveCommand(s *store.Store, ref string) (*store.Command, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		c, err := s.GetCommand(id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	c, err := s.GetCommandByCodeIndex(ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	matches, err := s.FindCommandsByName(ref)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = strconv.FormatInt(m.ID, 10)
		}
		return nil, fmt.Errorf("%q matches %d commands (ids %s); use an id", ref, len(matches), strings.Join(ids, ", "))
	}

	all, err := s.ListCommands(command.Filter{})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	if best := suggest(ref, names); best != "" {
		return nil, fmt.Errorf("command %q: %w (did you mean %q?)", ref, store.ErrNotFound, best)
	}
	return nil, fmt.Errorf("command %q: %w", ref, store.ErrNotFound)
}

// suggest returns the candidate closest to ref by edit distance, or "" when
// nothing is reasonably close.
func suggest(ref string, candidates []string) string {
	best, bestDist := "", -1
	lower := strings.ToLower(ref)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	limit := len(ref) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

// resolveProject finds a project by numeric id, code-index or exact name.
func resolveProject(s *store.Store, ref string) (*store.Project, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if p, err := s.GetProject(id); err == nil {
			return p, nil
		}
	}
	if p, err := s.GetProjectByCodeIndex(ref); err == nil {
		return p, nil
	}
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}
	var names []string
	for i := range projects {
		if projects[i].Name == ref {
			return &projects[i], nil
		}
		names = append(names, projects[i].Name)
	}
	if best := suggest(ref, names); best != "" {
		return nil, fmt.Errorf("project %q: %w (did you mean %q?)", ref, store.ErrNotFound, best)
	}
	return nil, fmt.Errorf("project %q: %w", ref, store.ErrNotFound)
}

// resolveTag finds a tag by numeric id or name.
func resolveTag(s *store.Store, ref string) (*store.Tag, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if t, err := s.GetTag(id); err == nil {
			return t, nil
		}
	}
	t, err := s.GetTagByName(ref)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	tags, err := s.ListTags()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	if best := suggest(ref, names); best != "" {
		return nil, fmt.Errorf("tag %q: %w (did you mean %q?)", ref, store.ErrNotFound, best)
	}
	return nil, fmt.Errorf("tag %q: %w", ref, store.ErrNotFound)
}

// parseValues turns repeated name=value flags into values. The value may be
// empty or contain '='.
func parseValues(pairs []string) (command.Values, error) {
	values := command.Values{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--set %q: expected name=value", p)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}
