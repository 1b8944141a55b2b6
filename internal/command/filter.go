package command

import "slices"

// Filter selects command templates by project and tags.
//
// A nil ProjectID matches every template. A set ProjectID matches templates
// associated with that project and global templates (no projects at all).
// A non-empty TagIDs matches templates sharing at least one tag. When both
// are set the two rules are combined with AND.
type Filter struct {
	ProjectID *int64
	TagIDs    []int64
}

// ForProject returns a copy of f restricted to the given project.
func (f Filter) ForProject(id int64) Filter {
	f.ProjectID = &id
	return f
}

// WithTags returns a copy of f restricted to templates sharing any of ids.
func (f Filter) WithTags(ids ...int64) Filter {
	f.TagIDs = append(slices.Clone(f.TagIDs), ids...)
	return f
}

// IsZero reports whether f matches every template.
func (f Filter) IsZero() bool {
	return f.ProjectID == nil && len(f.TagIDs) == 0
}

// Match evaluates the filter against a template's association sets.
func (f Filter) Match(projectIDs, tagIDs []int64) bool {
	if f.ProjectID != nil && len(projectIDs) > 0 && !slices.Contains(projectIDs, *f.ProjectID) {
		return false
	}
	if len(f.TagIDs) > 0 {
		for _, id := range tagIDs {
			if slices.Contains(f.TagIDs, id) {
				return true
			}
		}
		return false
	}
	return true
}
