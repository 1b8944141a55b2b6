package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const tagColumns = `id, codeindex, name, created_at, updated_at`

func scanTag(row interface{ Scan(...any) error }) (Tag, error) {
	var t Tag
	var codeIndex sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&t.ID, &codeIndex, &t.Name, &createdAt, &updatedAt); err != nil {
		return t, err
	}
	t.CodeIndex = codeIndex.String
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

// CreateTag inserts a tag. Names are unique; a duplicate name is an error.
func (s *Store) CreateTag(codeIndex, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("insert tag: empty name")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO tags (codeindex, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		nullString(codeIndex), name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTag(id)
}

func (s *Store) GetTag(id int64) (*Tag, error) {
	t, err := scanTag(s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("tag", id, err)
	}
	return &t, nil
}

func (s *Store) GetTagByName(name string) (*Tag, error) {
	t, err := scanTag(s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name))
	if err != nil {
		return nil, notFound("tag", name, err)
	}
	return &t, nil
}

func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT ` + tagColumns + ` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) UpdateTag(id int64, codeIndex, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE tags SET codeindex = ?, name = ?, updated_at = ? WHERE id = ?`,
		nullString(codeIndex), strings.TrimSpace(name), now, id,
	)
	if err != nil {
		return fmt.Errorf("update tag %d: %w", id, err)
	}
	return requireRow(res, "tag", id)
}

// DeleteTag removes the tag and its command associations.
func (s *Store) DeleteTag(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	return requireRow(res, "tag", id)
}

// GetOrCreateTag returns the id of the tag called name, creating it if
// needed. The unique name constraint makes the insert a no-op for a name
// that another caller created first; the reread then picks that row up.
func (s *Store) GetOrCreateTag(name string) (int64, error) {
	return getOrCreateTag(s.db, name)
}

func getOrCreateTag(q querier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("get or create tag: empty name")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := q.Exec(
		`INSERT INTO tags (name, created_at, updated_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		name, now, now,
	); err != nil {
		return 0, fmt.Errorf("insert tag %q: %w", name, err)
	}
	var id int64
	if err := q.QueryRow(`SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("reread tag %q: %w", name, err)
	}
	return id, nil
}

// TagIDs resolves tag names to ids. Unknown names are reported as ErrNotFound.
func (s *Store) TagIDs(names ...string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		t, err := s.GetTagByName(n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// CommandCountsByTag lists every tag with the number of commands carrying it.
func (s *Store) CommandCountsByTag() ([]TagCount, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.codeindex, t.name, t.created_at, t.updated_at, COUNT(ct.command_id)
		FROM tags t
		LEFT JOIN command_tags ct ON ct.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		var codeIndex sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&tc.Tag.ID, &codeIndex, &tc.Tag.Name, &createdAt, &updatedAt, &tc.Commands); err != nil {
			return nil, err
		}
		tc.Tag.CodeIndex = codeIndex.String
		tc.Tag.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tc.Tag.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}
