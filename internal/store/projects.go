package store

import (
	"database/sql"
	"fmt"
	"time"
)

const projectColumns = `id, codeindex, name, path, created_at, updated_at`

func (s *Store) CreateProject(codeIndex, name, path string) (*Project, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO projects (codeindex, name, path, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		nullString(codeIndex), name, path, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProject(id)
}

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	var codeIndex sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &codeIndex, &p.Name, &p.Path, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.CodeIndex = codeIndex.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

func (s *Store) GetProject(id int64) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("project", id, err)
	}
	return &p, nil
}

func (s *Store) GetProjectByCodeIndex(codeIndex string) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE codeindex = ?`, codeIndex))
	if err != nil {
		return nil, notFound("project", codeIndex, err)
	}
	return &p, nil
}

func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(id int64, codeIndex, name, path string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE projects SET codeindex = ?, name = ?, path = ?, updated_at = ? WHERE id = ?`,
		nullString(codeIndex), name, path, now, id,
	)
	if err != nil {
		return fmt.Errorf("update project %d: %w", id, err)
	}
	return requireRow(res, "project", id)
}

// DeleteProject removes the project and, through the foreign key cascade,
// its command associations.
func (s *Store) DeleteProject(id int64) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return requireRow(res, "project", id)
}

// UpsertProjectByCodeIndex updates the project with codeIndex or inserts it.
func (s *Store) UpsertProjectByCodeIndex(codeIndex, name, path string) (*Project, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO projects (codeindex, name, path, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(codeindex) DO UPDATE SET name = excluded.name, path = excluded.path, updated_at = excluded.updated_at`,
		codeIndex, name, path, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert project %q: %w", codeIndex, err)
	}
	return s.GetProjectByCodeIndex(codeIndex)
}

func requireRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
