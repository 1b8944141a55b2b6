package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/cmdvault/internal/command"
)

const commandColumns = `c.id, c.codeindex, c.name, c.detail, c.summary, c.steps, c.created_at, c.updated_at`

func scanCommand(row interface{ Scan(...any) error }) (Command, error) {
	var c Command
	var codeIndex sql.NullString
	var steps, createdAt, updatedAt string
	if err := row.Scan(&c.ID, &codeIndex, &c.Name, &c.Detail, &c.Summary, &steps, &createdAt, &updatedAt); err != nil {
		return c, err
	}
	c.CodeIndex = codeIndex.String
	if err := json.Unmarshal([]byte(steps), &c.Steps); err != nil {
		return c, fmt.Errorf("decode steps of command %d: %w", c.ID, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

func validateCommand(c Command) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("command name is required")
	}
	for i, st := range c.Steps {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func encodeSteps(steps []command.Step) (string, error) {
	if steps == nil {
		steps = []command.Step{}
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("encode steps: %w", err)
	}
	return string(b), nil
}

// CreateCommand inserts c with its project and tag associations. Tags are
// referenced by name and created on demand.
func (s *Store) CreateCommand(c Command) (*Command, error) {
	if err := validateCommand(c); err != nil {
		return nil, err
	}
	steps, err := encodeSteps(c.Steps)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.withTx(func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		res, err := tx.Exec(
			`INSERT INTO commands (codeindex, name, detail, summary, steps, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			nullString(c.CodeIndex), c.Name, c.Detail, c.Summary, steps, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert command: %w", err)
		}
		id, _ = res.LastInsertId()
		return replaceAssociations(tx, id, c.ProjectIDs, c.Tags)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCommand(id)
}

// UpdateCommand overwrites the command with c.ID. The project and tag sets
// are replaced wholesale: existing links are deleted, then c's are inserted.
func (s *Store) UpdateCommand(c Command) error {
	if err := validateCommand(c); err != nil {
		return err
	}
	steps, err := encodeSteps(c.Steps)
	if err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339)
		res, err := tx.Exec(
			`UPDATE commands SET codeindex = ?, name = ?, detail = ?, summary = ?, steps = ?, updated_at = ? WHERE id = ?`,
			nullString(c.CodeIndex), c.Name, c.Detail, c.Summary, steps, now, c.ID,
		)
		if err != nil {
			return fmt.Errorf("update command %d: %w", c.ID, err)
		}
		if err := requireRow(res, "command", c.ID); err != nil {
			return err
		}
		return replaceAssociations(tx, c.ID, c.ProjectIDs, c.Tags)
	})
}

// UpsertCommandByCodeIndex updates the command carrying c.CodeIndex, or
// inserts it when no command has that code-index yet.
func (s *Store) UpsertCommandByCodeIndex(c Command) (*Command, error) {
	if c.CodeIndex == "" {
		return nil, fmt.Errorf("upsert command %q: empty code-index", c.Name)
	}
	existing, err := s.GetCommandByCodeIndex(c.CodeIndex)
	switch {
	case err == nil:
		c.ID = existing.ID
		if err := s.UpdateCommand(c); err != nil {
			return nil, err
		}
		return s.GetCommand(c.ID)
	case isNotFound(err):
		return s.CreateCommand(c)
	default:
		return nil, err
	}
}

func replaceAssociations(tx *sql.Tx, commandID int64, projectIDs []int64, tags []string) error {
	if _, err := tx.Exec(`DELETE FROM command_projects WHERE command_id = ?`, commandID); err != nil {
		return fmt.Errorf("clear command projects: %w", err)
	}
	for _, pid := range projectIDs {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO command_projects (command_id, project_id) VALUES (?, ?)`, commandID, pid,
		); err != nil {
			return fmt.Errorf("link project %d: %w", pid, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM command_tags WHERE command_id = ?`, commandID); err != nil {
		return fmt.Errorf("clear command tags: %w", err)
	}
	for _, name := range tags {
		tagID, err := getOrCreateTag(tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO command_tags (command_id, tag_id) VALUES (?, ?)`, commandID, tagID,
		); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

func (s *Store) GetCommand(id int64) (*Command, error) {
	c, err := scanCommand(s.db.QueryRow(`SELECT `+commandColumns+` FROM commands c WHERE c.id = ?`, id))
	if err != nil {
		return nil, notFound("command", id, err)
	}
	cmds := []Command{c}
	if err := s.loadAssociations(cmds); err != nil {
		return nil, err
	}
	return &cmds[0], nil
}

func (s *Store) GetCommandByCodeIndex(codeIndex string) (*Command, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM commands WHERE codeindex = ?`, codeIndex).Scan(&id)
	if err != nil {
		return nil, notFound("command", codeIndex, err)
	}
	return s.GetCommand(id)
}

// FindCommandsByName returns the commands whose name equals name exactly.
func (s *Store) FindCommandsByName(name string) ([]Command, error) {
	return s.queryCommands(`SELECT `+commandColumns+` FROM commands c WHERE c.name = ? ORDER BY c.id`, name)
}

// ListCommands returns the commands selected by f, sorted by name.
func (s *Store) ListCommands(f command.Filter) ([]Command, error) {
	query, args := listCommandsQuery(f)
	return s.queryCommands(query, args...)
}

// listCommandsQuery compiles f to SQL. It must select exactly what
// command.Filter.Match accepts.
func listCommandsQuery(f command.Filter) (string, []any) {
	query := `SELECT ` + commandColumns + ` FROM commands c WHERE 1=1`
	var args []any

	if f.ProjectID != nil {
		query += ` AND (NOT EXISTS (SELECT 1 FROM command_projects cp WHERE cp.command_id = c.id)
		           OR EXISTS (SELECT 1 FROM command_projects cp WHERE cp.command_id = c.id AND cp.project_id = ?))`
		args = append(args, *f.ProjectID)
	}
	if len(f.TagIDs) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.TagIDs)), ",")
		query += ` AND EXISTS (SELECT 1 FROM command_tags ct WHERE ct.command_id = c.id AND ct.tag_id IN (` + marks + `))`
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}

	query += ` ORDER BY c.name, c.id`
	return query, args
}

func (s *Store) queryCommands(query string, args ...any) ([]Command, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	var cmds []Command
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		cmds = append(cmds, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// The single connection must be free before loading associations.
	rows.Close()

	if err := s.loadAssociations(cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

// loadAssociations fills ProjectIDs and Tags for cmds in two queries.
func (s *Store) loadAssociations(cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}
	index := make(map[int64]int, len(cmds))
	args := make([]any, len(cmds))
	for i, c := range cmds {
		index[c.ID] = i
		args[i] = c.ID
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cmds)), ",")

	rows, err := s.db.Query(
		`SELECT command_id, project_id FROM command_projects WHERE command_id IN (`+marks+`) ORDER BY project_id`, args...,
	)
	if err != nil {
		return fmt.Errorf("load command projects: %w", err)
	}
	for rows.Next() {
		var cid, pid int64
		if err := rows.Scan(&cid, &pid); err != nil {
			rows.Close()
			return err
		}
		i := index[cid]
		cmds[i].ProjectIDs = append(cmds[i].ProjectIDs, pid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = s.db.Query(
		`SELECT ct.command_id, t.name FROM command_tags ct JOIN tags t ON t.id = ct.tag_id
		 WHERE ct.command_id IN (`+marks+`) ORDER BY t.name`, args...,
	)
	if err != nil {
		return fmt.Errorf("load command tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid int64
		var name string
		if err := rows.Scan(&cid, &name); err != nil {
			return err
		}
		i := index[cid]
		cmds[i].Tags = append(cmds[i].Tags, name)
	}
	return rows.Err()
}

// DeleteCommand removes the command and its associations. Run history keeps
// its rows with the command reference cleared.
func (s *Store) DeleteCommand(id int64) error {
	res, err := s.db.Exec(`DELETE FROM commands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete command %d: %w", id, err)
	}
	return requireRow(res, "command", id)
}
