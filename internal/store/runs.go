package store

import (
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxOutput caps the stdout/stderr kept per run.
const maxOutput = 64 * 1024

// truncate cuts s to at most maxOutput bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxOutput {
		return s
	}
	n := maxOutput
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n[truncated]"
}

// RecordRun stores r, assigning an id when r.ID is empty.
func (s *Store) RecordRun(r Run) (*Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	ok := 0
	if r.OK {
		ok = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, command_id, command_name, step_index, rendered, work_dir, ok, exit_code, stdout, stderr, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CommandID, r.CommandName, r.StepIndex, r.Rendered, r.WorkDir, ok, r.ExitCode,
		truncate(r.Stdout), truncate(r.Stderr), r.Error,
		r.StartedAt.UTC().Format(time.RFC3339), r.Duration.Milliseconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return s.GetRun(r.ID)
}

const runColumns = `id, command_id, command_name, step_index, rendered, work_dir, ok, exit_code, stdout, stderr, error, started_at, duration_ms`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var commandID sql.NullInt64
	var ok int
	var startedAt string
	var durationMS int64
	err := row.Scan(&r.ID, &commandID, &r.CommandName, &r.StepIndex, &r.Rendered, &r.WorkDir,
		&ok, &r.ExitCode, &r.Stdout, &r.Stderr, &r.Error, &startedAt, &durationMS)
	if err != nil {
		return r, err
	}
	if commandID.Valid {
		r.CommandID = &commandID.Int64
	}
	r.OK = ok == 1
	r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}

func (s *Store) GetRun(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		return nil, notFound("run", id, err)
	}
	return &r, nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(f RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if f.CommandID != nil {
		query += ` AND command_id = ?`
		args = append(args, *f.CommandID)
	}
	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DailyRunSummary counts runs per UTC day in [from, to).
func (s *Store) DailyRunSummary(from, to time.Time) ([]DailyRunSummary, error) {
	rows, err := s.db.Query(`
		SELECT date(started_at) AS day,
		       COALESCE(SUM(ok), 0),
		       COALESCE(SUM(1 - ok), 0)
		FROM runs
		WHERE started_at >= ? AND started_at < ?
		GROUP BY day
		ORDER BY day`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily run summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailyRunSummary
	for rows.Next() {
		var ds DailyRunSummary
		if err := rows.Scan(&ds.Date, &ds.OK, &ds.Failed); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}
