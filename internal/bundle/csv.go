package bundle

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/afero"
)

// RunsToCSV writes run history to path, one row per run.
func RunsToCSV(fsys afero.Fs, path string, runs []store.Run) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create csv directory: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Command", "Started", "Duration (ms)", "Duration", "OK", "Exit Code", "Work Dir", "Rendered", "Error"}); err != nil {
		return err
	}

	for _, r := range runs {
		name := r.CommandName
		if name == "" {
			name = "Unknown"
		}
		row := []string{
			r.ID,
			name,
			r.StartedAt.Local().Format(time.RFC3339),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			formatDuration(r.Duration),
			strconv.FormatBool(r.OK),
			strconv.Itoa(r.ExitCode),
			r.WorkDir,
			r.Rendered,
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
