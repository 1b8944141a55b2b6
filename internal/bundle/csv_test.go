package bundle

import (
	"encoding/csv"
	"testing"
	"time"

	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/afero"
)

func sampleRuns() []store.Run {
	now := time.Now().UTC()
	cid := int64(3)
	return []store.Run{
		{
			ID:          "r1",
			CommandID:   &cid,
			CommandName: "deploy",
			Rendered:    "deploy staging",
			WorkDir:     "/srv/app",
			OK:          true,
			StartedAt:   now.Add(-time.Hour),
			Duration:    time.Hour,
		},
		{
			ID:        "r2",
			Rendered:  "false",
			ExitCode:  1,
			Error:     "exit status 1",
			StartedAt: now,
			Duration:  1500 * time.Millisecond,
		},
	}
}

func readCSV(t *testing.T, fsys afero.Fs, path string) [][]string {
	t.Helper()
	f, err := fsys.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestRunsToCSV(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := RunsToCSV(fsys, "/out/runs.csv", sampleRuns()); err != nil {
		t.Fatalf("RunsToCSV: %v", err)
	}

	records := readCSV(t, fsys, "/out/runs.csv")
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	expectedHeader := []string{"ID", "Command", "Started", "Duration (ms)", "Duration", "OK", "Exit Code", "Work Dir", "Rendered", "Error"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "r1" || row[1] != "deploy" {
		t.Fatalf("unexpected first row: %v", row)
	}
	if row[3] != "3600000" || row[4] != "01:00:00" {
		t.Fatalf("duration columns = %q, %q", row[3], row[4])
	}
	if row[5] != "true" || row[7] != "/srv/app" {
		t.Fatalf("unexpected ok/workdir: %v", row)
	}
	if _, err := time.Parse(time.RFC3339, row[2]); err != nil {
		t.Fatalf("start is not RFC3339: %q", row[2])
	}

	failedRow := records[2]
	if failedRow[1] != "Unknown" {
		t.Fatalf("expected 'Unknown' for run without command, got %q", failedRow[1])
	}
	if failedRow[5] != "false" || failedRow[6] != "1" || failedRow[9] != "exit status 1" {
		t.Fatalf("unexpected failed row: %v", failedRow)
	}
	if failedRow[4] != "00:00:02" {
		t.Fatalf("expected rounded duration, got %q", failedRow[4])
	}
}

func TestRunsToCSVEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := RunsToCSV(fsys, "/empty.csv", nil); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, fsys, "/empty.csv"); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestRunsToCSVReadOnly(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
	if err := RunsToCSV(fsys, "/runs.csv", nil); err == nil {
		t.Fatal("expected error for read-only filesystem")
	}
}

func TestRunsToCSVSpecialCharacters(t *testing.T) {
	fsys := afero.NewMemMapFs()
	runs := []store.Run{{
		ID:          "r",
		CommandName: `say "hi"`,
		Rendered:    `echo "a, b"`,
		StartedAt:   time.Now(),
	}}
	if err := RunsToCSV(fsys, "/special.csv", runs); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, fsys, "/special.csv")
	if records[1][1] != `say "hi"` {
		t.Fatalf("command name mangled: %q", records[1][1])
	}
	if records[1][8] != `echo "a, b"` {
		t.Fatalf("rendered mangled: %q", records[1][8])
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{400 * time.Millisecond, "00:00:00"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{3661 * time.Second, "01:01:01"},
		{25*time.Hour + 61*time.Second, "25:01:01"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
