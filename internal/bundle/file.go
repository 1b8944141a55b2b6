package bundle

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sadopc/cmdvault/internal/logging"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/afero"
)

// FileResult is the outcome of importing one file.
type FileResult struct {
	Path string
	Result
}

func WriteFile(fsys afero.Fs, path string, b *Bundle) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// ExportFile exports the store to path.
func ExportFile(fsys afero.Fs, s *store.Store, path string) error {
	b, err := Export(s)
	if err != nil {
		return err
	}
	if err := WriteFile(fsys, path, b); err != nil {
		return err
	}
	logging.Info().Str("path", path).Int("projects", len(b.Projects)).Int("commands", len(b.Commands)).Msg("bundle exported")
	return nil
}

// ExportToDir writes a timestamped bundle into dir and returns its path.
func ExportToDir(fsys afero.Fs, s *store.Store, dir string) (string, error) {
	name := fmt.Sprintf("cmdvault-%s.json", time.Now().Format("20060102-150405"))
	p := filepath.Join(dir, name)
	if err := ExportFile(fsys, s, p); err != nil {
		return "", err
	}
	return p, nil
}

// ImportFile reads and imports one bundle. Read errors are reported in the
// result like any other import failure.
func ImportFile(fsys afero.Fs, s *store.Store, path string) Result {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return failed(Result{}, fmt.Errorf("read bundle: %w", err))
	}
	r := Import(s, data)
	if !r.Success {
		logging.Warn().Str("path", path).Str("error", r.Error).Msg("bundle import failed")
	}
	return r
}

// ImportGlob imports every file under dir matching pattern (doublestar
// syntax, e.g. "**/*.json"), in lexical order. A failing file does not stop
// the others.
func ImportGlob(fsys afero.Fs, s *store.Store, dir, pattern string) ([]FileResult, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("import glob %q: %w", pattern, doublestar.ErrBadPattern)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("import glob %q: %w", pattern, err)
	}
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fsys, dir)), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("import glob %q: %w", pattern, err)
	}
	slices.Sort(matches)

	results := make([]FileResult, 0, len(matches))
	for _, m := range matches {
		p := filepath.Join(dir, filepath.FromSlash(m))
		results = append(results, FileResult{Path: p, Result: ImportFile(fsys, s, p)})
	}
	return results, nil
}

// SplitGlob splits a path containing glob syntax into its static directory
// and the pattern below it. ok is false for a plain path.
func SplitGlob(p string) (dir, pattern string, ok bool) {
	slashed := filepath.ToSlash(p)
	if !strings.ContainsAny(slashed, "*?[{") {
		return "", "", false
	}
	base, pat := doublestar.SplitPattern(slashed)
	return filepath.FromSlash(base), pat, true
}
