package store

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sadopc/cmdvault/internal/command"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustProject(t *testing.T, s *Store, code, name string) *Project {
	t.Helper()
	p, err := s.CreateProject(code, name, "/tmp/"+name)
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func mustCommand(t *testing.T, s *Store, c Command) *Command {
	t.Helper()
	created, err := s.CreateCommand(c)
	if err != nil {
		t.Fatalf("create command %s: %v", c.Name, err)
	}
	return created
}

func names(cmds []Command) []string {
	var out []string
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/cmdvault.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.DataDir() != dir+"/sub" {
		t.Fatalf("unexpected data dir %q", s.DataDir())
	}
	mustProject(t, s, "p1", "Persisted")
	s.Close()

	// Reopen: data survives and migration is not rerun.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	projects, _ := s2.ListProjects()
	if len(projects) != 1 || projects[0].Name != "Persisted" {
		t.Fatalf("expected persisted project, got %+v", projects)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)
	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Projects
// ============================================================

func TestCreateAndGetProject(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreateProject("web", "Website", "/srv/web")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == 0 || p.CodeIndex != "web" || p.Name != "Website" || p.Path != "/srv/web" {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}

	byCode, err := s.GetProjectByCodeIndex("web")
	if err != nil {
		t.Fatal(err)
	}
	if byCode.ID != p.ID {
		t.Fatal("lookup by code-index returned another project")
	}
}

func TestProjectsWithoutCodeIndex(t *testing.T) {
	s := newTestStore(t)
	// Empty code-indexes are stored as NULL and must not collide.
	if _, err := s.CreateProject("", "One", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateProject("", "Two", ""); err != nil {
		t.Fatalf("second project without code-index: %v", err)
	}
}

func TestProjectDuplicateCodeIndex(t *testing.T) {
	s := newTestStore(t)
	mustProject(t, s, "dup", "A")
	if _, err := s.CreateProject("dup", "B", ""); err == nil {
		t.Fatal("expected error for duplicate code-index")
	}
}

func TestListProjectsSorted(t *testing.T) {
	s := newTestStore(t)
	mustProject(t, s, "", "B")
	mustProject(t, s, "", "A")

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].Name != "A" || projects[1].Name != "B" {
		t.Fatalf("expected sorted by name, got %+v", projects)
	}
}

func TestListProjectsEmpty(t *testing.T) {
	s := newTestStore(t)
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if projects != nil {
		t.Fatalf("expected nil slice, got %d items", len(projects))
	}
}

func TestUpdateProject(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "old", "Old")
	if err := s.UpdateProject(p.ID, "new", "New", "/new"); err != nil {
		t.Fatal(err)
	}
	updated, _ := s.GetProject(p.ID)
	if updated.Name != "New" || updated.CodeIndex != "new" || updated.Path != "/new" {
		t.Fatalf("update failed: %+v", updated)
	}
	if err := s.UpdateProject(999, "", "X", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetProject(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertProjectByCodeIndex(t *testing.T) {
	s := newTestStore(t)
	first, err := s.UpsertProjectByCodeIndex("api", "API", "/a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.UpsertProjectByCodeIndex("api", "API v2", "/b")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatal("upsert should keep the same row")
	}
	if second.Name != "API v2" || second.Path != "/b" {
		t.Fatalf("upsert did not update: %+v", second)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	p1 := mustProject(t, s, "", "P1")
	p2 := mustProject(t, s, "", "P2")
	c := mustCommand(t, s, Command{Name: "build", ProjectIDs: []int64{p1.ID, p2.ID}})

	if err := s.DeleteProject(p1.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetCommand(c.ID)
	if !slices.Equal(got.ProjectIDs, []int64{p2.ID}) {
		t.Fatalf("expected only P2 left, got %v", got.ProjectIDs)
	}
}

// ============================================================
// Tags
// ============================================================

func TestCreateTagUniqueName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateTag("", "db"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTag("", "db"); err == nil {
		t.Fatal("expected error for duplicate tag name")
	}
	if _, err := s.CreateTag("", "  "); err == nil {
		t.Fatal("expected error for blank tag name")
	}
}

func TestGetOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	id1, err := s.GetOrCreateTag("net")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.GetOrCreateTag("net")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id, got %d and %d", id1, id2)
	}
	tags, _ := s.ListTags()
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
}

func TestGetOrCreateTagConcurrent(t *testing.T) {
	s := newTestStore(t)
	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = s.GetOrCreateTag("shared")
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d got id %d, want %d", i, ids[i], ids[0])
		}
	}
	tags, _ := s.ListTags()
	if len(tags) != 1 {
		t.Fatalf("expected exactly one tag, got %d", len(tags))
	}
}

func TestUpdateAndDeleteTag(t *testing.T) {
	s := newTestStore(t)
	c := mustCommand(t, s, Command{Name: "ping", Tags: []string{"net", "diag"}})
	net, _ := s.GetTagByName("net")

	if err := s.UpdateTag(net.ID, "n", "network"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetCommand(c.ID)
	if !slices.Equal(got.Tags, []string{"diag", "network"}) {
		t.Fatalf("renamed tag not reflected: %v", got.Tags)
	}

	if err := s.DeleteTag(net.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetCommand(c.ID)
	if !slices.Equal(got.Tags, []string{"diag"}) {
		t.Fatalf("deleted tag still linked: %v", got.Tags)
	}
	if err := s.DeleteTag(net.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTagIDs(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.GetOrCreateTag("a")
	b, _ := s.GetOrCreateTag("b")
	ids, err := s.TagIDs("b", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []int64{b, a}) {
		t.Fatalf("unexpected ids %v", ids)
	}
	if _, err := s.TagIDs("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommandCountsByTag(t *testing.T) {
	s := newTestStore(t)
	mustCommand(t, s, Command{Name: "a", Tags: []string{"db"}})
	mustCommand(t, s, Command{Name: "b", Tags: []string{"db", "net"}})
	s.CreateTag("", "unused")

	counts, err := s.CommandCountsByTag()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"db": 2, "net": 1, "unused": 0}
	if len(counts) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(counts))
	}
	for _, c := range counts {
		if want[c.Tag.Name] != c.Commands {
			t.Fatalf("tag %s: got %d commands, want %d", c.Tag.Name, c.Commands, want[c.Tag.Name])
		}
	}
}

// ============================================================
// Commands
// ============================================================

var deployStep = command.Step{
	Name:    "deploy",
	Command: "deploy {{env}} --name={{svc}}",
	Variables: []command.Variable{
		{Name: "env", Type: command.TypeOption, Options: []string{"staging", "prod"}},
		{Name: "svc", Type: command.TypeString, Format: command.FormatUpperCase},
	},
}

func TestCreateAndGetCommand(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "", "Ops")
	c, err := s.CreateCommand(Command{
		CodeIndex:  "deploy",
		Name:       "Deploy",
		Detail:     "Deploy a service",
		Summary:    "deploy",
		Steps:      []command.Step{deployStep},
		ProjectIDs: []int64{p.ID},
		Tags:       []string{"ops", "ci"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == 0 || c.Name != "Deploy" || c.Detail != "Deploy a service" || c.Summary != "deploy" {
		t.Fatalf("unexpected command: %+v", c)
	}
	if len(c.Steps) != 1 || c.Steps[0].Command != deployStep.Command || len(c.Steps[0].Variables) != 2 {
		t.Fatalf("steps not round-tripped: %+v", c.Steps)
	}
	if c.Steps[0].Variables[1].Format != command.FormatUpperCase {
		t.Fatal("variable format lost")
	}
	if !slices.Equal(c.ProjectIDs, []int64{p.ID}) {
		t.Fatalf("projects: %v", c.ProjectIDs)
	}
	if !slices.Equal(c.Tags, []string{"ci", "ops"}) {
		t.Fatalf("tags: %v", c.Tags)
	}

	byCode, err := s.GetCommandByCodeIndex("deploy")
	if err != nil || byCode.ID != c.ID {
		t.Fatalf("lookup by code-index: %v", err)
	}
}

func TestCreateCommandValidation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateCommand(Command{Name: " "}); err == nil {
		t.Fatal("expected error for blank name")
	}
	bad := command.Step{Variables: []command.Variable{{Name: "x"}, {Name: "x"}}}
	if _, err := s.CreateCommand(Command{Name: "dup", Steps: []command.Step{bad}}); !errors.Is(err, command.ErrDuplicateVariable) {
		t.Fatalf("expected ErrDuplicateVariable, got %v", err)
	}
}

func TestCreateCommandUnknownProjectRollsBack(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateCommand(Command{Name: "orphan", ProjectIDs: []int64{999}}); err == nil {
		t.Fatal("expected foreign key error for non-existent project")
	}
	cmds, _ := s.ListCommands(command.Filter{})
	if len(cmds) != 0 {
		t.Fatal("failed create should not leave a command row")
	}
}

func TestCommandWithoutSteps(t *testing.T) {
	s := newTestStore(t)
	c := mustCommand(t, s, Command{Name: "empty"})
	if c.Steps == nil || len(c.Steps) != 0 {
		t.Fatalf("expected empty non-nil steps, got %#v", c.Steps)
	}
	if !c.Global() {
		t.Fatal("command without projects should be global")
	}
}

func TestUpdateCommandReplacesAssociations(t *testing.T) {
	s := newTestStore(t)
	p1 := mustProject(t, s, "", "P1")
	p2 := mustProject(t, s, "", "P2")
	c := mustCommand(t, s, Command{Name: "x", ProjectIDs: []int64{p1.ID}, Tags: []string{"a", "b"}})

	c.Name = "y"
	c.ProjectIDs = []int64{p2.ID}
	c.Tags = []string{"c"}
	if err := s.UpdateCommand(*c); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetCommand(c.ID)
	if got.Name != "y" {
		t.Fatalf("name not updated: %s", got.Name)
	}
	if !slices.Equal(got.ProjectIDs, []int64{p2.ID}) {
		t.Fatalf("projects not replaced: %v", got.ProjectIDs)
	}
	if !slices.Equal(got.Tags, []string{"c"}) {
		t.Fatalf("tags not replaced: %v", got.Tags)
	}

	got.ProjectIDs = nil
	got.Tags = nil
	if err := s.UpdateCommand(*got); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetCommand(c.ID)
	if len(got.ProjectIDs) != 0 || len(got.Tags) != 0 {
		t.Fatalf("expected cleared associations, got %v %v", got.ProjectIDs, got.Tags)
	}
}

func TestUpdateCommandNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateCommand(Command{ID: 42, Name: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertCommandByCodeIndex(t *testing.T) {
	s := newTestStore(t)
	first, err := s.UpsertCommandByCodeIndex(Command{CodeIndex: "c1", Name: "One", Tags: []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.UpsertCommandByCodeIndex(Command{CodeIndex: "c1", Name: "One again", Tags: []string{"b"}})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || second.Name != "One again" || !slices.Equal(second.Tags, []string{"b"}) {
		t.Fatalf("unexpected upsert result: %+v", second)
	}
	if _, err := s.UpsertCommandByCodeIndex(Command{Name: "no code"}); err == nil {
		t.Fatal("expected error for empty code-index")
	}
}

func TestDeleteCommand(t *testing.T) {
	s := newTestStore(t)
	c := mustCommand(t, s, Command{Name: "gone", Tags: []string{"t"}})
	if err := s.DeleteCommand(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetCommand(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var links int
	s.db.QueryRow(`SELECT COUNT(*) FROM command_tags`).Scan(&links)
	if links != 0 {
		t.Fatalf("expected tag links removed, got %d", links)
	}
}

func TestFindCommandsByName(t *testing.T) {
	s := newTestStore(t)
	mustCommand(t, s, Command{Name: "same"})
	mustCommand(t, s, Command{Name: "same"})
	mustCommand(t, s, Command{Name: "other"})
	found, err := s.FindCommandsByName("same")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}
}

// ============================================================
// Command filter
// ============================================================

// filterFixture builds A (project 1, db), B (global, db), C (project 2, net).
func filterFixture(t *testing.T, s *Store) (p1, p2 *Project, db, net int64) {
	t.Helper()
	p1 = mustProject(t, s, "", "one")
	p2 = mustProject(t, s, "", "two")
	mustCommand(t, s, Command{Name: "C", ProjectIDs: []int64{p2.ID}, Tags: []string{"net"}})
	mustCommand(t, s, Command{Name: "A", ProjectIDs: []int64{p1.ID}, Tags: []string{"db"}})
	mustCommand(t, s, Command{Name: "B", Tags: []string{"db"}})
	db, _ = s.GetOrCreateTag("db")
	net, _ = s.GetOrCreateTag("net")
	return
}

func TestListCommandsFilter(t *testing.T) {
	s := newTestStore(t)
	p1, p2, db, net := filterFixture(t, s)

	tests := []struct {
		name   string
		filter command.Filter
		want   []string
	}{
		{"all", command.Filter{}, []string{"A", "B", "C"}},
		{"project one", command.Filter{}.ForProject(p1.ID), []string{"A", "B"}},
		{"project two", command.Filter{}.ForProject(p2.ID), []string{"B", "C"}},
		{"unknown project", command.Filter{}.ForProject(999), []string{"B"}},
		{"tag net", command.Filter{}.WithTags(net), []string{"C"}},
		{"tags any", command.Filter{}.WithTags(db, net), []string{"A", "B", "C"}},
		{"project and tag", command.Filter{}.ForProject(p1.ID).WithTags(db), []string{"A", "B"}},
		{"project and other tag", command.Filter{}.ForProject(p1.ID).WithTags(net), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := s.ListCommands(tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if got := names(cmds); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// The SQL query and the in-memory predicate must agree.
func TestListCommandsMatchesFilterPredicate(t *testing.T) {
	s := newTestStore(t)
	p1, p2, db, net := filterFixture(t, s)

	all, _ := s.ListCommands(command.Filter{})
	tagIDs := map[string]int64{"db": db, "net": net}

	filters := []command.Filter{
		{},
		command.Filter{}.ForProject(p1.ID),
		command.Filter{}.ForProject(p2.ID),
		command.Filter{}.WithTags(db),
		command.Filter{}.WithTags(net),
		command.Filter{}.ForProject(p2.ID).WithTags(db, net),
	}
	for _, f := range filters {
		var want []string
		for _, c := range all {
			var ids []int64
			for _, name := range c.Tags {
				ids = append(ids, tagIDs[name])
			}
			if f.Match(c.ProjectIDs, ids) {
				want = append(want, c.Name)
			}
		}
		cmds, _ := s.ListCommands(f)
		if got := names(cmds); !slices.Equal(got, want) {
			t.Fatalf("filter %+v: sql %v, predicate %v", f, got, want)
		}
	}
}

func TestListCommandsEmpty(t *testing.T) {
	s := newTestStore(t)
	cmds, err := s.ListCommands(command.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if cmds != nil {
		t.Fatal("expected nil slice for empty list")
	}
}

// ============================================================
// Config
// ============================================================

func TestConfigDefaults(t *testing.T) {
	s := newTestStore(t)
	cfg, err := s.GetConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg[ConfigPathKey] == "" || cfg[ExportPathKey] == "" {
		t.Fatalf("expected seeded defaults, got %v", cfg)
	}
}

func TestSetSettingUpserts(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(ExportPathKey, "/exports"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ExportPathKey, "/exports2"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting(ExportPathKey)
	if err != nil {
		t.Fatal(err)
	}
	if v != "/exports2" {
		t.Fatalf("got %q", v)
	}
	if _, err := s.GetSetting("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Runs
// ============================================================

func TestRecordAndGetRun(t *testing.T) {
	s := newTestStore(t)
	c := mustCommand(t, s, Command{Name: "echo"})
	r, err := s.RecordRun(Run{
		CommandID:   &c.ID,
		CommandName: c.Name,
		Rendered:    "echo hi",
		OK:          true,
		Stdout:      "hi\n",
		Duration:    1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == "" || !r.OK || r.Stdout != "hi\n" || r.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected run: %+v", r)
	}
	if r.CommandID == nil || *r.CommandID != c.ID {
		t.Fatal("command id not stored")
	}
}

func TestRunSurvivesCommandDelete(t *testing.T) {
	s := newTestStore(t)
	c := mustCommand(t, s, Command{Name: "tmp"})
	r, _ := s.RecordRun(Run{CommandID: &c.ID, CommandName: c.Name, Rendered: "true", OK: true})
	s.DeleteCommand(c.ID)

	got, err := s.GetRun(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CommandID != nil {
		t.Fatal("command reference should be cleared")
	}
	if got.CommandName != "tmp" {
		t.Fatal("command name should be kept")
	}
}

func TestRunOutputTruncated(t *testing.T) {
	s := newTestStore(t)
	big := make([]byte, maxOutput+10)
	for i := range big {
		big[i] = 'x'
	}
	r, err := s.RecordRun(Run{Rendered: "yes", Stdout: string(big)})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Stdout) >= len(big)+len("\n[truncated]") || len(r.Stdout) < maxOutput {
		t.Fatalf("unexpected stored length %d", len(r.Stdout))
	}
}

func TestRunOutputTruncatedOnRuneBoundary(t *testing.T) {
	s := newTestStore(t)
	// The two-byte "é" straddles the cut.
	out := strings.Repeat("a", maxOutput-1) + "é tail"
	r, err := s.RecordRun(Run{Rendered: "yes", Stdout: out})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetRun(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(got.Stdout) {
		t.Fatal("stored stdout is not valid UTF-8")
	}
	if !strings.HasSuffix(got.Stdout, "a\n[truncated]") {
		t.Fatalf("expected cut before the multi-byte rune, got suffix %q", got.Stdout[len(got.Stdout)-20:])
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	s.RecordRun(Run{Rendered: "old", StartedAt: now.Add(-2 * time.Hour)})
	s.RecordRun(Run{Rendered: "new", StartedAt: now})
	s.RecordRun(Run{Rendered: "mid", StartedAt: now.Add(-time.Hour)})

	runs, err := s.ListRuns(RunFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Rendered != "new" || runs[1].Rendered != "mid" {
		t.Fatalf("unexpected order: %+v", runs)
	}

	from := now.Add(-90 * time.Minute)
	runs, _ = s.ListRuns(RunFilter{From: &from})
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs since %v, got %d", from, len(runs))
	}
}

func TestListRunsByCommand(t *testing.T) {
	s := newTestStore(t)
	a := mustCommand(t, s, Command{Name: "a"})
	b := mustCommand(t, s, Command{Name: "b"})
	s.RecordRun(Run{CommandID: &a.ID, Rendered: "a"})
	s.RecordRun(Run{CommandID: &b.ID, Rendered: "b"})

	runs, _ := s.ListRuns(RunFilter{CommandID: &a.ID})
	if len(runs) != 1 || runs[0].Rendered != "a" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestDailyRunSummary(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.RecordRun(Run{Rendered: "1", OK: true, StartedAt: day})
	s.RecordRun(Run{Rendered: "2", OK: false, StartedAt: day.Add(time.Hour)})
	s.RecordRun(Run{Rendered: "3", OK: true, StartedAt: day.AddDate(0, 0, 1)})
	s.RecordRun(Run{Rendered: "out of range", OK: true, StartedAt: day.AddDate(0, 0, 5)})

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	summaries, err := s.DailyRunSummary(from, from.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 days, got %+v", summaries)
	}
	if summaries[0].Date != "2026-03-10" || summaries[0].OK != 1 || summaries[0].Failed != 1 {
		t.Fatalf("day 1: %+v", summaries[0])
	}
	if summaries[1].Date != "2026-03-11" || summaries[1].OK != 1 || summaries[1].Failed != 0 {
		t.Fatalf("day 2: %+v", summaries[1])
	}
}
