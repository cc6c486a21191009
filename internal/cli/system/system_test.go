package system

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage"
	"github.com/julianstephens/mydiary/internal/storage/diskv"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newContext(t *testing.T, store storage.Provider) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ids := 0
	out := &bytes.Buffer{}
	return &cli.Context{
		Store:     store,
		ConfigDir: t.TempDir(),
		Stdout:    out,
		Now:       func() time.Time { return fixedNow },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%02d", ids)
		},
	}, out
}

func setupTestInitDB(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() { store.Close() })
	ctx, out := newContext(t, store)
	return ctx, out, dbPath
}

func setupLoadedDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx, out, _ := setupTestInitDB(t)
	if err := ctx.Store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return ctx, out
}

func TestInitCmd_Success(t *testing.T) {
	ctx, out, dbPath := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
	if !strings.Contains(out.String(), "Applying migration 1") {
		t.Errorf("expected migration progress, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Initialized mydiary storage at: "+dbPath) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)

	if err := (&InitCmd{Sample: true}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	todos, err := ctx.Store.GetAllTodos()
	if err != nil || len(todos) == 0 {
		t.Fatalf("expected sample todos, got %d (err %v)", len(todos), err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init with force failed: %v", err)
	}
	todos, err = ctx.Store.GetAllTodos()
	if err != nil {
		t.Fatalf("failed to get todos: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("force should start from an empty store, found %d todos", len(todos))
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	ctx, _, dbPath := setupTestInitDB(t)

	if err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx); err == nil {
		t.Error("expected error when source and destination are the same")
	}
}

func TestInitCmd_Sample(t *testing.T) {
	ctx, out, _ := setupTestInitDB(t)

	if err := (&InitCmd{Sample: true}).Run(ctx); err != nil {
		t.Fatalf("init --sample failed: %v", err)
	}
	if _, err := ctx.Store.FindDiaryEntryByDayKey("2025-01-01"); err != nil {
		t.Errorf("expected a sample diary entry: %v", err)
	}
	if !strings.Contains(out.String(), "Added sample data for 2025-01-01") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestInitCmd_MigratesFromSource(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "source.db")
	src := sqlite.NewStore(srcPath)
	if err := src.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	if err := src.UpsertTodo(models.TodoItem{ID: "t1", DayKey: "2024-12-31", Title: "Carry over", Category: models.CategoryOther, CreatedAt: fixedNow}); err != nil {
		t.Fatalf("failed to stage todo: %v", err)
	}
	if err := src.Persist(); err != nil {
		t.Fatalf("failed to persist source: %v", err)
	}
	src.Close()

	ctx, out, _ := setupTestInitDB(t)
	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("init --source failed: %v", err)
	}
	todos, err := ctx.Store.FindTodosByDayKey("2024-12-31")
	if err != nil {
		t.Fatalf("failed to get todos: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "Carry over" {
		t.Errorf("unexpected todos after migration: %+v", todos)
	}
	if !strings.Contains(out.String(), "Migrated 0 diary entries, 1 todos") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, out := setupLoadedDB(t)

	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out.String(), "No migrations to apply") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := (&MigrateCmd{Status: true}).Run(ctx); err != nil {
		t.Fatalf("migrate --status failed: %v", err)
	}
	if !strings.Contains(out.String(), "Current schema version: 2") {
		t.Errorf("unexpected status output:\n%s", out.String())
	}
}

func TestMigrateCmd_UnsupportedStore(t *testing.T) {
	store := diskv.New(filepath.Join(t.TempDir(), "data"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	ctx, _ := newContext(t, store)
	if err := (&MigrateCmd{}).Run(ctx); err == nil {
		t.Error("expected error for a store without migrations")
	}
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	ctx, out := setupLoadedDB(t)

	// Missing backups is a warning, not a failure
	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Fatalf("doctor command failed on healthy database: %v\n%s", err, out.String())
	}
	for _, want := range []string{"✓ Database reachable: OK", "⚠ Backups present: WARNING", "All diagnostics passed!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestDoctorCmd_BrokenSchema(t *testing.T) {
	ctx, out := setupLoadedDB(t)

	db := ctx.Store.(*sqlite.Store).GetDB()
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		t.Fatalf("failed to corrupt schema version: %v", err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Fatal("doctor should fail when migrations are missing")
	}
	if !strings.Contains(out.String(), "❌ Migrations complete: FAIL") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestDoctorCmd_UnreachableDB(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "missing", "test.db"))
	ctx, out := newContext(t, store)

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Fatal("doctor should fail without a database")
	}
	if !strings.Contains(out.String(), "⊘ Data validation: SKIPPED (database not reachable)") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestValidateCmd_FixesDuplicateEntries(t *testing.T) {
	store := diskv.New(filepath.Join(t.TempDir(), "data"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	for i, content := range []string{"older", "newer"} {
		e := models.DiaryEntry{ID: fmt.Sprintf("e%d", i), DayKey: "2025-01-01", Content: content, Timestamp: fixedNow.Add(time.Duration(i) * time.Hour)}
		if err := store.UpsertDiaryEntry(e); err != nil {
			t.Fatalf("failed to stage entry: %v", err)
		}
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	ctx, out := newContext(t, store)
	if err := (&ValidateCmd{}).Run(ctx); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out.String(), "Multiple diary entries for 2025-01-01") {
		t.Fatalf("expected duplicate report:\n%s", out.String())
	}

	out.Reset()
	if err := (&ValidateCmd{Fix: true}).Run(ctx); err != nil {
		t.Fatalf("validate --fix failed: %v", err)
	}
	entry, err := store.FindDiaryEntryByDayKey("2025-01-01")
	if err != nil {
		t.Fatalf("expected a single entry after fix: %v", err)
	}
	if entry.Content != "newer" {
		t.Errorf("kept %q, want the newest entry", entry.Content)
	}
}

func TestDebugDumpDayCmd(t *testing.T) {
	ctx, out := setupLoadedDB(t)
	if err := ctx.Store.UpsertTodo(models.TodoItem{ID: "t1", DayKey: "2025-01-01", Title: "Read", Category: models.CategoryStudy, CreatedAt: fixedNow}); err != nil {
		t.Fatalf("failed to stage todo: %v", err)
	}
	if err := ctx.Store.Persist(); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	if err := (&DebugDumpDayCmd{Date: "today"}).Run(ctx); err != nil {
		t.Fatalf("dump-day failed: %v", err)
	}
	var dump dayDump
	if err := json.Unmarshal(out.Bytes(), &dump); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, out.String())
	}
	if dump.DayKey != "2025-01-01" || dump.Diary != nil || len(dump.Todos) != 1 {
		t.Errorf("unexpected dump %+v", dump)
	}

	if err := (&DebugDumpTodoCmd{ID: "missing"}).Run(ctx); err == nil {
		t.Error("expected error for unknown todo")
	}
}
