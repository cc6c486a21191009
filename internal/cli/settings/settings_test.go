package settings

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/config"
	"github.com/julianstephens/mydiary/internal/models"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Config: &config.Config{}, Stdout: out}, out
}

func TestSettingsCmd_List(t *testing.T) {
	ctx, out := setupTestDB(t)
	ctx.Config.Timezone = "Europe/Berlin"

	if err := (&SettingsCmd{List: true}).Run(ctx); err != nil {
		t.Fatalf("settings list failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Timezone:        Local (config file: Europe/Berlin)", "Theme:           system", "Autosave Delay:  1000 ms\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx, out := setupTestDB(t)

	tz, theme, delay := "America/New_York", "dark", 2500
	cmd := &SettingsCmd{Timezone: &tz, Theme: &theme, AutosaveDelayMs: &delay}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}
	if !strings.Contains(out.String(), "Settings updated successfully.") {
		t.Errorf("unexpected output: %s", out.String())
	}

	got, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	want := models.Settings{Timezone: tz, ThemeMode: models.ThemeDark, AutosaveDelayMs: delay}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestSettingsCmd_Invalid(t *testing.T) {
	badTZ, badTheme, negative := "Mars/Olympus", "neon", -1

	tests := []struct {
		name string
		cmd  SettingsCmd
	}{
		{"timezone", SettingsCmd{Timezone: &badTZ}},
		{"theme", SettingsCmd{Theme: &badTheme}},
		{"autosave delay", SettingsCmd{AutosaveDelayMs: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestDB(t)
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
			got, _ := ctx.Store.GetSettings()
			if got != models.DefaultSettings() {
				t.Errorf("invalid update must not be saved, got %+v", got)
			}
		})
	}
}

func TestSettingsCmd_NoChanges(t *testing.T) {
	ctx, out := setupTestDB(t)
	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if !strings.Contains(out.String(), "No changes specified") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
