package settings

import (
	"fmt"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone        *string `help:"IANA timezone used for \"today\", or Local."`
	Theme           *string `help:"Color theme (light, dark, system)."`
	AutosaveDelayMs *int    `name:"autosave-delay-ms" help:"Milliseconds of quiet before the diary autosaves."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := ctx.Out()
	if c.List {
		effective := ctx.Config.Effective(settings)
		fmt.Fprintln(out, "Current Settings:")
		fmt.Fprintf(out, "  Timezone:        %s%s\n", settings.Timezone, overridden(settings.Timezone, effective.Timezone))
		fmt.Fprintf(out, "  Theme:           %s %s\n", settings.ThemeMode, settings.ThemeMode.Icon())
		fmt.Fprintf(out, "  Autosave Delay:  %d ms%s\n", settings.AutosaveDelayMs,
			overridden(fmt.Sprint(settings.AutosaveDelayMs), fmt.Sprint(effective.AutosaveDelayMs)))
		fmt.Fprintln(out, "\nStorage:")
		fmt.Fprintf(out, "  Database:        %s\n", ctx.Store.GetConfigPath())
		if ctx.Config != nil && ctx.Config.Path != "" {
			fmt.Fprintf(out, "  Config File:     %s\n", ctx.Config.Path)
		}
		return nil
	}

	updated := false
	if c.Timezone != nil {
		if _, err := daykey.LoadLocation(*c.Timezone); err != nil {
			return err
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.Theme != nil {
		mode, err := models.ParseThemeMode(*c.Theme)
		if err != nil {
			return err
		}
		settings.ThemeMode = mode
		updated = true
	}
	if c.AutosaveDelayMs != nil {
		settings.AutosaveDelayMs = *c.AutosaveDelayMs
		updated = true
	}

	if !updated {
		fmt.Fprintln(out, "No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Fprintln(out, "Settings updated successfully.")
	return nil
}

// overridden notes a config file value that replaces a stored default.
func overridden(stored, effective string) string {
	if stored == effective {
		return ""
	}
	return fmt.Sprintf(" (config file: %s)", effective)
}
