package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/config"
	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/export"
	"github.com/julianstephens/mydiary/internal/storage/diskv"
	"github.com/julianstephens/mydiary/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing data before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
	Sample bool   `help:"Add sample todos and a diary entry for today."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()

	if c.Force {
		if err := c.removeExisting(ctx); err != nil {
			return err
		}
	}

	cli.SetMigrationLog(ctx.Store, func(msg string) {
		fmt.Fprintln(out, msg)
	})
	defer cli.SetMigrationLog(ctx.Store, nil)

	// Initialize destination store
	if err := ctx.Store.Init(); err != nil {
		return err
	}

	// SQL stores without a file to delete are wiped record by record
	if c.Force && !isFileStore(ctx) {
		stats, err := export.Reset(ctx.Store)
		if err != nil {
			return fmt.Errorf("failed to reset existing data: %w", err)
		}
		fmt.Fprintf(out, "Deleted existing data: %s\n", stats)
	}
	fmt.Fprintf(out, "Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Fprintf(out, "Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(out, "Migration completed successfully!")
	}

	if c.Sample {
		loc, err := ctx.Location()
		if err != nil {
			return err
		}
		stats, err := export.Seed(ctx.Store, ctx.Clock().In(loc), ctx.IDGenerator())
		if err != nil {
			return fmt.Errorf("failed to add sample data: %w", err)
		}
		fmt.Fprintf(out, "Added sample data for %s: %s\n", daykey.Key(ctx.Clock().In(loc)), stats)
	}

	return nil
}

func isFileStore(ctx *cli.Context) bool {
	switch ctx.Store.(type) {
	case *sqlite.Store, *diskv.Store:
		return true
	}
	return false
}

func (c *InitCmd) removeExisting(ctx *cli.Context) error {
	if !isFileStore(ctx) {
		return nil
	}

	dbPath := ctx.Store.GetConfigPath()
	// Don't delete if it's the source (user error protection)
	if c.Source != "" {
		absDbPath, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDbPath
		}
		source, err := config.ExpandLocation(strings.TrimPrefix(c.Source, constants.DiskvPrefix))
		if err == nil {
			if absSource, err := filepath.Abs(source); err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		// Close first to release the file
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		fmt.Fprintf(ctx.Out(), "Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) error {
	loc, err := config.ExpandLocation(c.Source)
	if err != nil {
		return err
	}
	sourceStore, err := cli.OpenStore(config.Database{Location: loc, Source: config.SourceFlag})
	if err != nil {
		return err
	}

	if err := sourceStore.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer sourceStore.Close()

	fmt.Fprintln(ctx.Out(), "  Copying settings, diary entries and todos...")
	stats, err := export.Copy(sourceStore, ctx.Store, ctx.Clock())
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "    Migrated %s\n", stats)
	return nil
}
