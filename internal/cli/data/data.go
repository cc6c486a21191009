package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/export"
)

type ExportCmd struct {
	Format string `short:"f" help:"Output format (json, markdown)." enum:"json,markdown" default:"json"`
	Output string `short:"o" help:"Write to this file instead of stdout."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	archive, err := export.Collect(ctx.Store, ctx.Clock())
	if err != nil {
		return err
	}

	w := ctx.Out()
	if c.Output != "" {
		path, err := homedir.Expand(c.Output)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch c.Format {
	case "markdown":
		err = export.WriteMarkdown(w, archive)
	default:
		err = export.WriteJSON(w, archive)
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	if c.Output != "" {
		fmt.Fprintf(ctx.Out(), "✓ Exported %s to %s\n", archive.Stats(), c.Output)
	}
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"JSON archive written by 'export', or - for stdin."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	var r io.Reader = ctx.In()
	if c.File != "-" {
		path, err := homedir.Expand(c.File)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer f.Close()
		r = f
	}

	archive, err := export.ReadJSON(r)
	if err != nil {
		return err
	}

	if err := backupFirst(ctx); err != nil {
		return err
	}
	stats, err := export.Merge(ctx.Store, archive)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(ctx.Out(), "✓ Imported %s\n", stats)
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		fmt.Fprintf(ctx.Out(), "⚠️  WARNING: This deletes every diary entry and todo in %s.\n", ctx.Store.GetConfigPath())
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out(), "Reset cancelled.")
			return nil
		}
	}

	if err := backupFirst(ctx); err != nil {
		return err
	}
	stats, err := export.Reset(ctx.Store)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Fprintf(ctx.Out(), "✓ Deleted %s\n", stats)
	return nil
}

func backupFirst(ctx *cli.Context) error {
	path, err := ctx.BackupBeforeChange()
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(ctx.Out(), "Backup created: %s\n", filepath.Base(path))
	}
	return nil
}
