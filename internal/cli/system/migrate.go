package system

import (
	"fmt"

	"github.com/julianstephens/mydiary/internal/cli"
)

type MigrateCmd struct {
	Status bool `help:"Show the schema version without applying migrations."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()

	migrator, ok := ctx.Store.(cli.Migrator)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	st, err := migrator.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if c.Status {
		fmt.Fprintf(out, "Current schema version: %d\n", st.Current)
		fmt.Fprintf(out, "Latest schema version:  %d\n", st.Latest)
		for _, m := range st.Pending {
			fmt.Fprintf(out, "  pending %d: %s\n", m.Version, m.Name)
		}
		return nil
	}

	cli.SetMigrationLog(ctx.Store, func(msg string) {
		fmt.Fprintln(out, msg)
	})
	defer cli.SetMigrationLog(ctx.Store, nil)

	if err := migrator.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if len(st.Pending) == 0 {
		fmt.Fprintln(out, "No migrations to apply. Database is up to date.")
	} else {
		fmt.Fprintf(out, "\nSuccessfully applied %d migration(s).\n", len(st.Pending))
	}
	return nil
}
