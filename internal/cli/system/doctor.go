package system

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/instance"
	"github.com/julianstephens/mydiary/internal/validation"
)

type DoctorCmd struct{}

// doctorCheck is one line of the diagnostics report. A check that needs the
// database is skipped when the database could not be loaded; a warning
// does not fail the run.
type doctorCheck struct {
	name    string
	needsDB bool
	warning bool
	run     func(ctx *cli.Context) error
}

// errSkipped marks a check that does not apply to the current store.
type errSkipped struct{ reason string }

func (e errSkipped) Error() string { return e.reason }

var doctorChecks = []doctorCheck{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warning: true, run: checkBackupsPresent},
	{name: "Data validation", needsDB: true, run: checkValidation},
	{name: "Clock/timezone", needsDB: true, run: checkClockTimezone},
	{name: "Running instance", warning: true, run: checkRunningInstance},
	{name: "Config file", run: checkConfigFile},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false

	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		report(out, "Database reachable", err, false)
		hasError = true
		dbReachable = false
	} else {
		fmt.Fprintf(out, "✓ Database reachable: OK\n")
	}

	for _, check := range doctorChecks {
		if check.needsDB && !dbReachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (database not reachable)\n", check.name)
			continue
		}
		if report(out, check.name, check.run(ctx), check.warning) {
			hasError = true
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

// report prints the outcome of one check and reports whether it failed.
func report(out io.Writer, name string, err error, warning bool) bool {
	var skipped errSkipped
	switch {
	case err == nil:
		fmt.Fprintf(out, "✓ %s: OK\n", name)
	case errors.As(err, &skipped):
		fmt.Fprintf(out, "⊘ %s: SKIPPED (%s)\n", name, skipped.reason)
	case warning:
		fmt.Fprintf(out, "⚠ %s: WARNING\n", name)
		fmt.Fprintf(out, "   %v\n", err)
	default:
		fmt.Fprintf(out, "❌ %s: FAIL\n", name)
		fmt.Fprintf(out, "   Error: %v\n", err)
		return true
	}
	return false
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(cli.Migrator)
	if !ok {
		return errSkipped{"store has no schema"}
	}
	st, err := migrator.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if st.Current > st.Latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", st.Current, st.Latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(cli.Migrator)
	if !ok {
		return errSkipped{"store has no schema"}
	}
	st, err := migrator.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d - run '%s migrate'", st.Current, st.Latest, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return errSkipped{"not a SQLite database"}
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	entries, err := ctx.Store.GetAllDiaryEntries()
	if err != nil {
		return fmt.Errorf("failed to get diary entries: %w", err)
	}
	todos, err := ctx.Store.GetAllTodos()
	if err != nil {
		return fmt.Errorf("failed to get todos: %w", err)
	}

	result := validation.New().Validate(entries, todos)
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found - run '%s validate' for details", len(result.Conflicts), constants.AppName)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Clock()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if _, err := daykey.LoadLocation(settings.Timezone); err != nil {
		return err
	}
	return nil
}

func checkRunningInstance(ctx *cli.Context) error {
	if pid, ok := instance.Running(ctx.ConfigDir); ok && pid != os.Getpid() {
		return fmt.Errorf("another %s instance is running (pid %d); stop it before restoring backups", constants.AppName, pid)
	}
	return nil
}

func checkConfigFile(ctx *cli.Context) error {
	if ctx.Config == nil || ctx.Config.Path == "" {
		return errSkipped{"no config file"}
	}
	if _, err := os.Stat(ctx.Config.Path); os.IsNotExist(err) {
		return errSkipped{"no config file at " + ctx.Config.Path}
	}
	return ctx.Config.Validate()
}
