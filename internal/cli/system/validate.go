package system

import (
	"fmt"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Remove duplicate and blank diary entries."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()

	entries, err := ctx.Store.GetAllDiaryEntries()
	if err != nil {
		return fmt.Errorf("failed to load diary entries: %w", err)
	}
	todos, err := ctx.Store.GetAllTodos()
	if err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}

	fmt.Fprintln(out, "Validating diary entries and todos...")
	result := validation.New().Validate(entries, todos)
	fmt.Fprintln(out)
	fmt.Fprint(out, result.FormatReport())
	if !result.HasConflicts() {
		fmt.Fprintln(out)
		return nil
	}

	if !cmd.Fix {
		return nil
	}

	actions := validation.AutoFixDuplicateEntries(result.Conflicts, entries, ctx.Store.DeleteDiaryEntry)
	actions = append(actions, validation.AutoFixBlankEntries(result.Conflicts, ctx.Store.DeleteDiaryEntry)...)
	if len(actions) == 0 {
		fmt.Fprintln(out, "\nNothing can be fixed automatically.")
		return nil
	}
	if err := ctx.Store.Persist(); err != nil {
		return fmt.Errorf("failed to apply fixes: %w", err)
	}

	fmt.Fprintln(out, "\nApplied fixes:")
	for _, a := range actions {
		fmt.Fprintf(out, "- %s\n", a.Action)
	}
	return nil
}
