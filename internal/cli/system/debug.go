package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/daykey"
	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/models"
)

type DebugCmd struct {
	DBPath   DebugDBPathCmd   `cmd:"" name:"db-path" help:"Show database location."`
	DumpDay  DebugDumpDayCmd  `cmd:"" help:"Dump a day's diary entry and todos as JSON."`
	DumpTodo DebugDumpTodoCmd `cmd:"" help:"Dump a todo as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	// Output in machine-readable format
	output := map[string]string{
		"path":   ctx.Store.GetConfigPath(),
		"source": string(ctx.Database.Source),
	}
	return printJSON(ctx, output)
}

type DebugDumpDayCmd struct {
	Date string `arg:"" help:"Day to dump (YYYY-MM-DD or 'today')." default:"today"`
}

// dayDump is the raw stored state of one day.
type dayDump struct {
	DayKey string             `json:"day_key"`
	Diary  *models.DiaryEntry `json:"diary"`
	Todos  []models.TodoItem  `json:"todos"`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	t, err := ctx.ResolveDate(cmd.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", cmd.Date)
	}
	key := daykey.Key(t)

	dump := dayDump{DayKey: key, Todos: []models.TodoItem{}}
	entry, err := ctx.Store.FindDiaryEntryByDayKey(key)
	switch {
	case err == nil:
		dump.Diary = &entry
	case !errors.Is(err, myerrors.ErrNotFound):
		return fmt.Errorf("failed to get diary entry: %w", err)
	}

	todos, err := ctx.Store.FindTodosByDayKey(key)
	if err != nil {
		return fmt.Errorf("failed to get todos: %w", err)
	}
	if todos != nil {
		dump.Todos = todos
	}
	return printJSON(ctx, dump)
}

type DebugDumpTodoCmd struct {
	ID string `arg:"" help:"ID of the todo to dump."`
}

func (cmd *DebugDumpTodoCmd) Run(ctx *cli.Context) error {
	todos, err := ctx.Store.GetAllTodos()
	if err != nil {
		return fmt.Errorf("failed to get todos: %w", err)
	}
	for _, item := range todos {
		if item.ID == cmd.ID {
			return printJSON(ctx, item)
		}
	}
	return fmt.Errorf("todo not found: %s", cmd.ID)
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(ctx.Out(), string(jsonBytes))
	return nil
}
