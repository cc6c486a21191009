package todos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/models"
)

// dateFlag is shared by every todo command.
type dateFlag struct {
	Date string `short:"d" help:"Day (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
}

func openDay(ctx *cli.Context, date string) (*cli.Day, error) {
	day, err := ctx.OpenDay(date)
	if err != nil {
		return nil, err
	}
	if err := day.LoadErr(); err != nil {
		day.Close()
		return nil, err
	}
	return day, nil
}

func parseDue(due string, loc *time.Location) (*time.Time, error) {
	if due == "" {
		return nil, nil
	}
	t, err := daykey.ParseDue(due, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type TodoAddCmd struct {
	dateFlag
	Title    string `arg:"" help:"Todo title."`
	Category string `short:"c" help:"Category (study, personal, assignment, other)." default:"other"`
	Due      string `help:"Due date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")."`
}

func (c *TodoAddCmd) Run(ctx *cli.Context) error {
	category, err := models.ParseCategory(c.Category)
	if err != nil {
		return err
	}
	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	due, err := parseDue(c.Due, day.Sel.Location())
	if err != nil {
		return err
	}
	if err := day.Todos.Add(c.Title, category, due); err != nil {
		return fmt.Errorf("failed to add todo: %w", err)
	}

	fmt.Fprintf(ctx.Out(), "✓ Added todo to %s: %s\n", day.Sel.Key(), c.Title)
	return nil
}

type TodoListCmd struct {
	dateFlag
	Category string `short:"c" help:"Only show one category."`
	Pending  bool   `help:"Only show pending todos."`
	JSON     bool   `name:"json" help:"Print the list as JSON."`
}

func (c *TodoListCmd) Run(ctx *cli.Context) error {
	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	items := day.Todos.Items()
	if c.Category != "" {
		category, err := models.ParseCategory(c.Category)
		if err != nil {
			return err
		}
		items = day.Todos.Filter(category)
	}
	if c.Pending {
		var pending []models.TodoItem
		for _, item := range items {
			if !item.IsCompleted {
				pending = append(pending, item)
			}
		}
		items = pending
	}

	if c.JSON {
		if items == nil {
			items = []models.TodoItem{}
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal todos: %w", err)
		}
		fmt.Fprintln(ctx.Out(), string(data))
		return nil
	}

	PrintDay(ctx, day)
	return nil
}

// PrintDay writes the day's header and its numbered todo table. Positions
// are those of the unfiltered list so they can be passed to toggle, edit
// and delete.
func PrintDay(ctx *cli.Context, day *cli.Day) {
	out := ctx.Out()
	current := day.Sel.Current()

	title := color.New(color.Bold, color.Underline)
	title.Fprintf(out, "Todos for %s (%s)", daykey.Display(current), day.Sel.Key())
	fmt.Fprintf(out, ": %d/%d done\n", day.Todos.CompletedCount(), day.Todos.TotalCount())

	items := day.Todos.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "  No todos for this day.")
		return
	}
	fmt.Fprintln(out, Table(items, ctx.Clock()))
}

// Table renders items as an aligned table with 1-based positions. Pending
// items due before now are highlighted.
func Table(items []models.TodoItem, now time.Time) *uitable.Table {
	done := color.New(color.Faint)
	overdue := color.New(color.FgRed)

	tbl := uitable.New()
	tbl.Separator = "  "
	for i, item := range items {
		mark := "[ ]"
		if item.IsCompleted {
			mark = "[x]"
		}
		due := ""
		if item.DueDate != nil {
			due = "due " + item.DueDate.Format(constants.DueFormat)
		}

		titleText := item.Title
		if item.IsCompleted {
			titleText = done.Sprint(item.Title)
		} else if item.DueDate != nil && item.DueDate.Before(now) {
			due = overdue.Sprint(due)
		}
		tbl.AddRow(fmt.Sprintf("%2d", i+1), mark, titleText, item.Category.Label(), due, shortID(item.ID))
	}
	return tbl
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type TodoToggleCmd struct {
	dateFlag
	Ref string `arg:"" help:"Position in 'todo list' or todo ID."`
}

func (c *TodoToggleCmd) Run(ctx *cli.Context) error {
	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	item, _, err := day.FindTodo(c.Ref)
	if err != nil {
		return err
	}
	if err := day.Todos.ToggleCompletion(item); err != nil {
		return fmt.Errorf("failed to toggle todo: %w", err)
	}

	state := "done"
	if item.IsCompleted {
		state = "pending"
	}
	fmt.Fprintf(ctx.Out(), "✓ Marked %q as %s (%d/%d done)\n", item.Title, state, day.Todos.CompletedCount(), day.Todos.TotalCount())
	return nil
}

type TodoEditCmd struct {
	dateFlag
	Ref      string  `arg:"" help:"Position in 'todo list' or todo ID."`
	Title    *string `help:"New title."`
	Category *string `short:"c" help:"New category."`
	Due      *string `help:"New due date, or \"\" to clear it."`
}

func (c *TodoEditCmd) Run(ctx *cli.Context) error {
	if c.Title == nil && c.Category == nil && c.Due == nil {
		return fmt.Errorf("no changes specified. Use --title, --category or --due")
	}

	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	item, _, err := day.FindTodo(c.Ref)
	if err != nil {
		return err
	}

	title, category, due := item.Title, item.Category, item.DueDate
	if c.Title != nil {
		title = *c.Title
	}
	if c.Category != nil {
		if category, err = models.ParseCategory(*c.Category); err != nil {
			return err
		}
	}
	if c.Due != nil {
		if due, err = parseDue(*c.Due, day.Sel.Location()); err != nil {
			return err
		}
	}

	if err := day.Todos.Update(item, title, category, due); err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	fmt.Fprintf(ctx.Out(), "✓ Updated todo: %s\n", title)
	return nil
}

type TodoDeleteCmd struct {
	dateFlag
	Refs []string `arg:"" help:"Positions in 'todo list' or todo IDs."`
}

func (c *TodoDeleteCmd) Run(ctx *cli.Context) error {
	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	positions := make([]int, 0, len(c.Refs))
	for _, ref := range c.Refs {
		_, pos, err := day.FindTodo(ref)
		if err != nil {
			return err
		}
		positions = append(positions, pos)
	}

	before := day.Todos.TotalCount()
	if err := day.Todos.DeleteAt(positions); err != nil {
		return fmt.Errorf("failed to delete todos: %w", err)
	}
	fmt.Fprintf(ctx.Out(), "✓ Deleted %d todo(s) from %s\n", before-day.Todos.TotalCount(), day.Sel.Key())
	return nil
}
