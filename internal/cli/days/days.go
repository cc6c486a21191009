package days

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/cli/diaries"
	"github.com/julianstephens/mydiary/internal/daykey"
	myerrors "github.com/julianstephens/mydiary/internal/errors"
	"github.com/julianstephens/mydiary/internal/export"
	"github.com/julianstephens/mydiary/internal/models"
)

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Day (YYYY-MM-DD, today, yesterday or tomorrow)." default:"today"`
	Raw  bool   `help:"Print Markdown without rendering."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	t, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	key := daykey.Key(t)

	todos, err := ctx.Store.FindTodosByDayKey(key)
	if err != nil {
		return fmt.Errorf("failed to get todos: %w", err)
	}
	content := ""
	entry, err := ctx.Store.FindDiaryEntryByDayKey(key)
	switch {
	case err == nil:
		content = entry.Content
	case !errors.Is(err, myerrors.ErrNotFound):
		return fmt.Errorf("failed to get diary entry: %w", err)
	}

	doc := export.DayMarkdown(key, content, todos)
	if len(todos) == 0 && models.IsBlank(content) {
		doc += "\nNothing recorded for this day.\n"
	}

	mode := models.ThemeSystem
	if settings, err := ctx.Settings(); err == nil {
		mode = settings.ThemeMode
	}
	fmt.Fprintln(ctx.Out(), diaries.Render(ctx.Out(), doc, mode, c.Raw))
	return nil
}

type MonthCmd struct {
	Month string `arg:"" optional:"" help:"Month to show (YYYY-MM). Defaults to the current month."`
}

func (c *MonthCmd) Run(ctx *cli.Context) error {
	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	now := ctx.Clock().In(loc)

	month := now
	if c.Month != "" {
		if month, err = daykey.ParseMonth(c.Month, loc); err != nil {
			return err
		}
	}

	start, end := daykey.MonthBounds(month)
	summaries, err := ctx.Store.GetDaySummaries(start, end)
	if err != nil {
		return fmt.Errorf("failed to get day summaries: %w", err)
	}
	byDay := make(map[string]models.DaySummary, len(summaries))
	for _, s := range summaries {
		byDay[s.DayKey] = s
	}

	out := ctx.Out()
	fmt.Fprint(out, Calendar(month, now, byDay))

	fmt.Fprintln(out)
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No entries this month.")
		return nil
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, s := range summaries {
		diary := ""
		if s.HasDiary {
			diary = "diary"
		}
		todos := ""
		if s.TodoTotal > 0 {
			todos = fmt.Sprintf("%d/%d todos done", s.TodoCompleted, s.TodoTotal)
		}
		tbl.AddRow(s.DayKey, diary, todos)
	}
	fmt.Fprintln(out, tbl)
	return nil
}

// Calendar renders the month containing month as a Sunday-first grid. Days
// with a diary entry are marked "*", days with only todos "+", and today is
// highlighted.
func Calendar(month, now time.Time, byDay map[string]models.DaySummary) string {
	var b strings.Builder

	header := month.Format("January 2006")
	pad := (7*4 - len(header)) / 2
	color.New(color.Bold).Fprintf(&b, "%s%s\n", strings.Repeat(" ", pad), header)
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")

	marked := color.New(color.FgCyan, color.Bold)
	today := color.New(color.ReverseVideo)
	for _, week := range daykey.MonthGrid(month) {
		var row strings.Builder
		for _, day := range week {
			if day.IsZero() {
				row.WriteString("    ")
				continue
			}
			s, ok := byDay[daykey.Key(day)]
			mark := " "
			switch {
			case ok && s.HasDiary:
				mark = "*"
			case ok && s.TodoTotal > 0:
				mark = "+"
			}

			cell := fmt.Sprintf("%3d", day.Day())
			switch {
			case daykey.SameDay(day, now):
				cell = today.Sprint(cell)
			case mark != " ":
				cell = marked.Sprint(cell)
			}
			row.WriteString(cell + mark)
		}
		b.WriteString(strings.TrimRight(row.String(), " "))
		b.WriteString("\n")
	}
	return b.String()
}
