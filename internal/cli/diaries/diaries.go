package diaries

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/daykey"
	"github.com/julianstephens/mydiary/internal/markdown"
	"github.com/julianstephens/mydiary/internal/models"
)

const defaultWidth = 80

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

type DiaryShowCmd struct {
	dateFlag
	Raw bool `help:"Print the stored text without Markdown rendering."`
}

func (c *DiaryShowCmd) Run(ctx *cli.Context) error {
	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	out := ctx.Out()
	title := color.New(color.Bold, color.Underline)
	title.Fprintf(out, "Diary for %s (%s)", daykey.Display(day.Sel.Current()), day.Sel.Key())
	fmt.Fprintln(out)

	content := day.Diary.Content()
	if models.IsBlank(content) {
		fmt.Fprintln(out, "  No diary entry for this day.")
		return nil
	}
	if saved, ok := day.Diary.LastSaved(); ok {
		saved = saved.In(day.Sel.Location())
		fmt.Fprintf(out, "Last saved %s %s\n", daykey.Key(saved), daykey.Clock(saved))
	}
	fmt.Fprintln(out)

	mode := models.ThemeSystem
	if settings, err := ctx.Settings(); err == nil {
		mode = settings.ThemeMode
	}
	fmt.Fprintln(out, Render(out, content, mode, c.Raw))
	return nil
}

// Render formats diary text for w. Only terminals get Markdown styling;
// anything else receives the text as stored.
func Render(w io.Writer, content string, mode models.ThemeMode, raw bool) string {
	f, ok := w.(*os.File)
	if raw || !ok || !markdown.ColorEnabled(f) {
		return strings.TrimRight(content, "\n")
	}
	style := markdown.StyleFor(mode, lipgloss.HasDarkBackground(), true)
	return markdown.Render(content, markdown.Width(f, defaultWidth), style)
}

type DiaryWriteCmd struct {
	dateFlag
	Text   []string `arg:"" optional:"" help:"Entry text. Read from stdin when omitted."`
	Append bool     `short:"a" help:"Append to the existing entry instead of replacing it."`
}

func (c *DiaryWriteCmd) Run(ctx *cli.Context) error {
	text := strings.Join(c.Text, " ")
	if len(c.Text) == 0 {
		data, err := io.ReadAll(ctx.In())
		if err != nil {
			return fmt.Errorf("failed to read entry from stdin: %w", err)
		}
		text = string(data)
	}

	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	content := text
	if existing := day.Diary.Content(); c.Append && !models.IsBlank(existing) {
		content = strings.TrimRight(existing, "\n") + "\n\n" + text
	}
	if models.IsBlank(content) {
		return fmt.Errorf("diary text is empty; use 'diary clear' to remove an entry")
	}

	day.Diary.SetContent(content)
	if err := day.Diary.Save(); err != nil {
		return fmt.Errorf("failed to save diary entry: %w", err)
	}
	fmt.Fprintf(ctx.Out(), "✓ Saved diary entry for %s\n", day.Sel.Key())
	return nil
}

type DiaryClearCmd struct {
	dateFlag
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *DiaryClearCmd) Run(ctx *cli.Context) error {
	day, err := openDay(ctx, c.Date)
	if err != nil {
		return err
	}
	defer day.Close()

	if models.IsBlank(day.Diary.Content()) {
		fmt.Fprintf(ctx.Out(), "No diary entry for %s\n", day.Sel.Key())
		return nil
	}
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete the diary entry for %s?", day.Sel.Key()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out(), "Aborted.")
			return nil
		}
	}

	day.Diary.SetContent("")
	if err := day.Diary.Save(); err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	fmt.Fprintf(ctx.Out(), "✓ Deleted diary entry for %s\n", day.Sel.Key())
	return nil
}
