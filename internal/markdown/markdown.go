// Package markdown renders diary text for the terminal.
package markdown

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"github.com/julianstephens/mydiary/internal/models"
)

// Style picks the glamour palette.
type Style int

const (
	StylePlain Style = iota
	StyleDark
	StyleLight
)

type renderer interface {
	Render(string) (string, error)
}

type cacheKey struct {
	width int
	style Style
}

var (
	rendererMu sync.Mutex
	renderers  = map[cacheKey]renderer{}
)

// StyleFor maps a theme mode to a palette. System mode follows the
// terminal background; output that is not a terminal stays plain.
func StyleFor(mode models.ThemeMode, darkBackground, tty bool) Style {
	if !tty {
		return StylePlain
	}
	switch mode {
	case models.ThemeDark:
		return StyleDark
	case models.ThemeLight:
		return StyleLight
	default:
		if darkBackground {
			return StyleDark
		}
		return StyleLight
	}
}

// ColorEnabled reports whether f should get ANSI output.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or fallback when unknown.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

func styleConfig(style Style) ansi.StyleConfig {
	switch style {
	case StyleDark:
		return styles.DarkStyleConfig
	case StyleLight:
		return styles.LightStyleConfig
	default:
		cfg := styles.ASCIIStyleConfig
		cfg.Item.BlockPrefix = "- "
		return cfg
	}
}

func markdownRenderer(width int, style Style) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	key := cacheKey{width: width, style: style}
	if cached, ok := renderers[key]; ok {
		return cached
	}
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig(style)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = created
	return created
}

// Render formats diary text as Markdown. When rendering fails the text is
// word-wrapped instead.
func Render(input string, width int, style Style) string {
	value := strings.TrimRight(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if width < 1 {
		width = 1
	}

	r := markdownRenderer(width, style)
	if r == nil {
		return Wrap(value, width)
	}
	rendered, ok := safeRender(r, value)
	if !ok {
		return Wrap(value, width)
	}
	return strings.TrimRight(rendered, "\n")
}

func safeRender(r renderer, value string) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	rendered, err := r.Render(value)
	if err != nil {
		return "", false
	}
	return rendered, true
}

// Wrap word-wraps plain text to width.
func Wrap(input string, width int) string {
	if width < 1 {
		return input
	}
	return wordwrap.String(input, width)
}
