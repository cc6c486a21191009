package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/instance"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/tui"
)

type TuiCmd struct {
	Date string `arg:"" optional:"" help:"Day to open (YYYY-MM-DD, today, yesterday or tomorrow)."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	lock, err := instance.Acquire(ctx.ConfigDir)
	if err != nil {
		if errors.Is(err, instance.ErrAlreadyRunning) {
			return fmt.Errorf("%w; close it before starting another %s", err, constants.AppName)
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release instance lock", "error", err)
		}
	}()

	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	day, err := ctx.OpenDay(c.Date)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(ctx.Store, day.Sel, day.Todos, day.Diary, settings), tea.WithAltScreen())
	_, runErr := p.Run()

	// the model flushes on quit; this catches a program that exited on error
	if err := day.Close(); err != nil {
		logger.Error("Failed to save diary on exit", "error", err)
		if runErr == nil {
			return fmt.Errorf("failed to save diary: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("TUI exited with error: %w", runErr)
	}
	return nil
}
