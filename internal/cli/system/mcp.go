package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/mydiary/internal/cli"
	"github.com/julianstephens/mydiary/internal/constants"
	"github.com/julianstephens/mydiary/internal/instance"
	"github.com/julianstephens/mydiary/internal/logger"
	"github.com/julianstephens/mydiary/internal/mcp"
)

// McpCmd serves the diary and todo tools over stdio. stdout carries the
// protocol, so nothing else may be printed there.
type McpCmd struct{}

func (c *McpCmd) Run(ctx *cli.Context) error {
	lock, err := instance.Acquire(ctx.ConfigDir)
	if err != nil {
		if errors.Is(err, instance.ErrAlreadyRunning) {
			return fmt.Errorf("%w; the MCP server cannot share the store with another %s", err, constants.AppName)
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release instance lock", "error", err)
		}
	}()

	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	srv := mcp.NewServer(ctx.Store, loc, mcp.WithClock(ctx.Clock), mcp.WithIDGenerator(ctx.IDGenerator()))
	logger.Info("Starting MCP server", "store", ctx.Store.GetConfigPath(), "tools", len(mcp.ToolNames()))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("MCP server stopped: %w", err)
	}
	return nil
}
