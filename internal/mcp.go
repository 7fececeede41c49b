package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/kenaz-focus/internal/mcpserver"
)

// RunMCP serves the Recent Focus tools over stdio. Logs go to stderr
// because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	c, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	srv := mcpserver.New(c.notes, c.ctrl, c.refresher, cfg.Focus.PreviewChars, app.version)
	logger.Info("MCP server starting", slog.String("vault_path", cfg.Vault.Path))
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp serve: %w", err)
	}
	return nil
}
