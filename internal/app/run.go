package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/swiftrun/internal/advisory"
	"github.com/five82/swiftrun/internal/logging"
	"github.com/five82/swiftrun/internal/ui"
)

// Run boots the TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	env, err := Open(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	stop := env.Start(ctx)
	defer stop()
	env.resumeInBackground(ctx)
	logger.Info("swiftrun started", "remote", env.Client.BaseURL(), "db", cfg.DatabasePath())

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	err = ui.Run(ui.Options{
		Context:   ctx,
		Store:     env.Store,
		Sync:      env.Sync,
		Advisor:   advisory.Summary{},
		LogPath:   cfg.LogPath(),
		ExportDir: cwd,
		PollTick:  defaultUITick,
		ThemeName: env.Prefs.Theme,
		PrefsPath: env.PrefsPath,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
