package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/config"
	"github.com/five82/swiftrun/internal/logging"
)

// CLI holds what every command needs: the app options from the global
// flags, output streams, and the hooks tests replace.
type CLI struct {
	Options app.Options
	Out     io.Writer
	Err     io.Writer
	Now     func() time.Time
	// RunUI starts the interactive program. Nil uses app.Run.
	RunUI func(ctx context.Context, opts app.Options) error

	ctx context.Context
}

// Execute parses the global flags and runs the named command. With no
// command the TUI starts.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &CLI{Out: stdout, Err: stderr, Now: time.Now}

	global := pflag.NewFlagSet("swiftrun", pflag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.SetInterspersed(false)
	global.StringVar(&c.Options.ConfigPath, "config", config.DefaultPath(), "path to config.toml")
	global.StringVar(&c.Options.PrefsPath, "prefs", "", "path to prefs.toml (default ~/.config/swiftrun/prefs.toml)")
	global.IntVar(&c.Options.PollEvery, "poll", 0, "sync poll interval in seconds (overrides config)")
	if err := global.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			root := c.Root(ctx)
			root.PrintHelp(stderr)
			fmt.Fprintf(stderr, "\nGlobal flags:\n%s", global.FlagUsages())
			return nil
		}
		return err
	}
	return c.Root(ctx).Execute(global.Args(), stderr)
}

// Root builds the command tree bound to ctx.
func (c *CLI) Root(ctx context.Context) *Command {
	c.ctx = ctx
	if c.Now == nil {
		c.Now = time.Now
	}
	return &Command{
		Name:    "swiftrun",
		Summary: "SwiftRun delivery run sheet",
		Usage:   "swiftrun [--config path] [--prefs path] [command]",
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return c.runUI()
		},
		Subcommands: []*Command{
			{Name: "ui", Summary: "Open the interactive run sheet (default)", Run: func([]string) error { return c.runUI() }},
			c.addCommand(),
			c.listCommand(),
			c.moveCommand(),
			c.toggleCommand(),
			c.deliverCommand(),
			c.deleteCommand(),
			c.customersCommand(),
			c.exportCommand(),
			c.labelsCommand(),
			c.adviseCommand(),
			c.syncCommand(),
			c.archiveCommand(),
			c.logsCommand(),
		},
	}
}

func (c *CLI) runUI() error {
	run := c.RunUI
	if run == nil {
		run = app.Run
	}
	return run(c.ctx, c.Options)
}

// withEnv opens the local data, starts the store and sync loops, resumes
// the remembered sync session, runs fn, and pushes before returning.
// A remote that cannot be reached only produces a warning: local edits
// always apply.
func (c *CLI) withEnv(fn func(ctx context.Context, env *app.Env) error) error {
	ctx := c.ctx
	cfg, err := app.LoadConfig(c.Options)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	env, err := app.Open(ctx, cfg, c.Options, logger.With("source", "cli"))
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	stop := env.Start(ctx)
	defer stop()

	if err := env.ResumeSaved(ctx); err != nil {
		c.warn("sync unavailable: %v", err)
	}
	if err := fn(ctx, env); err != nil {
		return err
	}
	if err := env.Flush(ctx); err != nil {
		c.warn("saved locally, remote not updated: %v", err)
	}
	return nil
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *CLI) warn(format string, args ...any) {
	fmt.Fprintf(c.Err, "warning: "+format+"\n", args...)
}

// workingDir is where exports and backups land when no path is given.
func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
