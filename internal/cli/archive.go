package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/archive"
	"github.com/five82/swiftrun/internal/view"
)

const backupTimeLayout = "20060102-150405"

func (c *CLI) archiveCommand() *Command {
	return &Command{
		Name:    "archive",
		Summary: "Inspect, back up, or restore the delivered-bookings ledger",
		Subcommands: []*Command{
			c.archiveListCommand(),
			c.archiveBackupCommand(),
			c.archiveRestoreCommand(),
			c.archiveWipeCommand(),
		},
	}
}

func (c *CLI) archiveListCommand() *Command {
	return &Command{
		Name:    "list",
		Summary: "Show archived deliveries, newest first",
		Run: func([]string) error {
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				records := env.Store.Snapshot().Archive
				if len(records) == 0 {
					c.printf("Archive is empty.\n")
					return nil
				}
				view.SortHistory(records)
				headers, rows := bookingRows(records, true)
				c.printf("%s\n", renderTable(headers, rows))
				return nil
			})
		},
	}
}

func (c *CLI) archiveBackupCommand() *Command {
	var out string
	return &Command{
		Name:    "backup",
		Summary: "Write a zstd-compressed backup of the archive",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("archive backup", pflag.ContinueOnError)
			fs.StringVarP(&out, "out", "o", "", "backup file (default swiftrun-archive-<time>.json.zst)")
			return fs
		},
		Run: func([]string) error {
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				path := out
				if path == "" {
					name := fmt.Sprintf("swiftrun-archive-%s.json.zst", c.Now().UTC().Format(backupTimeLayout))
					path = filepath.Join(workingDir(), name)
				}
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create backup: %w", err)
				}
				if err := env.Store.WriteArchiveBackup(ctx, file); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close backup: %w", err)
				}
				c.printf("Backed up %d record(s) to %s\n", len(env.Store.Snapshot().Archive), path)
				return nil
			})
		},
	}
}

func (c *CLI) archiveRestoreCommand() *Command {
	return &Command{
		Name:    "restore",
		Summary: "Merge records from a backup file into the archive",
		Usage:   "swiftrun archive restore <file>",
		Run: func(args []string) error {
			if err := exactArgs("archive restore", args, 1, "<file>"); err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup: %w", err)
			}
			defer file.Close()
			backup, err := archive.ReadBackup(file)
			if err != nil {
				return err
			}
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				n, err := env.Store.RestoreArchive(ctx, backup.Records)
				if err != nil {
					return err
				}
				c.printf("Restored %d of %d record(s).\n", n, len(backup.Records))
				return nil
			})
		},
	}
}

func (c *CLI) archiveWipeCommand() *Command {
	var confirm string
	return &Command{
		Name:    "wipe",
		Summary: "Clear the archive",
		Usage:   fmt.Sprintf("swiftrun archive wipe --confirm %q", archive.WipeConfirmation),
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("archive wipe", pflag.ContinueOnError)
			fs.StringVar(&confirm, "confirm", "", fmt.Sprintf("must be exactly %q", archive.WipeConfirmation))
			return fs
		},
		Run: func([]string) error {
			return c.withEnv(func(ctx context.Context, env *app.Env) error {
				if err := env.Store.WipeArchive(ctx, confirm); err != nil {
					return err
				}
				c.printf("Archive wiped.\n")
				return nil
			})
		},
	}
}
