package cli

import (
	"context"
	"fmt"

	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/booking"
)

func (c *CLI) syncCommand() *Command {
	return &Command{
		Name:    "sync",
		Summary: "Share the run with other devices through the blob service",
		Subcommands: []*Command{
			{
				Name:    "bootstrap",
				Summary: "Create a new shared blob from the local run and print its key",
				Run: func([]string) error {
					return c.withEnv(func(ctx context.Context, env *app.Env) error {
						key, err := env.Sync.Bootstrap(ctx)
						if err != nil {
							return err
						}
						c.printf("Sync key: %s\n", key)
						return nil
					})
				},
			},
			{
				Name:    "join",
				Summary: "Adopt the run stored under an existing key",
				Usage:   "swiftrun sync join <key>",
				Run: func(args []string) error {
					if err := exactArgs("sync join", args, 1, "<key>"); err != nil {
						return err
					}
					return c.withEnv(func(ctx context.Context, env *app.Env) error {
						if err := env.Sync.Join(ctx, args[0]); err != nil {
							return err
						}
						c.printf("Joined %s: %d booking(s).\n", args[0], len(env.Store.Bookings()))
						return nil
					})
				},
			},
			{
				Name:    "disconnect",
				Summary: "Forget the sync key; remote data is left alone",
				Run: func([]string) error {
					return c.withEnv(func(ctx context.Context, env *app.Env) error {
						env.Sync.Disconnect()
						c.printf("Disconnected.\n")
						return nil
					})
				},
			},
			{
				Name:    "status",
				Summary: "Show the sync session",
				Run: func([]string) error {
					return c.withEnv(func(ctx context.Context, env *app.Env) error {
						st := env.Sync.Status()
						c.printf("State:     %s\n", st.State)
						if st.Key != "" {
							c.printf("Key:       %s\n", st.Key)
						}
						c.printf("Remote:    %s\n", env.Client.BaseURL())
						if !st.LastSync.IsZero() {
							c.printf("Last sync: %s\n", booking.FormatTimestamp(st.LastSync))
						}
						if st.LastError != nil {
							c.printf("Error:     %v\n", st.LastError)
						}
						c.printf("Pushes %d, polls %d, adoptions %d, guarded %d\n",
							st.Pushes, st.Polls, st.Adoptions, st.GuardedOverwrites)
						return nil
					})
				},
			},
			{
				Name:    "push",
				Summary: "Upload the local run now",
				Run: func([]string) error {
					return c.withEnv(func(ctx context.Context, env *app.Env) error {
						if err := env.Sync.Push(ctx); err != nil {
							return err
						}
						c.printf("Pushed %d booking(s).\n", len(env.Store.Bookings()))
						return nil
					})
				},
			},
			{
				Name:    "pull",
				Summary: "Fetch the remote run and reconcile now",
				Run: func([]string) error {
					return c.withEnv(func(ctx context.Context, env *app.Env) error {
						if err := env.Sync.Poll(ctx); err != nil {
							return fmt.Errorf("pull: %w", err)
						}
						c.printf("Up to date: %d booking(s).\n", len(env.Store.Bookings()))
						return nil
					})
				},
			},
		},
	}
}
