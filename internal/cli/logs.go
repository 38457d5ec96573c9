package cli

import (
	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/logging"
	"github.com/five82/swiftrun/internal/logtail"
)

func (c *CLI) logsCommand() *Command {
	var lines int
	var level string
	return &Command{
		Name:    "logs",
		Summary: "Print the tail of the application log",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("logs", pflag.ContinueOnError)
			fs.IntVarP(&lines, "lines", "n", 200, "number of lines to read")
			fs.StringVar(&level, "level", "debug", "minimum level (debug, info, warn, error)")
			return fs
		},
		Run: func([]string) error {
			minLevel, err := logging.ParseLevel(level)
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig(c.Options)
			if err != nil {
				return err
			}
			tail, err := logtail.Read(cfg.LogPath(), lines)
			if err != nil {
				return err
			}
			for _, line := range logtail.Filter(tail, minLevel) {
				c.printf("%s\n", line)
			}
			return nil
		},
	}
}
