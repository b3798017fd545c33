package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authsession-go/internal/infra/buildinfo"
	"github.com/yndnr/authsession-go/internal/infra/shutdown"
)

// ShutdownTimeout bounds the cleanup hooks run after a command.
const ShutdownTimeout = 5 * time.Second

const shutdownKey = "shutdown"

// App creates the CLI application. Cleanup (closing the store, writing the
// metrics textfile) is registered on h and run after the command; a nil h
// gets a private handler.
func App(h *shutdown.Handler) *cli.App {
	if h == nil {
		h = shutdown.NewHandler(ShutdownTimeout)
	}

	return &cli.App{
		Name:                 "authsession",
		Usage:                "Sign in to a backend and send authorized requests",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			LoginCommand(),
			RegisterCommand(),
			LogoutCommand(),
			RefreshCommand(),
			StatusCommand(),
			WhoamiCommand(),
			RequestCommand(),
			ConfigCommand(),
			VersionCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			c.App.Metadata[shutdownKey] = h
			return nil
		},
		After: func(c *cli.Context) error {
			if err := h.Shutdown(); err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ~/.authsession/config.yaml)",
			EnvVars: []string{"AUTHSESSION_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Backend base URL (e.g., http://localhost:3001/api)",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Token store backend: badger, redis, memory",
		},
		&cli.StringFlag{
			Name:  "store-dir",
			Usage: "Badger data directory",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// flagOverrides maps global flags the user set onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := map[string]any{}
	set := func(flag, key string) {
		if c.IsSet(flag) {
			flags[key] = c.String(flag)
		}
	}
	set("base-url", "api.base_url")
	set("store", "store.backend")
	set("store-dir", "store.dir")
	set("output", "output")
	if c.Bool("verbose") {
		flags["log.level"] = "debug"
	}
	return flags
}

func shutdownHandler(c *cli.Context) *shutdown.Handler {
	if h, ok := c.App.Metadata[shutdownKey].(*shutdown.Handler); ok {
		return h
	}
	return shutdown.NewHandler(ShutdownTimeout)
}
