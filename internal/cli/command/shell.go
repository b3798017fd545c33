package command

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authsession-go/internal/cli/repl"
	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/infra/shutdown"
)

const shellName = "shell"

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  shellName,
		Usage: "Run commands interactively against one in-memory session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "History file (default ~/.authsession/history)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write a history file",
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	rt, err := getRuntime(c)
	if err != nil {
		return err
	}

	ctx := rt.context(c)

	if rt.certs != nil {
		if err := rt.certs.Start(ctx); err != nil {
			rt.log.Warn("client certificate will not be reloaded", "error", err)
		}
		defer rt.certs.Stop()
	}

	unsubscribe := rt.session.Subscribe(func(st domain.SessionState) {
		rt.log.Debug("session changed", "phase", st.Phase, "authenticated", st.IsAuthenticated)
	})
	defer unsubscribe()

	historyFile := repl.DefaultHistoryFile()
	if c.IsSet("history-file") {
		historyFile = c.String("history-file")
	}
	if c.Bool("no-history") {
		historyFile = ""
	}

	var names []string
	for _, cmd := range c.App.Commands {
		if cmd.Name != shellName {
			names = append(names, cmd.Name)
		}
	}

	shell := repl.New(shellExecutor(c, rt), reader(c), errWriter(c),
		repl.WithCommands(names...),
		repl.WithHistory(repl.NewHistory(historyFile)),
	)
	return shell.Run(ctx)
}

// shellExecutor runs each line through a fresh App that shares rt, so the
// session outlives single commands while cleanup stays with the outer run.
func shellExecutor(c *cli.Context, rt *runtime) repl.Executor {
	return func(ctx context.Context, args []string) error {
		inner := App(shutdown.NewHandler(ShutdownTimeout))
		inner.Metadata = map[string]any{runtimeKey: rt}
		inner.Writer = writer(c)
		inner.ErrWriter = errWriter(c)
		inner.Reader = reader(c)

		err := inner.RunContext(ctx, append([]string{c.App.Name}, args...))
		if err != nil {
			return errors.New(domain.UserMessage(err))
		}
		return nil
	}
}

func reader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}
