// Package main provides the entry point for the authsession CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/authsession-go/internal/cli/command"
	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/infra/shutdown"
)

func main() {
	h := shutdown.NewHandler(command.ShutdownTimeout)
	ctx, stop := h.Context(context.Background())

	err := command.App(h).RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", domain.UserMessage(err))
		os.Exit(1)
	}
}
