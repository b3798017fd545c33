package command

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/core/service"
)

// RequestCommand returns the request subcommand group.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:    "request",
		Aliases: []string{"req"},
		Usage:   "Send an authorized request to a business endpoint",
		Subcommands: []*cli.Command{
			requestSubcommand(http.MethodGet, false),
			requestSubcommand(http.MethodPost, true),
			requestSubcommand(http.MethodPut, true),
			requestSubcommand(http.MethodDelete, false),
		},
	}
}

func requestSubcommand(method string, withBody bool) *cli.Command {
	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Extra header as 'Name: value' (repeatable)",
		},
	}
	if withBody {
		flags = append(flags, &cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "JSON request body",
		})
	}

	return &cli.Command{
		Name:      strings.ToLower(method),
		Usage:     fmt.Sprintf("Send a %s request", method),
		ArgsUsage: "PATH",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			return sendRequest(c, method)
		},
	}
}

func sendRequest(c *cli.Context, method string) error {
	path := c.Args().First()
	if path == "" {
		return domain.ErrValidation.WithDetails("request path required")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req := service.Request{Method: method, Path: path}

	if data := c.String("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return domain.ErrValidation.WithDetails("--data is not valid JSON")
		}
		req.Body = json.RawMessage(data)
	}

	header, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return err
	}
	req.Header = header

	rt, err := getRuntime(c)
	if err != nil {
		return err
	}

	var payload json.RawMessage
	if err := rt.pipeline.Send(rt.context(c), req, &payload); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return rt.print(payload)
}

func parseHeaders(values []string) (http.Header, error) {
	if len(values) == 0 {
		return nil, nil
	}
	header := make(http.Header, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, domain.ErrValidation.WithDetails(fmt.Sprintf("invalid header %q, want 'Name: value'", v))
		}
		header.Add(name, strings.TrimSpace(value))
	}
	return header, nil
}
