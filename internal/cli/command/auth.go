package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authsession-go/internal/cli/output"
	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/core/service"
	"github.com/yndnr/authsession-go/internal/telemetry/logger"
)

// statusView is the printable form of the session. Tokens are masked.
type statusView struct {
	Phase         domain.Phase     `json:"phase"`
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
	AccessToken   string           `json:"accessToken,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
	ExpiresIn     string           `json:"expiresIn,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func (rt *runtime) status(st domain.SessionState) statusView {
	v := statusView{
		Phase:         st.Phase,
		Authenticated: st.IsAuthenticated,
		User:          st.Identity,
		Error:         st.Error,
	}
	if st.Tokens != nil && st.Tokens.AccessToken != "" {
		access := st.Tokens.AccessToken
		v.AccessToken = logger.MaskToken(access)
		if exp, ok := rt.inspector.ExpiresAt(access); ok {
			v.ExpiresAt = &exp
			v.ExpiresIn = rt.inspector.TimeLeft(access).Round(time.Second).String()
		}
	}
	return v
}

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (read from stdin when omitted)",
				EnvVars: []string{"AUTHSESSION_PASSWORD"},
			},
		},
		Action: login,
	}
}

func login(c *cli.Context) error {
	password, err := passwordFrom(c, "password", "Password: ")
	if err != nil {
		return err
	}
	creds := domain.Credentials{Email: strings.TrimSpace(c.String("email")), Password: password}
	if err := creds.Validate(); err != nil {
		return err
	}

	rt, err := getRuntime(c)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(errWriter(c), "Signing in...")
	spinner.Start()
	st := rt.session.Login(rt.context(c), creds)
	spinner.Stop()

	if st.Error != "" {
		return errors.New(st.Error)
	}
	return rt.print(rt.status(st))
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Display name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (read from stdin when omitted)",
				EnvVars: []string{"AUTHSESSION_PASSWORD"},
			},
			&cli.StringFlag{
				Name:  "confirm-password",
				Usage: "Password confirmation (defaults to --password)",
			},
		},
		Action: register,
	}
}

func register(c *cli.Context) error {
	password, err := passwordFrom(c, "password", "Password: ")
	if err != nil {
		return err
	}
	confirm := password
	if c.IsSet("confirm-password") {
		confirm = c.String("confirm-password")
	}

	data := domain.RegistrationData{
		Name:            strings.TrimSpace(c.String("name")),
		Email:           strings.TrimSpace(c.String("email")),
		Password:        password,
		ConfirmPassword: confirm,
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rt, err := getRuntime(c)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(errWriter(c), "Creating account...")
	spinner.Start()
	st := rt.session.Register(rt.context(c), data)
	spinner.Stop()

	if st.Error != "" {
		return errors.New(st.Error)
	}
	return rt.print(rt.status(st))
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and forget the stored tokens",
		Action: func(c *cli.Context) error {
			rt, err := getRuntime(c)
			if err != nil {
				return err
			}
			rt.session.Logout(rt.context(c))
			fmt.Fprintln(errWriter(c), "Logged out.")
			return nil
		},
	}
}

// RefreshCommand returns the refresh command.
func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Trade the stored refresh token for a new token pair",
		Action: func(c *cli.Context) error {
			rt, err := getRuntime(c)
			if err != nil {
				return err
			}
			if err := rt.session.Refresh(rt.context(c)); err != nil {
				return err
			}
			return rt.print(rt.status(rt.session.State()))
		},
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "require-auth",
				Usage: "Fail unless the session is authenticated, confirming restored tokens with the backend",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := getRuntime(c)
			if err != nil {
				return err
			}
			if !c.Bool("require-auth") {
				return rt.print(rt.status(rt.session.State()))
			}

			// A restored pair carries no identity until the backend confirms it.
			if st := rt.session.State(); !st.IsAuthenticated && st.HasSession() {
				if _, err := rt.session.LoadProfile(rt.context(c), rt.pipeline, rt.cfg.API.ProfilePath); err != nil {
					rt.log.Debug("confirm restored session", "error", err)
				}
			}
			st := rt.session.State()
			if err := rt.print(rt.status(st)); err != nil {
				return err
			}
			return service.Gate(st)
		},
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Fetch the signed-in user from the backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Profile endpoint (defaults to api.profile_path)",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := getRuntime(c)
			if err != nil {
				return err
			}
			if err := service.RequireSession(rt.session.State()); err != nil {
				return err
			}

			path := rt.cfg.API.ProfilePath
			if c.IsSet("path") {
				path = c.String("path")
			}
			identity, err := rt.session.LoadProfile(rt.context(c), rt.pipeline, path)
			if err != nil {
				return err
			}
			return rt.print(identity)
		},
	}
}

// passwordFrom returns the flag value or reads one line from stdin.
func passwordFrom(c *cli.Context, flag, prompt string) (string, error) {
	if c.IsSet(flag) || c.String(flag) != "" {
		return c.String(flag), nil
	}

	fmt.Fprint(errWriter(c), prompt)
	line, err := bufio.NewReader(reader(c)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprintln(errWriter(c))
	return strings.TrimRight(line, "\r\n"), nil
}
