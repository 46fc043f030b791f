package clicommand

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/logger"
	"github.com/urfave/cli"
)

const loginHelpDescription = `Usage:

    joggr-client login <email> [password] [options...]

Description:

Logs in to joggr and prints the page the server answers with. A rejected
login prints the server's reason and exits with status 1. Without a
password the login form itself is printed.

Example:

    $ joggr-client login runner@example.com hunter2`

const signupHelpDescription = `Usage:

    joggr-client signup <email> [password] [options...]

Description:

Registers a new joggr account. The password is sent twice, as the sign-up
form does. Without a password the sign-up form itself is printed.

Example:

    $ joggr-client signup runner@example.com hunter2`

type AccountConfig struct {
	GlobalConfig
	APIConfig
	PageConfig

	Email    string `cli:"arg:0" label:"email" env:"JOGGR_EMAIL" validate:"required"`
	Password string `cli:"arg:1" label:"password" env:"JOGGR_PASSWORD"`
}

func accountFlags() []cli.Flag {
	return slices.Concat(globalFlags(), apiFlags(), pageFlags())
}

var LoginCommand = cli.Command{
	Name:        "login",
	Usage:       "Log in and print the entries page",
	Description: loginHelpDescription,
	Flags:       accountFlags(),
	Action: func(c *cli.Context) error {
		ctx, cfg, l, _, done, err := setupLoggerAndConfig[AccountConfig](context.Background(), c)
		if err != nil {
			return err
		}
		defer done()

		return login(ctx, *cfg, l, c.App.Writer, c.App.ErrWriter)
	},
}

var SignupCommand = cli.Command{
	Name:        "signup",
	Usage:       "Register a new account",
	Description: signupHelpDescription,
	Flags:       accountFlags(),
	Action: func(c *cli.Context) error {
		ctx, cfg, l, _, done, err := setupLoggerAndConfig[AccountConfig](context.Background(), c)
		if err != nil {
			return err
		}
		defer done()

		return signup(ctx, *cfg, l, c.App.Writer, c.App.ErrWriter)
	},
}

func login(ctx context.Context, cfg AccountConfig, l logger.Logger, out, errOut io.Writer) error {
	return account(ctx, cfg, l, out, errOut,
		func(ctx context.Context, client *api.Client) (*api.Fragment, *api.Response, error) {
			return client.LoginPage(ctx)
		},
		func(ctx context.Context, client *api.Client) (*api.Fragment, *api.Response, error) {
			return client.Login(ctx, &api.LoginForm{Email: cfg.Email, Password: cfg.Password})
		})
}

func signup(ctx context.Context, cfg AccountConfig, l logger.Logger, out, errOut io.Writer) error {
	return account(ctx, cfg, l, out, errOut,
		func(ctx context.Context, client *api.Client) (*api.Fragment, *api.Response, error) {
			return client.RegisterPage(ctx)
		},
		func(ctx context.Context, client *api.Client) (*api.Fragment, *api.Response, error) {
			return client.Register(ctx, &api.RegisterForm{
				Email:     cfg.Email,
				Password:  cfg.Password,
				Password2: cfg.Password,
			})
		})
}

type accountCall func(context.Context, *api.Client) (*api.Fragment, *api.Response, error)

// account posts the account form, or prints the empty form when there is
// no password to send.
func account(ctx context.Context, cfg AccountConfig, l logger.Logger, out, errOut io.Writer, page, post accountCall) error {
	client, err := api.NewClient(l, loadAPIClientConfig(cfg.APIConfig))
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg.PageConfig, l, client, errOut)
	if err != nil {
		return err
	}

	call := post
	if cfg.Password == "" {
		l.Info("No password given, fetching the form instead")
		call = page
	}

	frag, _, err := call(ctx, client)
	if err != nil {
		return NewExitError(ExitRequestFailed, err)
	}
	return showFragment(ctrl, frag, false, out)
}

var errLoginRejected = errors.New("login rejected")

// loginFirst logs client in when credentials are given, so that the
// session cookie is sent with the requests that follow.
func loginFirst(ctx context.Context, l logger.Logger, client *api.Client, email, password string) error {
	if email == "" {
		return nil
	}

	frag, _, err := client.Login(ctx, &api.LoginForm{Email: email, Password: password})
	if err != nil {
		return NewExitError(ExitRequestFailed, err)
	}
	if frag.Error != "" {
		return NewExitError(ExitRejected, errors.Join(errLoginRejected, errors.New(frag.Error)))
	}

	l.Info("Logged in as %s", email)
	return nil
}
