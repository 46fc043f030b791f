package clicommand

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/joggr/joggr-client/api"
	"github.com/urfave/cli"
)

const entryAddHelpDescription = `Usage:

    joggr-client entry add --date <yyyy-mm-dd> --distance <km> --time <minutes> [options...]

Description:

Records a run and prints the updated entries page. Entries belong to the
logged in user, so --email and --password (or JOGGR_EMAIL and
JOGGR_PASSWORD) are used to log in first.

Example:

    $ joggr-client entry add --date 2024-03-02 --distance 8.5 --time 42 \
        --email runner@example.com --password hunter2`

const entryFilterHelpDescription = `Usage:

    joggr-client entry filter [--from <yyyy-mm-dd>] [--to <yyyy-mm-dd>] [options...]

Description:

Prints the entries between two dates. Either bound may be left out.

Example:

    $ joggr-client entry filter --from 2024-03-01 --to 2024-03-31`

type CredentialsConfig struct {
	Email    string `cli:"email"`
	Password string `cli:"password"`
}

func credentialsFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "email",
			Usage:  "Log in as this user before making the request",
			EnvVar: "JOGGR_EMAIL",
		},
		cli.StringFlag{
			Name:   "password",
			Usage:  "The password for --email",
			EnvVar: "JOGGR_PASSWORD",
		},
	}
}

type EntryAddConfig struct {
	GlobalConfig
	APIConfig
	PageConfig
	CredentialsConfig

	Date     string  `cli:"date" validate:"required"`
	Distance float64 `cli:"distance" validate:"required"`
	Time     int     `cli:"time" validate:"required"`
}

type EntryListConfig struct {
	GlobalConfig
	APIConfig
	PageConfig
	CredentialsConfig

	From string `cli:"from"`
	To   string `cli:"to"`
}

func (cfg EntryAddConfig) form() (*api.EntryForm, error) {
	if _, err := time.Parse(time.DateOnly, cfg.Date); err != nil {
		return nil, fmt.Errorf("invalid --date %q: want yyyy-mm-dd", cfg.Date)
	}
	if cfg.Distance <= 0 {
		return nil, fmt.Errorf("invalid --distance %v: must be positive", cfg.Distance)
	}
	if cfg.Time <= 0 {
		return nil, fmt.Errorf("invalid --time %d: must be a positive number of minutes", cfg.Time)
	}
	return &api.EntryForm{Date: cfg.Date, Distance: cfg.Distance, Time: cfg.Time}, nil
}

var EntryAddCommand = cli.Command{
	Name:        "add",
	Usage:       "Record a run",
	Description: entryAddHelpDescription,
	Flags: slices.Concat(globalFlags(), apiFlags(), pageFlags(), credentialsFlags(), []cli.Flag{
		cli.StringFlag{Name: "date", Usage: "Date of the run (yyyy-mm-dd)"},
		cli.Float64Flag{Name: "distance", Usage: "Distance in kilometres"},
		cli.IntFlag{Name: "time", Usage: "Duration of the run in whole minutes"},
	}),
	Action: func(c *cli.Context) error {
		ctx, cfg, l, _, done, err := setupLoggerAndConfig[EntryAddConfig](context.Background(), c)
		if err != nil {
			return err
		}
		defer done()

		form, err := cfg.form()
		if err != nil {
			return err
		}

		client, err := api.NewClient(l, loadAPIClientConfig(cfg.APIConfig))
		if err != nil {
			return err
		}
		ctrl, err := newController(cfg.PageConfig, l, client, c.App.ErrWriter)
		if err != nil {
			return err
		}
		if err := loginFirst(ctx, l, client, cfg.Email, cfg.Password); err != nil {
			return err
		}

		frag, _, err := client.AddEntry(ctx, form)
		if err != nil {
			return NewExitError(ExitRequestFailed, err)
		}
		return showFragment(ctrl, frag, false, c.App.Writer)
	},
}

func entryListCommand(name, usage string, fetch func(context.Context, *api.Client, EntryListConfig) (*api.Fragment, *api.Response, error)) cli.Command {
	return cli.Command{
		Name:  name,
		Usage: usage,
		Flags: slices.Concat(globalFlags(), apiFlags(), pageFlags(), credentialsFlags()),
		Action: func(c *cli.Context) error {
			ctx, cfg, l, _, done, err := setupLoggerAndConfig[EntryListConfig](context.Background(), c)
			if err != nil {
				return err
			}
			defer done()

			client, err := api.NewClient(l, loadAPIClientConfig(cfg.APIConfig))
			if err != nil {
				return err
			}
			ctrl, err := newController(cfg.PageConfig, l, client, c.App.ErrWriter)
			if err != nil {
				return err
			}
			if err := loginFirst(ctx, l, client, cfg.Email, cfg.Password); err != nil {
				return err
			}

			frag, _, err := fetch(ctx, client, *cfg)
			if err != nil {
				return NewExitError(ExitRequestFailed, err)
			}
			return showFragment(ctrl, frag, false, c.App.Writer)
		},
	}
}

var EntryListCommand = entryListCommand("list", "Print the entries page",
	func(ctx context.Context, client *api.Client, _ EntryListConfig) (*api.Fragment, *api.Response, error) {
		return client.ListEntries(ctx)
	})

var EntryWeeklyCommand = entryListCommand("weekly", "Print the weekly summary",
	func(ctx context.Context, client *api.Client, _ EntryListConfig) (*api.Fragment, *api.Response, error) {
		return client.WeeklyEntries(ctx)
	})

var EntryFilterCommand = func() cli.Command {
	cmd := entryListCommand("filter", "Print the entries between two dates",
		func(ctx context.Context, client *api.Client, cfg EntryListConfig) (*api.Fragment, *api.Response, error) {
			return client.FilterEntries(ctx, &api.FilterOptions{From: cfg.From, To: cfg.To})
		})
	cmd.Description = entryFilterHelpDescription
	cmd.Flags = append(cmd.Flags,
		cli.StringFlag{Name: "from", Usage: "First date to include (yyyy-mm-dd)"},
		cli.StringFlag{Name: "to", Usage: "Last date to include (yyyy-mm-dd)"},
	)
	return cmd
}()
