package clicommand

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/controller"
	"github.com/joggr/joggr-client/logger"
	"github.com/urfave/cli"
)

const invokeHelpDescription = `Usage:

    joggr-client invoke <endpoint> [options...]

Description:

Requests one endpoint of the API, renders the returned fragment into the
page's container and prints it. The endpoint is relative to the API
namespace. Fields given with --data are sent as the query string for GET
requests and as a form body otherwise.

An application error in the response is printed and exits with status 1.
A failed or malformed request exits with status 2.

Example:

    $ joggr-client invoke entries/weekly
    $ joggr-client invoke users/login --method POST --data email=runner@example.com --data password=hunter2`

type InvokeConfig struct {
	GlobalConfig
	APIConfig
	PageConfig

	Path      string   `cli:"arg:0" label:"endpoint" validate:"required"`
	Method    string   `cli:"method"`
	Data      []string `cli:"data"`
	PrintPage bool     `cli:"print-page"`
}

var InvokeCommand = cli.Command{
	Name:        "invoke",
	Usage:       "Request an endpoint and print the rendered fragment",
	Description: invokeHelpDescription,
	Flags: slices.Concat(globalFlags(), apiFlags(), pageFlags(), []cli.Flag{
		cli.StringFlag{
			Name:   "method",
			Value:  "GET",
			Usage:  "The HTTP method to use",
			EnvVar: "JOGGR_INVOKE_METHOD",
		},
		cli.StringSliceFlag{
			Name:  "data",
			Value: &cli.StringSlice{},
			Usage: "A form field as key=value. May be repeated",
		},
		cli.BoolFlag{
			Name:  "print-page",
			Usage: "Print the whole page instead of just the container",
		},
	}),
	Action: func(c *cli.Context) error {
		ctx, cfg, l, _, done, err := setupLoggerAndConfig[InvokeConfig](context.Background(), c)
		if err != nil {
			return err
		}
		defer done()

		return invoke(ctx, *cfg, l, c.App.Writer, c.App.ErrWriter)
	},
}

func parseData(data []string) (url.Values, error) {
	form := url.Values{}
	for _, kv := range data {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --data %q: want key=value", kv)
		}
		form.Add(k, v)
	}
	return form, nil
}

// invoke performs one call, renders it into the page and prints the
// result on out. Alerts and notifications go to errOut.
func invoke(ctx context.Context, cfg InvokeConfig, l logger.Logger, out, errOut io.Writer) error {
	form, err := parseData(cfg.Data)
	if err != nil {
		return err
	}

	client, err := api.NewClient(l, loadAPIClientConfig(cfg.APIConfig))
	if err != nil {
		return err
	}

	ctrl, err := newController(cfg.PageConfig, l, client, errOut)
	if err != nil {
		return err
	}

	frag, _, err := client.Fragment(ctx, api.Call{
		Method: strings.ToUpper(cfg.Method),
		Path:   cfg.Path,
		Form:   form,
	})
	if err != nil {
		return NewExitError(ExitRequestFailed, err)
	}

	return showFragment(ctrl, frag, cfg.PrintPage, out)
}

// showFragment renders frag into the controller's page and prints the
// container (or the whole page). An application error in frag becomes a
// silent exit status 1: the notifier has already shown it.
func showFragment(ctrl *controller.Controller, frag *api.Fragment, wholePage bool, out io.Writer) error {
	if err := ctrl.Render(frag); err != nil {
		return NewExitError(ExitRequestFailed, err)
	}

	if wholePage {
		if err := ctrl.Document().Render(out); err != nil {
			return err
		}
		fmt.Fprintln(out)
	} else if frag.HasBody() {
		fmt.Fprintln(out, ctrl.Document().ContainerDOM())
	}

	if frag.Error != "" {
		return NewSilentExitError(ExitRejected)
	}
	return nil
}
