package clicommand

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/joggr/joggr-client/routes"
	"github.com/urfave/cli"
)

const routesHelpDescription = `Usage:

    joggr-client routes [options...]

Description:

Prints the routing table: which elements inside the container trigger
which API calls. Without --routes the built-in joggr bindings are shown.

Example:

    $ joggr-client routes
    $ joggr-client routes --routes ./routes.yml`

type RoutesConfig struct {
	GlobalConfig

	Routes string `cli:"routes" normalize:"filepath" validate:"file-exists"`
}

var RoutesCommand = cli.Command{
	Name:        "routes",
	Usage:       "Print the routing table",
	Description: routesHelpDescription,
	Flags: slices.Concat(globalFlags(), []cli.Flag{
		cli.StringFlag{
			Name:   "routes",
			Usage:  "A YAML routing table to print instead of the built-in bindings",
			EnvVar: "JOGGR_ROUTES",
		},
	}),
	Action: func(c *cli.Context) error {
		_, cfg, _, _, done, err := setupLoggerAndConfig[RoutesConfig](context.Background(), c)
		if err != nil {
			return err
		}
		defer done()

		table, err := loadRoutes(PageConfig{Routes: cfg.Routes})
		if err != nil {
			return err
		}
		return printRoutes(c.App.Writer, table)
	},
}

func printRoutes(w io.Writer, table *routes.Table) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "TRIGGER\tSELECTOR\tMETHOD\tENDPOINT")
	for _, b := range table.Bindings {
		method, endpoint := b.Method, b.Endpoint
		if method == "" {
			method = "(form)"
		}
		if endpoint == "" {
			endpoint = "(form action)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Trigger, b.Selector, method, endpoint)
	}
	return tw.Flush()
}
