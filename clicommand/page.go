package clicommand

import (
	"fmt"
	"io"
	"os"

	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/controller"
	"github.com/joggr/joggr-client/dom"
	"github.com/joggr/joggr-client/logger"
	"github.com/joggr/joggr-client/routes"
	"github.com/urfave/cli"
)

// DefaultPage is the joggr layout: a heading and the container that
// fragments are rendered into.
const DefaultPage = `<!DOCTYPE html>
<html>
<head><title>Joggr</title></head>
<body>
<h1>Joggr</h1>
<div class="body"></div>
</body>
</html>
`

// PageConfig describes the page a controller drives and how it renders.
type PageConfig struct {
	Page            string `cli:"page" normalize:"filepath" validate:"file-exists"`
	Container       string `cli:"container"`
	Routes          string `cli:"routes" normalize:"filepath" validate:"file-exists"`
	InitialEndpoint string `cli:"initial-endpoint"`
	NativeDateInput bool   `cli:"native-date-input"`
	DateFormat      string `cli:"date-format"`
	Sanitize        bool   `cli:"sanitize"`
	NoAlerts        bool   `cli:"no-alerts"`
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "page",
			Usage:  "An HTML layout to drive instead of the built-in joggr page",
			EnvVar: "JOGGR_PAGE",
		},
		cli.StringFlag{
			Name:   "container",
			Value:  "div.body",
			Usage:  "Selector of the element fragments are rendered into",
			EnvVar: "JOGGR_CONTAINER",
		},
		cli.StringFlag{
			Name:   "routes",
			Usage:  "A YAML routing table to use instead of the built-in bindings",
			EnvVar: "JOGGR_ROUTES",
		},
		cli.StringFlag{
			Name:   "initial-endpoint",
			Value:  api.PathEntriesList,
			Usage:  "The endpoint fetched when the page starts",
			EnvVar: "JOGGR_INITIAL_ENDPOINT",
		},
		cli.BoolFlag{
			Name:   "native-date-input",
			Usage:  "Treat the runtime as having a native date input, so date fields aren't given a date picker",
			EnvVar: "JOGGR_NATIVE_DATE_INPUT",
		},
		cli.StringFlag{
			Name:   "date-format",
			Value:  dom.DateFormat,
			Usage:  "Display format of attached date pickers",
			EnvVar: "JOGGR_DATE_FORMAT",
		},
		cli.BoolFlag{
			Name:   "sanitize",
			Usage:  "Strip scripts, event handlers and javascript: URLs from fragments before rendering",
			EnvVar: "JOGGR_SANITIZE",
		},
		cli.BoolFlag{
			Name:   "no-alerts",
			Usage:  "Don't show the error and message fields of responses as alerts",
			EnvVar: "JOGGR_NO_ALERTS",
		},
	}
}

func loadDocument(cfg PageConfig) (*dom.Document, error) {
	container := cfg.Container
	if container == "" {
		container = "div.body"
	}
	sel, err := dom.ParseSelector(container)
	if err != nil {
		return nil, fmt.Errorf("container selector: %w", err)
	}

	if cfg.Page == "" {
		return dom.ParseString(DefaultPage, sel)
	}

	f, err := os.Open(cfg.Page)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only

	return dom.Parse(f, sel)
}

func loadRoutes(cfg PageConfig) (*routes.Table, error) {
	if cfg.Routes == "" {
		return routes.Default(), nil
	}
	return routes.LoadFile(cfg.Routes)
}

// newController builds the page and the controller that drives it,
// reporting alerts and notifications on w.
func newController(cfg PageConfig, l logger.Logger, client controller.Invoker, w io.Writer) (*controller.Controller, error) {
	doc, err := loadDocument(cfg)
	if err != nil {
		return nil, err
	}

	table, err := loadRoutes(cfg)
	if err != nil {
		return nil, err
	}

	caps := controller.NoNativeDateInput
	if cfg.NativeDateInput {
		caps = controller.NativeDateInput
	}

	sanitizer := dom.Trusted
	if cfg.Sanitize {
		sanitizer = dom.StripActive
	}

	conf := controller.DefaultConfig()
	if cfg.InitialEndpoint != "" {
		conf.InitialEndpoint = cfg.InitialEndpoint
	}
	if cfg.DateFormat != "" {
		conf.DateFormat = cfg.DateFormat
	}
	conf.AlertOnMessages = !cfg.NoAlerts

	return controller.New(l, client, doc,
		controller.WithConfig(conf),
		controller.WithRoutes(table),
		controller.WithCapabilities(caps),
		controller.WithSanitizer(sanitizer),
		controller.WithNotifier(&controller.WriterNotifier{W: w}),
	), nil
}
