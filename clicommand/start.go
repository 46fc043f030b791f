package clicommand

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

const startHelpDescription = `Usage:

    joggr-client start [options...]

Description:

Loads the joggr page, fetches the entry listing into its container and
then reads commands from standard input, one per line. Clicks and form
submissions go through the routing table exactly as they would in the
browser, and every response is rendered into the container.

Type "help" at the prompt for the list of commands.

Example:

    $ joggr-client start --endpoint http://localhost:5000/api/v1/
    joggr> click a#login
    joggr> fill input[name=email] runner@example.com
    joggr> fill input[name=password] hunter2
    joggr> submit form#login
    joggr> wait
    joggr> show`

type StartConfig struct {
	GlobalConfig
	APIConfig
	PageConfig

	MetricsAddr string `cli:"metrics-addr"`
}

var StartCommand = cli.Command{
	Name:        "start",
	Usage:       "Starts an interactive session against the joggr API",
	Description: startHelpDescription,
	Flags: slices.Concat(globalFlags(), apiFlags(), pageFlags(), []cli.Flag{
		cli.StringFlag{
			Name:   "metrics-addr",
			Usage:  "Serve Prometheus metrics on this address, for example localhost:9090",
			EnvVar: "JOGGR_METRICS_ADDR",
		},
	}),
	Action: func(c *cli.Context) error {
		ctx, cfg, l, _, done, err := setupLoggerAndConfig[StartConfig](context.Background(), c)
		if err != nil {
			return err
		}
		defer done()

		return runSession(ctx, *cfg, l, os.Stdin, c.App.Writer)
	},
}

// runSession starts a controller on the page and drives it from in until
// the input ends or ctx is done.
func runSession(ctx context.Context, cfg StartConfig, l logger.Logger, in io.Reader, out io.Writer) error {
	client, err := api.NewClient(l, loadAPIClientConfig(cfg.APIConfig))
	if err != nil {
		return err
	}

	ctrl, err := newController(cfg.PageConfig, l, client, out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		g.Go(func() error { return serveMetrics(ctx, l, ln) })
	}

	if err := ctrl.Start(ctx); err != nil {
		cancel()
		g.Wait() //nolint:errcheck // Start's error is the one worth reporting
		return err
	}
	l.Info("Session started against %s", client.Config().Endpoint)

	g.Go(func() error {
		// The session ending stops everything else.
		defer cancel()

		s := &session{c: ctrl, l: l, out: out}
		return s.run(ctx, in)
	})

	g.Go(func() error {
		<-ctrl.Done()
		return nil
	})

	return g.Wait()
}

// serveMetrics serves /metrics on ln until ctx is done.
func serveMetrics(ctx context.Context, l logger.Logger, ln net.Listener) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Write([]byte("ok\n")) //nolint:errcheck // best effort
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck // the server is going away regardless
	}()

	l.Notice("Serving metrics on http://%s/metrics", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
