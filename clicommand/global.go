package clicommand

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/cliconfig"
	"github.com/joggr/joggr-client/logger"
	"github.com/joggr/joggr-client/version"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

const (
	DefaultEndpoint = api.DefaultEndpoint
	DefaultTimeout  = 60 * time.Second
)

type GlobalConfig struct {
	Config    string `cli:"config"`
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Value:  "",
			Usage:  "Path to a settings file",
			EnvVar: "JOGGR_SETTINGS",
		},
		cli.BoolFlag{
			Name:   "debug",
			Usage:  "Enable debug mode. Synonym for ′--log-level debug′. Takes precedence over ′--log-level′",
			EnvVar: "JOGGR_DEBUG",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "notice",
			Usage:  "Set the log level for the client, making logging more or less verbose. Defaults to notice. Allowed values are: debug, info, notice, warn, error, fatal",
			EnvVar: "JOGGR_LOG_LEVEL",
		},
		cli.StringFlag{
			Name:   "log-format",
			Value:  "text",
			Usage:  "The format to use for the logger output (text|json)",
			EnvVar: "JOGGR_LOG_FORMAT",
		},
		cli.BoolFlag{
			Name:   "no-color",
			Usage:  "Don't show colors in logging",
			EnvVar: "JOGGR_NO_COLOR",
		},
	}
}

type APIConfig struct {
	Endpoint      string        `cli:"endpoint" validate:"required"`
	Timeout       time.Duration `cli:"timeout"`
	RetryAttempts int           `cli:"retry-attempts"`
	NoHTTP2       bool          `cli:"no-http2"`
	DebugHTTP     bool          `cli:"debug-http"`
	TraceHTTP     bool          `cli:"trace-http"`
}

func apiFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "endpoint",
			Value:  DefaultEndpoint,
			Usage:  "The URL of the joggr API namespace",
			EnvVar: "JOGGR_ENDPOINT",
		},
		cli.DurationFlag{
			Name:   "timeout",
			Value:  DefaultTimeout,
			Usage:  "Timeout for each API request",
			EnvVar: "JOGGR_TIMEOUT",
		},
		cli.IntFlag{
			Name:   "retry-attempts",
			Value:  1,
			Usage:  "Total attempts for GET requests that fail with a retryable error. 1 disables retries",
			EnvVar: "JOGGR_RETRY_ATTEMPTS",
		},
		cli.BoolFlag{
			Name:   "no-http2",
			Usage:  "Disable HTTP2 when communicating with the API",
			EnvVar: "JOGGR_NO_HTTP2",
		},
		cli.BoolFlag{
			Name:   "debug-http",
			Usage:  "Enable HTTP debug mode, which dumps all request and response bodies to the log",
			EnvVar: "JOGGR_DEBUG_HTTP",
		},
		cli.BoolFlag{
			Name:   "trace-http",
			Usage:  "Enable HTTP trace mode, which logs timings for each HTTP request",
			EnvVar: "JOGGR_TRACE_HTTP",
		},
	}
}

func loadAPIClientConfig(cfg APIConfig) api.Config {
	return api.Config{
		Endpoint:      cfg.Endpoint,
		UserAgent:     version.UserAgent(),
		DisableHTTP2:  cfg.NoHTTP2,
		DebugHTTP:     cfg.DebugHTTP,
		TraceHTTP:     cfg.TraceHTTP,
		Timeout:       cfg.Timeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryInterval: time.Second,
	}
}

// DefaultConfigFilePaths are the settings files tried when --config is
// not given.
func DefaultConfigFilePaths() (paths []string) {
	if runtime.GOOS == "windows" {
		paths = []string{
			"$USERPROFILE\\AppData\\Local\\Joggr\\joggr.cfg",
		}
	} else {
		paths = []string{
			"$HOME/.joggr/joggr.cfg",
			"/usr/local/etc/joggr/joggr.cfg",
			"/etc/joggr/joggr.cfg",
		}
	}

	// Also check to see if there's a joggr.cfg in the folder that the
	// binary is running in.
	if pathToBinary, err := filepath.Abs(filepath.Dir(os.Args[0])); err == nil {
		paths = append([]string{filepath.Join(pathToBinary, "joggr.cfg")}, paths...)
	}

	return paths
}

// CreateLogger builds the console logger described by the global options
// present in cfg.
func CreateLogger(cfg any) logger.Logger {
	var printer logger.Printer

	format, _ := reflections.GetField(cfg, "LogFormat")
	switch format {
	case "json":
		printer = logger.NewJSONPrinter(os.Stderr)
	default:
		tp := logger.NewTextPrinter(os.Stderr)
		if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
			tp.Colors = false
		}
		printer = tp
	}

	return logger.NewConsoleLogger(printer, os.Exit)
}

// HandleGlobalFlags applies the global options present in cfg to l.
func HandleGlobalFlags(l logger.Logger, cfg any) error {
	if format, err := reflections.GetField(cfg, "LogFormat"); err == nil {
		if f, _ := format.(string); f != "" && f != "text" && f != "json" {
			return fmt.Errorf("invalid log format %q: must be text or json", f)
		}
	}

	if level, err := reflections.GetField(cfg, "LogLevel"); err == nil {
		if s, _ := level.(string); s != "" {
			ll, err := logger.LevelFromString(s)
			if err != nil {
				return err
			}
			l.SetLevel(ll)
		}
	}

	// --debug wins over --log-level
	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
	}

	return nil
}

// setupLoggerAndConfig loads T from the command line, environment and
// settings file, then builds the logger. The returned context is cancelled
// on SIGINT or SIGTERM; done releases the signal handler.
func setupLoggerAndConfig[T any](ctx context.Context, c *cli.Context) (
	newCtx context.Context,
	cfg *T,
	l logger.Logger,
	file *cliconfig.File,
	done func(),
	err error,
) {
	cfg = new(T)
	loader := cliconfig.Loader{
		CLI:                    c,
		Config:                 cfg,
		DefaultConfigFilePaths: DefaultConfigFilePaths(),
	}

	warnings, err := loader.Load()
	if err != nil {
		return ctx, nil, nil, nil, func() {}, err
	}

	l = CreateLogger(cfg)
	if err := HandleGlobalFlags(l, cfg); err != nil {
		return ctx, nil, nil, nil, func() {}, err
	}

	// Now that we have a logger, log out the warnings that loading config generated
	for _, warning := range warnings {
		l.Warn("%s", warning)
	}
	if loader.File != nil {
		l.Debug("Loaded settings from %s", loader.File.Path)
	}

	newCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return newCtx, cfg, l, loader.File, stop, nil
}
