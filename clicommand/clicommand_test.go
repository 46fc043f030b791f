package clicommand

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/internal/apitest"
	"github.com/joggr/joggr-client/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the session and the controller's
// notifier to write to at once.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newJoggr(t *testing.T) *apitest.Joggr {
	t.Helper()
	return apitest.NewJoggr(apitest.NewServer(t), "runner@joggr.test", "hunter2")
}

func TestRunSession(t *testing.T) {
	joggr := newJoggr(t)

	script := strings.Join([]string{
		"wait",
		"click a#login",
		"wait",
		"fill input[name=email] runner@joggr.test",
		"fill input[name=password] hunter2",
		"submit form#login",
		"wait",
		"click 'a#weekly'",
		"wait",
		"show",
		"click a#nowhere",
		"dance",
		"quit",
		"click a#logout",
	}, "\n")

	cfg := StartConfig{
		APIConfig: APIConfig{Endpoint: joggr.Endpoint(), Timeout: 5 * time.Second},
	}
	out := &syncBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, runSession(ctx, cfg, logger.Discard, strings.NewReader(script), out))

	got := out.String()
	assert.Contains(t, got, "[alert] Welcome, You logged in successfuly")
	assert.Contains(t, got, "<li>Mon: 8h</li>")
	assert.Contains(t, got, `error: a#nowhere: no matching element in the container`)
	assert.Contains(t, got, `error: unknown command "dance", try help`)

	// Nothing after quit runs.
	assert.Empty(t, joggr.RequestsTo(http.MethodPost, "users/logout"))
	assert.Len(t, joggr.RequestsTo(http.MethodPost, "users/login"), 1)
}

func TestRunSessionEndsAtEOF(t *testing.T) {
	joggr := newJoggr(t)

	cfg := StartConfig{APIConfig: APIConfig{Endpoint: joggr.Endpoint()}}
	out := &syncBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, runSession(ctx, cfg, logger.Discard, strings.NewReader("wait\npage\n"), out))
	assert.Contains(t, out.String(), "<h1>Joggr</h1>")
	assert.Contains(t, out.String(), `<a id="signup" href="#">Sign up</a>`)
}

func TestRunSessionMissingContainer(t *testing.T) {
	cfg := StartConfig{
		APIConfig:  APIConfig{Endpoint: "http://joggr.test/api/v1/"},
		PageConfig: PageConfig{Container: "section.missing"},
	}
	err := runSession(context.Background(), cfg, logger.Discard, strings.NewReader(""), io.Discard)
	assert.Error(t, err)
}

func TestServeMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- serveMetrics(ctx, logger.Discard, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close() //nolint:errcheck // test
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "joggr_client_render_alerts_total")

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveMetrics did not return after its context was cancelled")
	}
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		joggr := newJoggr(t)

		cfg := InvokeConfig{
			APIConfig:  APIConfig{Endpoint: joggr.Endpoint()},
			PageConfig: PageConfig{NativeDateInput: true},
			Path:       "users/login",
			Method:     "post",
			Data:       []string{"email=runner@joggr.test", "password=hunter2"},
		}

		var out, errOut bytes.Buffer
		require.NoError(t, invoke(ctx, cfg, logger.Discard, &out, &errOut))

		assert.Contains(t, out.String(), `<a id="weekly" href="#">Weekly</a>`)
		assert.Equal(t, "[alert] Welcome, You logged in successfuly\n", errOut.String())
	})

	t.Run("application error", func(t *testing.T) {
		joggr := newJoggr(t)

		cfg := InvokeConfig{
			APIConfig: APIConfig{Endpoint: joggr.Endpoint()},
			Path:      "users/login",
			Method:    "POST",
			Data:      []string{"email=runner@joggr.test", "password=wrong"},
		}

		var out, errOut bytes.Buffer
		err := invoke(ctx, cfg, logger.Discard, &out, &errOut)
		assert.ErrorIs(t, err, NewSilentExitError(ExitRejected))
		assert.Empty(t, out.String())
		assert.Equal(t, "[alert] Invalid email or password\n", errOut.String())
	})

	t.Run("request failed", func(t *testing.T) {
		joggr := newJoggr(t)

		cfg := InvokeConfig{
			APIConfig: APIConfig{Endpoint: joggr.Endpoint()},
			Path:      "entries/weekly",
		}

		err := invoke(ctx, cfg, logger.Discard, io.Discard, io.Discard)

		var rerr *api.RequestFailedError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)
		assert.ErrorIs(t, err, NewExitError(ExitRequestFailed, nil))
		assert.Equal(t, ExitRequestFailed, PrintMessageAndReturnExitCode(io.Discard, err))
	})

	t.Run("bad data", func(t *testing.T) {
		cfg := InvokeConfig{
			APIConfig: APIConfig{Endpoint: "http://joggr.test/api/v1/"},
			Path:      "entries/list",
			Data:      []string{"novalue"},
		}
		assert.Error(t, invoke(ctx, cfg, logger.Discard, io.Discard, io.Discard))
	})

	t.Run("whole page", func(t *testing.T) {
		server := apitest.NewServer(t)
		server.Body(http.MethodGet, "entries/weekly", apitest.WeeklyHTML)

		cfg := InvokeConfig{
			APIConfig: APIConfig{Endpoint: server.Endpoint()},
			Path:      "entries/weekly",
			PrintPage: true,
		}

		var out bytes.Buffer
		require.NoError(t, invoke(ctx, cfg, logger.Discard, &out, io.Discard))
		assert.Contains(t, out.String(), `<div class="body"><ul><li>Mon: 8h</li></ul>`)
		assert.Contains(t, out.String(), "<title>Joggr</title>")
	})
}

func TestLogin(t *testing.T) {
	joggr := newJoggr(t)

	cfg := AccountConfig{
		APIConfig: APIConfig{Endpoint: joggr.Endpoint()},
		Email:     "runner@joggr.test",
		Password:  "hunter2",
	}

	var out, errOut bytes.Buffer
	require.NoError(t, login(context.Background(), cfg, logger.Discard, &out, &errOut))

	// The built-in page has no native date input, so the date field is
	// enhanced.
	assert.Contains(t, out.String(), `data-provide="datepicker"`)
	assert.Contains(t, errOut.String(), "Welcome")
}

func TestAccountFormWithoutPassword(t *testing.T) {
	for _, tc := range []struct {
		name string
		run  func(context.Context, AccountConfig, logger.Logger, io.Writer, io.Writer) error
		path string
		form string
	}{
		{"login", login, "users/login", `<form id="login"`},
		{"signup", signup, "users/register", `<form id="signup"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			joggr := newJoggr(t)
			cfg := AccountConfig{
				APIConfig: APIConfig{Endpoint: joggr.Endpoint()},
				Email:     "new@joggr.test",
			}

			var out bytes.Buffer
			require.NoError(t, tc.run(context.Background(), cfg, logger.Discard, &out, io.Discard))

			assert.Contains(t, out.String(), tc.form)
			assert.Len(t, joggr.RequestsTo(http.MethodGet, tc.path), 1)
			assert.Empty(t, joggr.RequestsTo(http.MethodPost, tc.path))
		})
	}
}

func TestSignup(t *testing.T) {
	joggr := newJoggr(t)
	ctx := context.Background()

	cfg := AccountConfig{
		APIConfig: APIConfig{Endpoint: joggr.Endpoint()},
		Email:     "new@joggr.test",
		Password:  "s3cret",
	}

	var out, errOut bytes.Buffer
	require.NoError(t, signup(ctx, cfg, logger.Discard, &out, &errOut))
	assert.Contains(t, out.String(), `<form id="login"`)
	assert.Equal(t, "[alert] Thanks for signing up, please log in\n", errOut.String())

	reqs := joggr.RequestsTo(http.MethodPost, "users/register")
	require.Len(t, reqs, 1)
	assert.Equal(t, "s3cret", reqs[0].Form.Get("password2"))

	errOut.Reset()
	cfg.Email = "runner@joggr.test"
	err := signup(ctx, cfg, logger.Discard, io.Discard, &errOut)
	assert.ErrorIs(t, err, NewSilentExitError(ExitRejected))
	assert.Equal(t, "[alert] Email already registered\n", errOut.String())
}

func TestLoginFirst(t *testing.T) {
	joggr := newJoggr(t)
	ctx := context.Background()

	client, err := api.NewClient(logger.Discard, api.Config{Endpoint: joggr.Endpoint()})
	require.NoError(t, err)

	require.NoError(t, loginFirst(ctx, logger.Discard, client, "", ""))
	assert.Empty(t, joggr.Requests())

	err = loginFirst(ctx, logger.Discard, client, "runner@joggr.test", "nope")
	assert.ErrorIs(t, err, errLoginRejected)
	assert.Equal(t, 1, PrintMessageAndReturnExitCode(io.Discard, err))

	l := logger.NewBuffer()
	require.NoError(t, loginFirst(ctx, l, client, "runner@joggr.test", "hunter2"))
	assert.Contains(t, l.Messages, "[info] Logged in as runner@joggr.test")

	frag, _, err := client.WeeklyEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, apitest.WeeklyHTML, frag.HTML())
}

func TestEntryAddForm(t *testing.T) {
	good := EntryAddConfig{Date: "2024-03-02", Distance: 8.5, Time: 42}
	form, err := good.form()
	require.NoError(t, err)
	if diff := cmp.Diff(&api.EntryForm{Date: "2024-03-02", Distance: 8.5, Time: 42}, form); diff != "" {
		t.Errorf("form diff (-want +got):\n%s", diff)
	}

	for name, cfg := range map[string]EntryAddConfig{
		"bad date":     {Date: "02/03/2024", Distance: 8.5, Time: 42},
		"bad distance": {Date: "2024-03-02", Distance: -1, Time: 42},
		"no time":      {Date: "2024-03-02", Distance: 8.5},
		"bad time":     {Date: "2024-03-02", Distance: 8.5, Time: -3},
	} {
		if _, err := cfg.form(); err == nil {
			t.Errorf("%s: form() error = nil, want an error", name)
		}
	}
}

func TestEntryAddSendsWholeMinutes(t *testing.T) {
	joggr := newJoggr(t)
	ctx := context.Background()

	client, err := api.NewClient(logger.Discard, api.Config{Endpoint: joggr.Endpoint()})
	require.NoError(t, err)
	require.NoError(t, loginFirst(ctx, logger.Discard, client, "runner@joggr.test", "hunter2"))

	form, err := EntryAddConfig{Date: "2024-03-02", Distance: 8.5, Time: 42}.form()
	require.NoError(t, err)
	_, _, err = client.AddEntry(ctx, form)
	require.NoError(t, err)

	reqs := joggr.RequestsTo(http.MethodPost, "entries/add")
	require.Len(t, reqs, 1)
	assert.Equal(t, "42", reqs[0].Form.Get("time"))
	assert.Equal(t, "8.5", reqs[0].Form.Get("distance"))
}

func TestPrintRoutes(t *testing.T) {
	table, err := loadRoutes(PageConfig{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printRoutes(&out, table))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(table.Bindings)+1)
	assert.Equal(t, []string{"TRIGGER", "SELECTOR", "METHOD", "ENDPOINT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"click", "a#logout", "POST", "users/logout"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"submit", "form", "(form)", "(form", "action)"}, strings.Fields(lines[len(lines)-1]))
}

func TestSplitArgs(t *testing.T) {
	for _, tc := range []struct {
		line string
		want []string
	}{
		{"", nil},
		{"click a#weekly", []string{"click", "a#weekly"}},
		{`  click   "a#weekly span"  `, []string{"click", "a#weekly span"}},
		{`fill input[name=email] 'a b'`, []string{"fill", "input[name=email]", "a b"}},
		{`fill input ""`, []string{"fill", "input", ""}},
	} {
		got, err := splitArgs(tc.line)
		if err != nil {
			t.Errorf("splitArgs(%q) error = %v", tc.line, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("splitArgs(%q) diff (-want +got):\n%s", tc.line, diff)
		}
	}

	if _, err := splitArgs(`click "a#weekly`); err == nil {
		t.Errorf("splitArgs(unterminated) error = nil, want an error")
	}
}

func TestHandleGlobalFlags(t *testing.T) {
	newLogger := func() logger.Logger {
		return logger.NewConsoleLogger(logger.NewTextPrinter(io.Discard), func(int) {})
	}

	l := newLogger()
	require.NoError(t, HandleGlobalFlags(l, GlobalConfig{LogLevel: "warn"}))
	assert.Equal(t, logger.WARN, l.Level())

	l = newLogger()
	require.NoError(t, HandleGlobalFlags(l, GlobalConfig{LogLevel: "warn", Debug: true}))
	assert.Equal(t, logger.DEBUG, l.Level())

	assert.Error(t, HandleGlobalFlags(newLogger(), GlobalConfig{LogLevel: "loud"}))
	assert.Error(t, HandleGlobalFlags(newLogger(), GlobalConfig{LogFormat: "xml"}))
}

func TestPrintMessageAndReturnExitCode(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"nil", nil, 0, ""},
		{"silent", NewSilentExitError(3), 3, ""},
		{"request failed", NewExitError(ExitRequestFailed, errors.New("request failed")), ExitRequestFailed, "joggr-client: fatal: request failed\n"},
		{"wrapped", errors.Join(errors.New("outer"), NewExitError(4, errors.New("inner"))), 4, "joggr-client: fatal: outer\ninner\n"},
		{"plain", errors.New("boom"), ExitRejected, "joggr-client: fatal: boom\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tc.code, PrintMessageAndReturnExitCode(&out, tc.err))
			assert.Equal(t, tc.output, out.String())
		})
	}
}
