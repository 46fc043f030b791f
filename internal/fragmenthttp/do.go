package fragmenthttp

import (
	"net/http"
	"net/http/httptrace"
	"net/http/httputil"
	"strconv"
	"time"

	"github.com/joggr/joggr-client/logger"
)

// RequestIDHeader carries the per-dispatch identifier.
const RequestIDHeader = "X-Request-Id"

// Do wraps the http.Client's Do method with debug logging and tracing options.
func Do(l logger.Logger, client *http.Client, req *http.Request, opts ...DoOption) (*http.Response, error) {
	var cfg doConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if id := req.Header.Get(RequestIDHeader); id != "" {
		l = l.WithFields(logger.StringField("request_id", id))
	}

	if cfg.debugHTTP {
		requestDump, err := httputil.DumpRequestOut(req, true)
		if err != nil {
			l.Debug("ERR: %s\n%s", err, string(requestDump))
		} else {
			l.Debug("%s", string(requestDump))
		}
	}

	t := &tracer{Logger: l}
	if cfg.traceHTTP {
		req = traceHTTPRequest(req, t)
		t.Start()
	}

	ts := time.Now()

	l.Debug("%s %s", req.Method, req.URL)

	resp, err := client.Do(req)
	if err != nil {
		if cfg.traceHTTP {
			t.Emit(logger.ERROR)
		}
		return nil, err
	}

	l.WithFields(
		logger.StringField("proto", resp.Proto),
		logger.IntField("status", resp.StatusCode),
		logger.DurationField("Δ", time.Since(ts)),
	).Debug("↳ %s %s", req.Method, req.URL)

	if cfg.debugHTTP {
		responseDump, err := httputil.DumpResponse(resp, true)
		if err != nil {
			l.Debug("\nERR: %s\n%s", err, string(responseDump))
		} else {
			l.Debug("\n%s", string(responseDump))
		}
	}
	if cfg.traceHTTP {
		t.Emit(logger.DEBUG)
	}

	return resp, nil
}

type DoOption = func(*doConfig)

type doConfig struct {
	debugHTTP bool
	traceHTTP bool
}

func WithDebugHTTP(d bool) DoOption { return func(c *doConfig) { c.debugHTTP = d } }
func WithTraceHTTP(t bool) DoOption { return func(c *doConfig) { c.traceHTTP = t } }

type tracer struct {
	startTime time.Time
	logger.Logger
}

func (t *tracer) Start() {
	t.startTime = time.Now()
}

func (t *tracer) timing(event string) {
	t.Logger = t.Logger.WithFields(logger.DurationField(event, time.Since(t.startTime)))
}

func (t *tracer) field(key, value string) {
	t.Logger = t.Logger.WithFields(logger.StringField(key, value))
}

// Emit writes the collected timings as a single line.
func (t *tracer) Emit(level logger.Level) {
	msg := "HTTP Timing Trace"
	switch level {
	case logger.DEBUG:
		t.Debug(msg)
	case logger.ERROR:
		t.Error(msg)
	default:
		t.Info(msg)
	}
}

func traceHTTPRequest(req *http.Request, t *tracer) *http.Request {
	trace := &httptrace.ClientTrace{
		GetConn: func(hostPort string) {
			t.field("hostPort", hostPort)
			t.timing("getConn")
		},
		GotConn: func(info httptrace.GotConnInfo) {
			t.timing("gotConn")
			t.field("reused", strconv.FormatBool(info.Reused))
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			t.timing("dnsDone")
		},
		ConnectDone: func(network, addr string, _ error) {
			t.timing("connectDone")
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			t.timing("wroteRequest")
		},
		GotFirstResponseByte: func() {
			t.timing("gotFirstResponseByte")
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	t.field("uri", req.URL.String())
	t.field("method", req.Method)
	return req
}
