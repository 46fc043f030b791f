// Package api is a client for the joggr JSON API, which answers every
// request with an HTML fragment wrapped in a small JSON envelope.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buildkite/roko"
	"github.com/google/uuid"
	"github.com/joggr/joggr-client/internal/fragmenthttp"
	"github.com/joggr/joggr-client/logger"
)

const (
	// DefaultEndpoint is the API namespace of a locally running server.
	DefaultEndpoint  = "http://localhost:5000/api/v1/"
	defaultUserAgent = "joggr-client/api"
)

// Config is configuration for the API Client
type Config struct {
	// Endpoint is the full URL of the API namespace, for example
	// http://localhost:5000/api/v1/. Relative paths are resolved against
	// it, absolute paths (such as a form's action) against its host.
	Endpoint string

	// User agent used when communicating with the API.
	UserAgent string

	// If true, only HTTP2 is disabled
	DisableHTTP2 bool

	// If true, requests and responses will be dumped and set to the logger
	DebugHTTP bool

	// If true timings for each request will be logged
	TraceHTTP bool

	// Timeout for a single request. Zero means the fragmenthttp default.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts made for idempotent
	// requests. Values below 2 disable retries.
	RetryAttempts int

	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration

	// The http client used, leave nil for the default
	HTTPClient *http.Client

	// optional TLS configuration primarily used for testing
	TLSConfig *tls.Config
}

// A Client manages communication with the joggr API.
type Client struct {
	conf     Config
	endpoint *url.URL
	client   *http.Client
	logger   logger.Logger
}

// NewClient returns a new API Client. It fails only if the configured
// endpoint is not a valid URL.
func NewClient(l logger.Logger, conf Config) (*Client, error) {
	if conf.Endpoint == "" {
		conf.Endpoint = DefaultEndpoint
	}

	if conf.UserAgent == "" {
		conf.UserAgent = defaultUserAgent
	}

	// Relative references only resolve under the namespace when the base
	// ends with a slash.
	if !strings.HasSuffix(conf.Endpoint, "/") {
		conf.Endpoint += "/"
	}

	endpoint, err := url.Parse(conf.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", conf.Endpoint, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute URL", conf.Endpoint)
	}

	c := &Client{
		conf:     conf,
		endpoint: endpoint,
		logger:   l,
		client:   conf.HTTPClient,
	}

	if c.client == nil {
		opts := []fragmenthttp.ClientOption{
			fragmenthttp.WithAllowHTTP2(!conf.DisableHTTP2),
			fragmenthttp.WithTLSConfig(conf.TLSConfig),
			fragmenthttp.WithHeader("Accept", "application/json"),
			fragmenthttp.WithHeader("X-Requested-With", "XMLHttpRequest"),
		}
		if conf.Timeout > 0 {
			opts = append(opts, fragmenthttp.WithTimeout(conf.Timeout))
		}
		c.client = fragmenthttp.NewClient(opts...)
	}

	return c, nil
}

// Config returns the internal configuration for the Client
func (c *Client) Config() Config {
	return c.conf
}

// URL resolves path against the endpoint.
func (c *Client) URL(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}
	return c.endpoint.ResolveReference(ref), nil
}

// Call describes one request to the API.
type Call struct {
	// Method defaults to GET.
	Method string

	// Path is relative to the endpoint (entries/list) or absolute
	// (/api/v1/users/login).
	Path string

	// Form is sent as the query string for GET, HEAD and DELETE, and as an
	// urlencoded body otherwise.
	Form url.Values

	// RequestID is sent as X-Request-Id. A random one is generated when
	// empty.
	RequestID string
}

func (call Call) method() string {
	if call.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(call.Method)
}

func (call Call) idempotent() bool {
	switch call.method() {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

// Response wraps the standard http.Response.
type Response struct {
	*http.Response
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u, err := c.URL(call.Path)
	if err != nil {
		return nil, err
	}

	method := call.method()

	var body io.Reader
	if len(call.Form) > 0 {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodDelete:
			q := u.Query()
			for k, vs := range call.Form {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
		default:
			body = strings.NewReader(call.Form.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.conf.UserAgent)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	id := call.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set(fragmenthttp.RequestIDHeader, id)

	return req, nil
}

// Fragment performs call and decodes the JSON envelope. Transport failures
// and non-2xx statuses are returned as *RequestFailedError; an envelope
// that cannot be decoded or has nothing to show is a
// *MalformedResponseError.
func (c *Client) Fragment(ctx context.Context, call Call) (*Fragment, *Response, error) {
	if call.RequestID == "" {
		call.RequestID = uuid.NewString()
	}

	if !call.idempotent() || c.conf.RetryAttempts < 2 {
		return c.fragment(ctx, call)
	}

	var (
		frag *Fragment
		resp *Response
	)
	err := c.newRetrier().DoWithContext(ctx, func(r *roko.Retrier) error {
		var err error
		frag, resp, err = c.fragment(ctx, call)
		if err == nil {
			return nil
		}

		if !isRetryable(err, resp) {
			r.Break()
			return err
		}

		c.logger.Warn("%s (%s)", err, r)
		return err
	})
	return frag, resp, err
}

func (c *Client) newRetrier() *roko.Retrier {
	if c.conf.RetryInterval <= 0 {
		return roko.NewRetrier(
			roko.WithMaxAttempts(c.conf.RetryAttempts),
			roko.WithStrategy(roko.Constant(0)),
		)
	}
	return roko.NewRetrier(
		roko.WithMaxAttempts(c.conf.RetryAttempts),
		roko.WithStrategy(roko.Constant(c.conf.RetryInterval)),
		roko.WithJitter(),
	)
}

func (c *Client) fragment(ctx context.Context, call Call) (*Fragment, *Response, error) {
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, nil, err
	}

	frag := new(Fragment)
	resp, err := c.doRequest(req, frag)
	if err != nil {
		return nil, resp, err
	}
	return frag, resp, nil
}

// doRequest sends an API request and decodes the response into v.
func (c *Client) doRequest(req *http.Request, v *Fragment) (*Response, error) {
	resp, err := fragmenthttp.Do(c.logger, c.client, req,
		fragmenthttp.WithDebugHTTP(c.conf.DebugHTTP),
		fragmenthttp.WithTraceHTTP(c.conf.TraceHTTP),
	)
	if err != nil {
		return nil, &RequestFailedError{
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    err,
		}
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse

	response := &Response{Response: resp}

	if err := checkResponse(resp); err != nil {
		// even though there was an error, we still return the response
		// in case the caller wants to inspect it further
		return response, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response, &RequestFailedError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        fmt.Errorf("reading response body: %w", err),
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return response, &MalformedResponseError{
			URL:    req.URL.String(),
			Reason: "response is not a JSON object",
			Err:    err,
		}
	}

	if v.Body == nil && v.Error == "" && v.Message == "" {
		return response, &MalformedResponseError{
			URL:    req.URL.String(),
			Reason: "response has no body field",
		}
	}

	c.logger.WithFields(
		logger.SizeField("size", len(v.HTML())),
	).Debug("Decoded fragment from %s", req.URL.Path)

	return response, nil
}

// IsErrHavingStatus reports whether err is a RequestFailedError with the
// given HTTP status code.
func IsErrHavingStatus(err error, code int) bool {
	var rerr *RequestFailedError
	return errors.As(err, &rerr) && rerr.StatusCode == code
}

func checkResponse(r *http.Response) error {
	if c := r.StatusCode; 200 <= c && c <= 299 {
		return nil
	}

	rerr := &RequestFailedError{
		Method:     r.Request.Method,
		URL:        r.Request.URL.String(),
		StatusCode: r.StatusCode,
		Status:     r.Status,
	}

	// Error bodies are usually HTML from the framework, but the API
	// sometimes answers with its own envelope.
	data, err := io.ReadAll(r.Body)
	if err == nil && len(data) > 0 {
		var env Fragment
		if json.Unmarshal(data, &env) == nil {
			rerr.Message = env.Error
			if rerr.Message == "" {
				rerr.Message = env.Message
			}
		}
	}

	return rerr
}
