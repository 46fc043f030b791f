// Package fragmenthttp creates standard Go [net/http.Client]s with common
// config options for talking to the fragment API.
package fragmenthttp

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"
)

// NewClient creates a HTTP client. Note that the default timeout is 60 seconds;
// use [WithNoTimeout] to wait forever.
func NewClient(opts ...ClientOption) *http.Client {
	conf := clientConfig{
		// This spells out the defaults, even if some of them are zero values.
		AllowHTTP2: true,
		Timeout:    60 * time.Second,
		TLSConfig:  nil,
		Cookies:    true,
		Headers:    nil,
	}
	for _, opt := range opts {
		opt(&conf)
	}

	cacheKey := transportCacheKey{
		AllowHTTP2: conf.AllowHTTP2,
		TLSConfig:  conf.TLSConfig,
	}

	transportCacheMu.Lock()
	transport := transportCache[cacheKey]
	if transport == nil {
		transport = newTransport(&conf)
		transportCache[cacheKey] = transport
	}
	transportCacheMu.Unlock()

	client := &http.Client{
		Timeout:   conf.Timeout,
		Transport: transport,
	}

	if conf.Cookies {
		// cookiejar.New only fails on a nil-incompatible PublicSuffixList,
		// which publicsuffix.List is not.
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		client.Jar = jar
	}

	if len(conf.Headers) > 0 {
		client.Transport = &headerTransport{
			Headers:  conf.Headers,
			Delegate: transport,
		}
	}

	return client
}

// Various NewClient options.
func WithAllowHTTP2(a bool) ClientOption { return func(c *clientConfig) { c.AllowHTTP2 = a } }
func WithTimeout(d time.Duration) ClientOption { return func(c *clientConfig) { c.Timeout = d } }
func WithNoTimeout(c *clientConfig) { c.Timeout = 0 }
func WithTLSConfig(t *tls.Config) ClientOption { return func(c *clientConfig) { c.TLSConfig = t } }
func WithCookies(on bool) ClientOption { return func(c *clientConfig) { c.Cookies = on } }

// WithHeader adds a header that is set on every request that doesn't
// already carry it.
func WithHeader(name, value string) ClientOption {
	return func(c *clientConfig) {
		if c.Headers == nil {
			c.Headers = http.Header{}
		}
		c.Headers.Add(name, value)
	}
}

type ClientOption = func(*clientConfig)

func newTransport(conf *clientConfig) *http.Transport {
	// Base any modifications on the default transport.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Allow override of TLSConfig. This must be set prior to calling
	// http2.ConfigureTransports.
	if conf.TLSConfig != nil {
		transport.TLSClientConfig = conf.TLSConfig
	}

	if conf.AllowHTTP2 {
		// There is a bug in http2 on Linux regarding using dead connections.
		// This is a workaround. See https://github.com/golang/go/issues/59690
		tr2, err := http2.ConfigureTransports(transport)
		if err != nil {
			// ConfigureTransports only fails if the transport was already
			// HTTP2-enabled, which a fresh clone is not.
			panic("http2.ConfigureTransports: " + err.Error())
		}
		if tr2 != nil {
			tr2.ReadIdleTimeout = 30 * time.Second
		}
	} else {
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		// The default TLSClientConfig has h2 in NextProtos, so the
		// negotiated TLS connection will assume h2 support.
		// see https://github.com/golang/go/issues/50571
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.NextProtos = []string{"http/1.1"}
	}

	return transport
}

type clientConfig struct {
	// If false, HTTP2 is disabled
	AllowHTTP2 bool

	// Timeout used as the client timeout.
	Timeout time.Duration

	// optional TLS configuration primarily used for testing
	TLSConfig *tls.Config

	// If true, the client keeps a cookie jar so that the server's session
	// survives between requests.
	Cookies bool

	// Headers added to every outgoing request.
	Headers http.Header
}

// The underlying http.Transport is cached, mainly so that multiple clients with
// the same options can reuse connections.
type transportCacheKey struct {
	AllowHTTP2 bool
	TLSConfig  *tls.Config
}

var (
	transportCacheMu sync.Mutex
	transportCache   = make(map[transportCacheKey]*http.Transport)
)
