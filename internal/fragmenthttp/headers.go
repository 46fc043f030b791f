package fragmenthttp

import "net/http"

// headerTransport injects a fixed set of headers into every request.
// Using a transport for this has precedent in golang.org/x/oauth2; the
// same RoundTripper rules apply: the request must not be modified.
type headerTransport struct {
	Headers http.Header

	// Delegate is the underlying HTTP transport
	Delegate http.RoundTripper
}

// RoundTrip invoked each time a request is made.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for name, values := range t.Headers {
		if req.Header.Get(name) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return t.Delegate.RoundTrip(req)
}
