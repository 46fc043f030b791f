// Package apitest provides a fake joggr API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Namespace is where the fake mounts the API.
const Namespace = "/api/v1"

// Request is a request the fake received.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Form     url.Values
	Header   http.Header
}

// Server is an httptest.Server routing the API namespace with chi.
type Server struct {
	*httptest.Server

	t      testing.TB
	router chi.Router

	mu       sync.Mutex
	requests []Request
}

// NewServer starts an empty fake. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{t: t}

	api := chi.NewRouter()
	api.NotFound(func(rw http.ResponseWriter, req *http.Request) {
		WriteJSON(rw, http.StatusNotFound, map[string]any{"error": "not found: " + req.URL.Path})
	})

	root := chi.NewRouter()
	root.Use(s.record)
	root.Mount(Namespace, api)

	s.router = api
	s.Server = httptest.NewServer(root)
	t.Cleanup(s.Close)

	return s
}

// Endpoint is the namespace URL, with a trailing slash.
func (s *Server) Endpoint() string {
	return s.URL + Namespace + "/"
}

// Handle routes method and path (relative to the namespace) to h.
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.router.MethodFunc(method, "/"+strings.TrimLeft(path, "/"), h)
}

// Body answers method and path with {"body": body}.
func (s *Server) Body(method, path, body string) {
	s.Handle(method, path, func(rw http.ResponseWriter, req *http.Request) {
		WriteJSON(rw, http.StatusOK, map[string]any{"body": body})
	})
}

// Raw answers method and path with the given status and payload.
func (s *Server) Raw(method, path string, status int, payload string) {
	s.Handle(method, path, func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		rw.Write([]byte(payload)) //nolint:errcheck // The test would still fail
	})
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests received for method and path (relative
// to the namespace).
func (s *Server) RequestsTo(method, path string) []Request {
	want := Namespace + "/" + strings.TrimLeft(path, "/")

	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == want {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			s.t.Errorf("req.ParseForm() = %v", err)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   req.Method,
			Path:     req.URL.Path,
			RawQuery: req.URL.RawQuery,
			Form:     req.Form,
			Header:   req.Header.Clone(),
		})
		s.mu.Unlock()

		next.ServeHTTP(rw, req)
	})
}

// WriteJSON writes v as a JSON response.
func WriteJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v) //nolint:errcheck // The test would still fail
}
