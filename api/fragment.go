package api

import (
	"context"
	"net/http"
)

// Paths of the API operations, relative to the endpoint.
const (
	PathEntriesList   = "entries/list"
	PathEntriesWeekly = "entries/weekly"
	PathEntriesAdd    = "entries/add"
	PathEntriesFilter = "entries/filter"
	PathUsersLogin    = "users/login"
	PathUsersRegister = "users/register"
	PathUsersLogout   = "users/logout"
)

// Fragment is the JSON envelope every API operation answers with.
type Fragment struct {
	// Body is the HTML to place into the page. It is nil when the server
	// omitted the field or sent null.
	Body *string `json:"body"`

	// Error is an application-level failure meant for the user.
	Error string `json:"error,omitempty"`

	// Message is an application-level notice meant for the user.
	Message string `json:"message,omitempty"`
}

// HasBody reports whether the server sent a body field, even an empty one.
func (f *Fragment) HasBody() bool {
	return f != nil && f.Body != nil
}

// HTML returns the body, or "" if there is none.
func (f *Fragment) HTML() string {
	if !f.HasBody() {
		return ""
	}
	return *f.Body
}

// NewFragment returns a Fragment with the given body.
func NewFragment(body string) *Fragment {
	return &Fragment{Body: &body}
}

// ListEntries fetches the default listing, which is also the landing
// content for visitors who aren't logged in.
func (c *Client) ListEntries(ctx context.Context) (*Fragment, *Response, error) {
	return c.Fragment(ctx, Call{Path: PathEntriesList})
}

// WeeklyEntries fetches the weekly summary.
func (c *Client) WeeklyEntries(ctx context.Context) (*Fragment, *Response, error) {
	return c.Fragment(ctx, Call{Path: PathEntriesWeekly})
}

// LoginPage fetches the login form.
func (c *Client) LoginPage(ctx context.Context) (*Fragment, *Response, error) {
	return c.Fragment(ctx, Call{Path: PathUsersLogin})
}

// RegisterPage fetches the signup form.
func (c *Client) RegisterPage(ctx context.Context) (*Fragment, *Response, error) {
	return c.Fragment(ctx, Call{Path: PathUsersRegister})
}

// Logout ends the server-side session. Nothing is cleared locally; the
// server drops the session and answers with the anonymous content.
func (c *Client) Logout(ctx context.Context) (*Fragment, *Response, error) {
	return c.Fragment(ctx, Call{Method: http.MethodPost, Path: PathUsersLogout})
}

// Login submits credentials.
func (c *Client) Login(ctx context.Context, form *LoginForm) (*Fragment, *Response, error) {
	return c.submit(ctx, http.MethodPost, PathUsersLogin, form)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, form *RegisterForm) (*Fragment, *Response, error) {
	return c.submit(ctx, http.MethodPost, PathUsersRegister, form)
}

// AddEntry records a run.
func (c *Client) AddEntry(ctx context.Context, form *EntryForm) (*Fragment, *Response, error) {
	return c.submit(ctx, http.MethodPost, PathEntriesAdd, form)
}

// FilterEntries lists entries between two dates.
func (c *Client) FilterEntries(ctx context.Context, opt *FilterOptions) (*Fragment, *Response, error) {
	return c.submit(ctx, http.MethodGet, PathEntriesFilter, opt)
}

func (c *Client) submit(ctx context.Context, method, path string, form any) (*Fragment, *Response, error) {
	values, err := encodeForm(form)
	if err != nil {
		return nil, nil, err
	}
	return c.Fragment(ctx, Call{Method: method, Path: path, Form: values})
}
