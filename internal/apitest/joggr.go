package apitest

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Fragments served by NewJoggr.
const (
	WelcomeHTML  = `<p>Welcome to the Joggr</p><a id="login" href="#">Log in</a> <a id="signup" href="#">Sign up</a>`
	LoginHTML    = `<form id="login" action="/api/v1/users/login" method="post"><input name="email" type="email"><input name="password" type="password"><button type="submit">Log in</button></form>`
	RegisterHTML = `<form id="signup" action="/api/v1/users/register" method="post"><input name="email"><input name="password" type="password"><input name="password2" type="password"></form>`
	EntriesHTML  = `<ul class="entries"></ul><a id="weekly" href="#">Weekly</a> <a id="logout" href="#">Log out</a><form id="add" action="/api/v1/entries/add" method="post"><input id="date" name="date" type="date"><input name="distance"><input name="time"></form>`
	WeeklyHTML   = `<ul><li>Mon: 8h</li></ul><button class="show-all">Show all</button>`
)

// Joggr is a fake that behaves like the joggr application: a single user,
// a cookie session, and fragments that change with login state.
type Joggr struct {
	*Server

	Email    string
	Password string

	mu       sync.Mutex
	sessions map[string]bool
}

// NewJoggr starts a fake joggr API with one registered user.
func NewJoggr(s *Server, email, password string) *Joggr {
	j := &Joggr{
		Server:   s,
		Email:    email,
		Password: password,
		sessions: map[string]bool{},
	}

	s.Handle(http.MethodGet, "entries/list", func(rw http.ResponseWriter, req *http.Request) {
		if j.loggedIn(req) {
			WriteJSON(rw, http.StatusOK, map[string]any{"body": EntriesHTML})
			return
		}
		WriteJSON(rw, http.StatusOK, map[string]any{"body": WelcomeHTML, "message": nil})
	})
	s.Handle(http.MethodGet, "entries/weekly", func(rw http.ResponseWriter, req *http.Request) {
		if !j.loggedIn(req) {
			WriteJSON(rw, http.StatusUnauthorized, map[string]any{"error": "login required"})
			return
		}
		WriteJSON(rw, http.StatusOK, map[string]any{"body": WeeklyHTML})
	})
	s.Body(http.MethodGet, "users/login", LoginHTML)
	s.Body(http.MethodGet, "users/register", RegisterHTML)
	s.Handle(http.MethodPost, "users/login", func(rw http.ResponseWriter, req *http.Request) {
		if req.PostForm.Get("email") != j.Email || req.PostForm.Get("password") != j.Password {
			WriteJSON(rw, http.StatusOK, map[string]any{"error": "Invalid email or password", "body": nil})
			return
		}
		http.SetCookie(rw, &http.Cookie{Name: "session", Value: j.login(), Path: "/"})
		WriteJSON(rw, http.StatusOK, map[string]any{
			"body":    EntriesHTML,
			"message": "Welcome, You logged in successfuly",
		})
	})
	s.Handle(http.MethodPost, "users/register", func(rw http.ResponseWriter, req *http.Request) {
		switch {
		case req.PostForm.Get("email") == j.Email:
			WriteJSON(rw, http.StatusOK, map[string]any{"error": "Email already registered", "body": nil})
		case req.PostForm.Get("password") != req.PostForm.Get("password2"):
			WriteJSON(rw, http.StatusOK, map[string]any{"error": "Passwords do not match", "body": nil})
		default:
			WriteJSON(rw, http.StatusOK, map[string]any{"body": LoginHTML, "message": "Thanks for signing up, please log in"})
		}
	})
	s.Handle(http.MethodPost, "users/logout", func(rw http.ResponseWriter, req *http.Request) {
		j.logout(req)
		WriteJSON(rw, http.StatusOK, map[string]any{"body": WelcomeHTML})
	})
	s.Handle(http.MethodPost, "entries/add", func(rw http.ResponseWriter, req *http.Request) {
		if !j.loggedIn(req) {
			WriteJSON(rw, http.StatusUnauthorized, map[string]any{"error": "login required"})
			return
		}
		WriteJSON(rw, http.StatusOK, map[string]any{"body": EntriesHTML})
	})

	return j
}

func (j *Joggr) login() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	id := uuid.NewString()
	j.sessions[id] = true
	return id
}

func (j *Joggr) logout(req *http.Request) {
	c, err := req.Cookie("session")
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.sessions, c.Value)
}

func (j *Joggr) loggedIn(req *http.Request) bool {
	c, err := req.Cookie("session")
	if err != nil {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sessions[c.Value]
}
