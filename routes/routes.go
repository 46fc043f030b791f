// Package routes holds the declarative table that maps page elements to
// API operations.
package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/joggr/joggr-client/dom"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Trigger is the event a binding reacts to.
type Trigger string

const (
	Click  Trigger = "click"
	Submit Trigger = "submit"
)

var allowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Binding maps elements matching Selector to an API operation.
type Binding struct {
	Selector string  `yaml:"selector"`
	Trigger  Trigger `yaml:"trigger"`

	// Endpoint is a path under the API namespace. Submit bindings leave
	// it empty to use the form's action.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Method defaults to GET for clicks. Submit bindings leave it empty
	// to use the form's method.
	Method string `yaml:"method,omitempty"`

	sel dom.Selector
}

// Matches reports whether n matches the binding's selector. The table must
// have been compiled.
func (b *Binding) Matches(n *html.Node) bool {
	return b.sel.Match(n)
}

func (b *Binding) String() string {
	target := b.Endpoint
	if target == "" {
		target = "(form action)"
	}
	method := b.Method
	if method == "" {
		method = "(form method)"
	}
	return fmt.Sprintf("%s %s -> %s %s", b.Trigger, b.Selector, method, target)
}

// Table is an ordered list of bindings; the first match wins.
type Table struct {
	Bindings []Binding `yaml:"bindings"`
}

// Default is the joggr page's table.
func Default() *Table {
	t := &Table{Bindings: []Binding{
		{Selector: "a#login", Trigger: Click, Endpoint: "users/login", Method: http.MethodGet},
		{Selector: "a#signup", Trigger: Click, Endpoint: "users/register", Method: http.MethodGet},
		{Selector: "a#logout", Trigger: Click, Endpoint: "users/logout", Method: http.MethodPost},
		{Selector: "a#entries", Trigger: Click, Endpoint: "entries/list", Method: http.MethodGet},
		{Selector: "a#weekly", Trigger: Click, Endpoint: "entries/weekly", Method: http.MethodGet},
		{Selector: ".show-all", Trigger: Click, Endpoint: "entries/list", Method: http.MethodGet},
		{Selector: "form", Trigger: Submit},
	}}
	if err := t.Compile(); err != nil {
		panic(fmt.Sprintf("default routing table: %v", err))
	}
	return t
}

// Load decodes a YAML table and compiles it.
func Load(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	t := &Table{}
	if err := dec.Decode(t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("routing table is empty")
		}
		return nil, fmt.Errorf("decoding routing table: %w", err)
	}
	if err := t.Compile(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Compile validates every binding, normalizes methods and parses
// selectors.
func (t *Table) Compile() error {
	if len(t.Bindings) == 0 {
		return errors.New("routing table has no bindings")
	}

	var errs []error
	for i := range t.Bindings {
		if err := t.Bindings[i].compile(); err != nil {
			errs = append(errs, fmt.Errorf("binding %d (%s): %w", i, t.Bindings[i].Selector, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Binding) compile() error {
	sel, err := dom.ParseSelector(b.Selector)
	if err != nil {
		return err
	}
	b.sel = sel

	b.Method = strings.ToUpper(strings.TrimSpace(b.Method))
	b.Endpoint = strings.TrimSpace(b.Endpoint)

	switch b.Trigger {
	case Click:
		if b.Endpoint == "" {
			return errors.New("click bindings need an endpoint")
		}
		if b.Method == "" {
			b.Method = http.MethodGet
		}
	case Submit:
	default:
		return fmt.Errorf("unknown trigger %q (want %q or %q)", b.Trigger, Click, Submit)
	}

	if b.Method != "" && !slices.Contains(allowedMethods, b.Method) {
		return fmt.Errorf("unsupported method %q", b.Method)
	}
	if strings.HasPrefix(b.Endpoint, "/") || strings.Contains(b.Endpoint, "://") {
		return fmt.Errorf("endpoint %q must be a path under the API namespace", b.Endpoint)
	}

	return nil
}

// Match finds the binding for a trigger on n. Like event delegation, it
// walks from n up to (but excluding) boundary and returns the first
// element that matches a binding, together with that binding.
func (t *Table) Match(trigger Trigger, n, boundary *html.Node) (*Binding, *html.Node) {
	for cur := n; cur != nil && cur != boundary; cur = cur.Parent {
		for i := range t.Bindings {
			b := &t.Bindings[i]
			if b.Trigger == trigger && b.Matches(cur) {
				return b, cur
			}
		}
	}
	return nil, nil
}

// Triggers returns the bindings for one trigger, in table order.
func (t *Table) Triggers(trigger Trigger) []*Binding {
	var out []*Binding
	for i := range t.Bindings {
		if t.Bindings[i].Trigger == trigger {
			out = append(out, &t.Bindings[i])
		}
	}
	return out
}
