// Package dom models the page a fragment controller drives: a parsed HTML
// document with one container element whose content is replaced wholesale.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// ErrNoContainer is returned when the page has no element matching the
// container selector.
var ErrNoContainer = errors.New("page has no container element")

// Document is a parsed page. Structural changes are expected to come from a
// single goroutine; the read accessors are safe to call from any goroutine.
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	container *html.Node

	// written is the fragment most recently placed into the container,
	// verbatim. It is nil until the first write.
	written *string
}

// Parse reads a page and locates its container.
func Parse(r io.Reader, container Selector) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	c := Query(root, container)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContainer, container)
	}

	return &Document{root: root, container: c}, nil
}

// ParseString is Parse for a page held in memory.
func ParseString(page string, container Selector) (*Document, error) {
	return Parse(strings.NewReader(page), container)
}

// Root is the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Container is the container element.
func (d *Document) Container() *html.Node {
	return d.container
}

// SetContainerHTML replaces the container's children with the parsed
// fragment and remembers the fragment verbatim.
func (d *Document) SetContainerHTML(fragment string) error {
	// The fragment is parsed in the context of a detached copy of the
	// container so that the parser can't see (or touch) the live tree.
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     d.container.Data,
		DataAtom: d.container.DataAtom,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for c := d.container.FirstChild; c != nil; {
		next := c.NextSibling
		d.container.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		d.container.AppendChild(n)
	}
	d.written = &fragment

	return nil
}

// ContainerHTML returns the fragment most recently written into the
// container, exactly as written. Before the first write it returns the
// container's initial markup as serialized by the parser.
func (d *Document) ContainerHTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.written != nil {
		return *d.written
	}
	return renderChildren(d.container)
}

// ContainerDOM serializes the container's live children, including any
// changes made after the last write (filled-in fields, enhancements).
func (d *Document) ContainerDOM() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return renderChildren(d.container)
}

// Render writes the whole live page to w.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// Mutate runs f with the document locked for writing. Changes to nodes
// made outside Mutate race with the read accessors.
func (d *Document) Mutate(f func(root, container *html.Node) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return f(d.root, d.container)
}

// QueryContainer returns the elements inside the container matching sel.
func (d *Document) QueryContainer(sel Selector) []*html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return QueryAll(d.container, sel)
}

func renderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Render only fails on writer errors, and bytes.Buffer has none.
		html.Render(&buf, c) //nolint:errcheck
	}
	return buf.String()
}
