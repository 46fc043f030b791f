package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a compiled CSS selector group.
type Selector struct {
	text  string
	group cascadia.SelectorGroup
}

// ParseSelector compiles s. Pseudo-elements are rejected since they never
// match a node.
func ParseSelector(s string) (Selector, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Selector{}, errors.New("empty selector")
	}

	group, err := cascadia.ParseGroup(text)
	if err != nil {
		return Selector{}, fmt.Errorf("selector %q: %w", s, err)
	}
	return Selector{text: text, group: group}, nil
}

// MustParseSelector is like ParseSelector but panics on error.
func MustParseSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

func (s Selector) String() string {
	return s.text
}

// Match reports whether n is an element matching s.
func (s Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || len(s.group) == 0 {
		return false
	}
	return s.group.Match(n)
}
