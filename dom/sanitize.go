package dom

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer rewrites a fragment before it is placed in the page.
type Sanitizer interface {
	Sanitize(fragment string) (string, error)
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(string) (string, error)

func (f SanitizerFunc) Sanitize(fragment string) (string, error) { return f(fragment) }

// Trusted leaves fragments untouched. It is the right choice when the API
// is a first-party origin serving its own templates.
var Trusted Sanitizer = SanitizerFunc(func(s string) (string, error) { return s, nil })

// PolicySanitizer sanitizes fragments with a bluemonday policy.
type PolicySanitizer struct {
	Policy *bluemonday.Policy
}

func (s PolicySanitizer) Sanitize(fragment string) (string, error) {
	return s.Policy.Sanitize(fragment), nil
}

var (
	// Form actions must stay on the API's origin.
	relativeAction = regexp.MustCompile(`^[A-Za-z0-9_./~-]*$`)
	formMethod     = regexp.MustCompile(`(?i)^(get|post)$`)
	controlType    = regexp.MustCompile(`(?i)^(text|email|password|date|number|checkbox|radio|hidden|search|submit|reset|button)$`)
)

// FragmentPolicy is bluemonday's user generated content policy widened
// to the markup joggr pages are built from: classes and the forms and
// controls that clicks and submits act on.
func FragmentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()

	p.AllowAttrs("action").Matching(relativeAction).OnElements("form")
	p.AllowAttrs("method").Matching(formMethod).OnElements("form")
	p.AllowAttrs("type").Matching(controlType).OnElements("input", "button")
	p.AllowAttrs("name", "value", "disabled").OnElements("input", "button", "select", "textarea")
	p.AllowAttrs("placeholder", "required", "checked", "step", "min", "max").OnElements("input", "textarea")
	p.AllowAttrs("multiple").OnElements("select")
	p.AllowAttrs("value", "selected").OnElements("option")
	p.AllowAttrs("for").OnElements("label")
	p.AllowElements("form", "input", "button", "select", "option", "textarea", "label", "fieldset", "legend")

	return p
}

// StripActive removes everything in a fragment that can execute or load
// content on its own: scripts, styles, meta refreshes, links, embeds,
// handler attributes and non-http URLs.
var StripActive Sanitizer = PolicySanitizer{Policy: FragmentPolicy()}
