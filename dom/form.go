package dom

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Form is a serialized form submission.
type Form struct {
	// Action is the form's action attribute, unresolved. Empty means the
	// current document.
	Action string

	// Method is the upper-cased method attribute, GET when absent.
	Method string

	// Values holds the successful controls in document order per name.
	Values url.Values
}

// SerializeForm collects a form's successful controls the way a browser
// would submit them: named, enabled controls; checked checkboxes and
// radios; selected options; no buttons or file inputs.
func SerializeForm(form *html.Node) (Form, error) {
	if form == nil || form.Type != html.ElementNode || form.Data != "form" {
		return Form{}, fmt.Errorf("%s is not a form", Describe(form))
	}

	f := Form{
		Action: strings.TrimSpace(Attr(form, "action")),
		Method: strings.ToUpper(strings.TrimSpace(Attr(form, "method"))),
		Values: url.Values{},
	}
	if f.Method == "" {
		f.Method = http.MethodGet
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				collectControl(c, f.Values)
			}
			walk(c)
		}
	}
	walk(form)

	return f, nil
}

func collectControl(n *html.Node, values url.Values) {
	name := Attr(n, "name")
	if name == "" || HasAttr(n, "disabled") {
		return
	}

	switch n.Data {
	case "input":
		switch strings.ToLower(Attr(n, "type")) {
		case "submit", "button", "reset", "image", "file":
			return
		case "checkbox", "radio":
			if !HasAttr(n, "checked") {
				return
			}
			v, ok := lookupAttr(n, "value")
			if !ok {
				v = "on"
			}
			values.Add(name, v)
		default:
			values.Add(name, Attr(n, "value"))
		}

	case "textarea":
		values.Add(name, TextContent(n))

	case "select":
		options := QueryAll(n, MustParseSelector("option"))
		var selected []*html.Node
		for _, o := range options {
			if HasAttr(o, "selected") {
				selected = append(selected, o)
			}
		}
		if len(selected) == 0 && !HasAttr(n, "multiple") && len(options) > 0 {
			selected = options[:1]
		}
		for _, o := range selected {
			values.Add(name, optionValue(o))
		}
	}
}

func optionValue(o *html.Node) string {
	if v, ok := lookupAttr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(TextContent(o))
}

// SetValue sets a control's current value: the value attribute of inputs,
// the text of textareas, the selected option of selects. Checkboxes and
// radios are checked unless value is "", "false" or "off".
func SetValue(n *html.Node, value string) error {
	if n == nil || n.Type != html.ElementNode {
		return fmt.Errorf("%s is not a form control", Describe(n))
	}

	switch n.Data {
	case "input":
		switch strings.ToLower(Attr(n, "type")) {
		case "checkbox", "radio":
			switch strings.ToLower(value) {
			case "", "false", "off":
				RemoveAttr(n, "checked")
			default:
				SetAttr(n, "checked", "")
			}
		default:
			SetAttr(n, "value", value)
		}

	case "textarea":
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: value})

	case "select":
		found := false
		for _, o := range QueryAll(n, MustParseSelector("option")) {
			if optionValue(o) == value && !found {
				SetAttr(o, "selected", "")
				found = true
			} else if !HasAttr(n, "multiple") {
				RemoveAttr(o, "selected")
			}
		}
		if !found {
			return fmt.Errorf("%s has no option %q", Describe(n), value)
		}

	default:
		return fmt.Errorf("%s is not a form control", Describe(n))
	}

	return nil
}
