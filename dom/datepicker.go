package dom

import "golang.org/x/net/html"

// DateFormat is the display format date pickers are attached with.
const DateFormat = "yyyy-mm-dd"

// AttachDatePicker marks n as enhanced by a date-selection widget with the
// given display format, using the data attributes bootstrap-datepicker
// reads.
func AttachDatePicker(n *html.Node, format string) {
	SetAttr(n, "data-provide", "datepicker")
	SetAttr(n, "data-date-format", format)
}

// HasDatePicker reports whether AttachDatePicker was applied to n, and
// with which format.
func HasDatePicker(n *html.Node) (format string, ok bool) {
	if Attr(n, "data-provide") != "datepicker" {
		return "", false
	}
	return Attr(n, "data-date-format"), true
}
