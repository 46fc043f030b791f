package controller

import (
	"fmt"

	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/dom"
	"github.com/joggr/joggr-client/logger"
	"golang.org/x/net/html"
)

// Render places a response into the page: the body replaces the
// container's content, date inputs are enhanced when the runtime can't
// render them natively, and the error and message fields become alerts
// (or plain notifications when alerts are off).
// A response with neither body, error nor message is malformed and leaves
// the page untouched.
func (c *Controller) Render(frag *api.Fragment) error {
	if frag == nil || (!frag.HasBody() && frag.Error == "" && frag.Message == "") {
		return &api.MalformedResponseError{Reason: "response has no body field"}
	}

	if frag.HasBody() {
		body, err := c.sanitizer.Sanitize(frag.HTML())
		if err != nil {
			return fmt.Errorf("sanitizing fragment: %w", err)
		}
		if err := c.doc.SetContainerHTML(body); err != nil {
			return err
		}

		c.logger.WithFields(
			logger.SizeField("size", len(body)),
		).Debug("Rendered fragment")

		if err := c.enhance(); err != nil {
			return err
		}
	}

	if c.conf.AlertOnMessages {
		if frag.Error != "" {
			alertsShown.Inc()
			c.notifier.Alert(frag.Error)
		}
		if frag.Message != "" {
			alertsShown.Inc()
			c.notifier.Alert(frag.Message)
		}
	} else {
		// Still shown, just without stopping the user.
		if frag.Error != "" {
			c.notifier.Notify(Notification{Severity: SeverityError, Text: frag.Error})
		}
		if frag.Message != "" {
			c.notifier.Notify(Notification{Severity: SeverityInfo, Text: frag.Message})
		}
	}

	return nil
}

func (c *Controller) enhance() error {
	if c.caps.NativeDateInput() {
		return nil
	}

	return c.doc.Mutate(func(_, container *html.Node) error {
		for _, n := range dom.QueryAll(container, c.dateInput) {
			c.attachDatePicker(n, c.conf.DateFormat)
			datePickersAttached.Inc()
			c.logger.Debug("Attached date picker to %s", dom.Describe(n))
		}
		return nil
	})
}
