// Package controller drives a page: it fetches HTML fragments from the API
// in response to clicks and form submissions and swaps them into the
// page's container element.
//
// All page mutation happens on one loop goroutine. Requests run on their
// own goroutines and hand their results back to the loop. Every dispatch
// takes a sequence number, and a response older than the latest dispatch
// is discarded, so the container always shows the answer to the most
// recently triggered interaction.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joggr/joggr-client/api"
	"github.com/joggr/joggr-client/dom"
	"github.com/joggr/joggr-client/logger"
	"github.com/joggr/joggr-client/routes"
	"golang.org/x/net/html"
)

var (
	// ErrNoElement is returned when a selector matches nothing inside the
	// container.
	ErrNoElement = errors.New("no matching element in the container")

	// ErrNotBound is returned when an element matches no binding.
	ErrNotBound = errors.New("element is not bound")

	// ErrStarted is returned by a second call to Start.
	ErrStarted = errors.New("controller already started")

	// ErrNotStarted is returned by events sent before a successful Start.
	ErrNotStarted = errors.New("controller not started")

	// ErrStopped is returned once the controller's context is done.
	ErrStopped = errors.New("controller stopped")
)

// Invoker performs API calls. *api.Client implements it.
type Invoker interface {
	Fragment(ctx context.Context, call api.Call) (*api.Fragment, *api.Response, error)
}

// Capabilities reports what the runtime supports natively.
type Capabilities interface {
	NativeDateInput() bool
}

// CapabilityFunc adapts a function to Capabilities.
type CapabilityFunc func() bool

func (f CapabilityFunc) NativeDateInput() bool { return f() }

var (
	// NativeDateInput is a runtime with its own date input widget.
	NativeDateInput Capabilities = CapabilityFunc(func() bool { return true })

	// NoNativeDateInput is a runtime that needs date inputs enhanced.
	NoNativeDateInput Capabilities = CapabilityFunc(func() bool { return false })
)

// Config holds the controller's tunables.
type Config struct {
	// InitialEndpoint is fetched by Start. Defaults to entries/list.
	InitialEndpoint string

	// DateInput selects the elements that get a date picker when the
	// runtime has no native date input. Defaults to input[type=date].
	DateInput string

	// DateFormat is the picker's display format. Defaults to yyyy-mm-dd.
	DateFormat string

	// AlertOnMessages shows the error and message fields of a response
	// as blocking alerts.
	AlertOnMessages bool
}

// DefaultConfig is the configuration New starts from.
func DefaultConfig() Config {
	return Config{
		InitialEndpoint: api.PathEntriesList,
		DateInput:       "input[type=date]",
		DateFormat:      dom.DateFormat,
		AlertOnMessages: true,
	}
}

// Option configures a Controller.
type Option func(*Controller)

func WithConfig(conf Config) Option { return func(c *Controller) { c.conf = conf } }
func WithRoutes(t *routes.Table) Option { return func(c *Controller) { c.table = t } }
func WithCapabilities(caps Capabilities) Option { return func(c *Controller) { c.caps = caps } }
func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }
func WithSanitizer(s dom.Sanitizer) Option { return func(c *Controller) { c.sanitizer = s } }

// WithDatePicker replaces the function that enhances date inputs.
func WithDatePicker(attach func(n *html.Node, format string)) Option {
	return func(c *Controller) { c.attachDatePicker = attach }
}

// Controller is the fragment controller for one page.
type Controller struct {
	logger logger.Logger
	client Invoker
	doc    *dom.Document

	conf             Config
	table            *routes.Table
	caps             Capabilities
	notifier         Notifier
	sanitizer        dom.Sanitizer
	attachDatePicker func(n *html.Node, format string)
	dateInput        dom.Selector
	confErr          error

	started atomic.Bool
	events  chan event
	results chan result
	done    chan struct{}

	// Owned by the loop goroutine.
	latest  uint64
	current string

	inflight inflight
}

// New returns a controller for doc that talks to the API through client.
func New(l logger.Logger, client Invoker, doc *dom.Document, opts ...Option) *Controller {
	c := &Controller{
		logger:           l,
		client:           client,
		doc:              doc,
		conf:             DefaultConfig(),
		caps:             NativeDateInput,
		table:            routes.Default(),
		notifier:         LogNotifier{Logger: l},
		sanitizer:        dom.Trusted,
		attachDatePicker: dom.AttachDatePicker,
		events:           make(chan event),
		results:          make(chan result),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.table == nil {
		c.table = routes.Default()
	}

	defaults := DefaultConfig()
	if c.conf.InitialEndpoint == "" {
		c.conf.InitialEndpoint = defaults.InitialEndpoint
	}
	if c.conf.DateInput == "" {
		c.conf.DateInput = defaults.DateInput
	}
	if c.conf.DateFormat == "" {
		c.conf.DateFormat = defaults.DateFormat
	}

	// Reported by Start.
	c.dateInput, c.confErr = dom.ParseSelector(c.conf.DateInput)
	if c.confErr != nil {
		c.confErr = fmt.Errorf("date input selector: %w", c.confErr)
	} else if err := c.table.Compile(); err != nil {
		c.confErr = err
	}

	return c
}

// Start registers the bindings, dispatches the initial fetch and starts the
// event loop. It returns once the initial request is in flight; the loop
// runs until ctx is done. A controller whose configuration is invalid
// never starts, and every call to Start reports why.
func (c *Controller) Start(ctx context.Context) error {
	if c.confErr != nil {
		return c.confErr
	}

	if !c.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	for _, b := range c.table.Bindings {
		c.logger.Debug("Bound %s", b.String())
	}

	c.current = c.conf.InitialEndpoint
	c.dispatch(ctx, "initialize", api.Call{Path: c.conf.InitialEndpoint})

	go c.loop(ctx)

	return nil
}

// Done is closed once the loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Document is the page the controller drives.
func (c *Controller) Document() *dom.Document {
	return c.doc
}

// Routes is the active routing table.
func (c *Controller) Routes() *routes.Table {
	return c.table
}

// Wait blocks until every dispatched request has been rendered or
// discarded.
func (c *Controller) Wait(ctx context.Context) error {
	return c.inflight.wait(ctx, c.done)
}

// Invoke requests endpoint with method (GET when empty) and renders the
// result when it arrives. It returns once the request is dispatched.
func (c *Controller) Invoke(ctx context.Context, endpoint, method string) error {
	return c.send(ctx, event{kind: eventInvoke, target: endpoint, method: method})
}

// Click simulates a click on the first element inside the container
// matching selector.
func (c *Controller) Click(ctx context.Context, selector string) error {
	return c.send(ctx, event{kind: eventClick, target: selector})
}

// Submit simulates submitting the form matching selector (or the form
// enclosing the matching element).
func (c *Controller) Submit(ctx context.Context, selector string) error {
	return c.send(ctx, event{kind: eventSubmit, target: selector})
}

// Fill sets the value of the form control matching selector.
func (c *Controller) Fill(ctx context.Context, selector, value string) error {
	return c.send(ctx, event{kind: eventFill, target: selector, value: value})
}

type eventKind int

const (
	eventInvoke eventKind = iota
	eventClick
	eventSubmit
	eventFill
)

type event struct {
	kind   eventKind
	target string
	method string
	value  string
	reply  chan error
}

type result struct {
	seq     uint64
	trigger string
	call    api.Call
	frag    *api.Fragment
	err     error
}

func (c *Controller) send(ctx context.Context, ev event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.started.Load() {
		return ErrNotStarted
	}
	ev.reply = make(chan error, 1)

	select {
	case c.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}

	select {
	case err := <-ev.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *Controller) loop(ctx context.Context) {
	defer func() {
		// Waiters see the count drop before they see the loop stop.
		c.inflight.reset()
		close(c.done)
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Controller stopping: %v", context.Cause(ctx))
			return

		case ev := <-c.events:
			ev.reply <- c.handleEvent(ctx, ev)

		case r := <-c.results:
			c.handleResult(r)
			c.inflight.done()
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev event) error {
	switch ev.kind {
	case eventInvoke:
		if strings.TrimSpace(ev.target) == "" {
			return errors.New("empty endpoint")
		}
		c.dispatch(ctx, "invoke "+ev.target, api.Call{Method: ev.method, Path: ev.target})
		return nil

	case eventClick:
		n, err := c.find(ev.target)
		if err != nil {
			return err
		}
		b, el := c.table.Match(routes.Click, n, c.doc.Container())
		if b == nil {
			return fmt.Errorf("click %s: %w", dom.Describe(n), ErrNotBound)
		}
		c.dispatch(ctx, "click "+dom.Describe(el), api.Call{Method: b.Method, Path: b.Endpoint})
		return nil

	case eventSubmit:
		n, err := c.find(ev.target)
		if err != nil {
			return err
		}
		b, el := c.table.Match(routes.Submit, n, c.doc.Container())
		if b == nil {
			return fmt.Errorf("submit %s: %w", dom.Describe(n), ErrNotBound)
		}
		form, err := dom.SerializeForm(el)
		if err != nil {
			return err
		}

		call := api.Call{Method: form.Method, Path: form.Action, Form: form.Values}
		if b.Endpoint != "" {
			call.Path = b.Endpoint
		}
		if b.Method != "" {
			call.Method = b.Method
		}
		if call.Path == "" {
			// A form without an action posts back to where it came from.
			call.Path = c.current
		}
		c.dispatch(ctx, "submit "+dom.Describe(el), call)
		return nil

	case eventFill:
		n, err := c.find(ev.target)
		if err != nil {
			return err
		}
		return c.doc.Mutate(func(_, _ *html.Node) error {
			return dom.SetValue(n, ev.value)
		})
	}

	return fmt.Errorf("unknown event kind %d", ev.kind)
}

func (c *Controller) find(selector string) (*html.Node, error) {
	sel, err := dom.ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	nodes := c.doc.QueryContainer(sel)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	return nodes[0], nil
}

// dispatch must only be called from the loop goroutine, or from Start
// before the loop exists.
func (c *Controller) dispatch(ctx context.Context, trigger string, call api.Call) {
	c.latest++
	seq := c.latest

	kind, _, _ := strings.Cut(trigger, " ")
	requestsDispatched.WithLabelValues(kind).Inc()

	c.logger.WithFields(
		logger.SeqField(seq),
	).Debug("Dispatching %s: %s %s", trigger, methodOrGet(call.Method), call.Path)

	c.inflight.add()
	go func() {
		start := time.Now()
		frag, _, err := c.client.Fragment(ctx, call)
		requestDurations.Observe(time.Since(start).Seconds())

		select {
		case c.results <- result{seq: seq, trigger: trigger, call: call, frag: frag, err: err}:
		case <-c.done:
		}
	}()
}

func (c *Controller) handleResult(r result) {
	l := c.logger.WithFields(logger.SeqField(r.seq))

	if r.seq < c.latest {
		responsesHandled.WithLabelValues("stale").Inc()
		l.Debug("Discarding response to %s, superseded by request %d", r.trigger, c.latest)
		return
	}

	if r.err != nil {
		c.reportFailure(r.trigger, r.err)
		return
	}

	if err := c.Render(r.frag); err != nil {
		c.reportFailure(r.trigger, err)
		return
	}

	responsesHandled.WithLabelValues("rendered").Inc()
	if r.frag.HasBody() {
		c.current = r.call.Path
	}
}

func (c *Controller) reportFailure(trigger string, err error) {
	var (
		rerr *api.RequestFailedError
		merr *api.MalformedResponseError
		text string
	)
	switch {
	case errors.As(err, &merr):
		responsesHandled.WithLabelValues("malformed").Inc()
		text = fmt.Sprintf("The server sent a response that can't be shown (%s)", merr.Reason)
	case errors.As(err, &rerr) && rerr.Message != "":
		responsesHandled.WithLabelValues("failed").Inc()
		text = fmt.Sprintf("Request failed: %s", rerr.Message)
	case errors.As(err, &rerr) && rerr.StatusCode != 0:
		responsesHandled.WithLabelValues("failed").Inc()
		text = fmt.Sprintf("Request failed: %s", rerr.Status)
	default:
		responsesHandled.WithLabelValues("failed").Inc()
		text = "Request failed: the server could not be reached"
	}

	c.logger.Warn("%s: %v", trigger, err)
	c.notifier.Notify(Notification{Severity: SeverityError, Text: text, Err: err})
}

func methodOrGet(m string) string {
	if m == "" {
		return "GET"
	}
	return strings.ToUpper(m)
}

// inflight counts dispatched requests that haven't been handled yet.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (f *inflight) add() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
}

func (f *inflight) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return
	}
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

func (f *inflight) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n > 0 {
		f.n = 0
		close(f.idle)
	}
}

func (f *inflight) wait(ctx context.Context, stopped <-chan struct{}) error {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return nil
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
