package guiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/dispatch"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/interpret"
	"github.com/aretw0/guiapi/pkg/observability"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/registry"
)

// Well-known client functions the server may call.
const (
	FuncSetURL        = "setURL"
	FuncEnableSorting = "enableSorting"
)

// Client is the high-level entry point: one page, one dispatcher, one sealed
// function registry, wired together the way a browser tab runs the GUI API.
type Client struct {
	page        *page.Page
	functions   *registry.Registry
	interpreter *interpret.Interpreter
	dispatcher  *dispatch.Dispatcher
	logger      *slog.Logger

	snapshot     *page.Snapshot
	httpClient   *http.Client
	timeout      time.Duration
	metrics      *observability.Metrics
	policy       interpret.ContentPolicy
	order        dispatch.OrderPolicy
	headers      http.Header
	correlate    bool
	extra        map[string]registry.Handler
	extraOrder   []string
	skipSortInit bool
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithLogger sets a custom structured logger for the client and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for submissions.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMetrics records submissions and effects.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithContentPolicy sets how server markup is prepared before insertion.
func WithContentPolicy(p interpret.ContentPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithOrderPolicy sets how overlapping submissions are applied.
func WithOrderPolicy(p dispatch.OrderPolicy) Option {
	return func(c *Client) {
		c.order = p
	}
}

// WithHeader adds a header to every submission.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithCorrelation numbers actions and checks echoed result ids.
func WithCorrelation() Option {
	return func(c *Client) {
		c.correlate = true
	}
}

// WithSnapshot resumes a stored page instead of parsing fresh markup.
func WithSnapshot(s *page.Snapshot) Option {
	return func(c *Client) {
		c.snapshot = s
	}
}

// WithFunction registers an additional client function before the registry is sealed.
// A function that submits actions must pass on the ctx it was given: the nested
// submission then applies inline. Submitting with any other ctx waits for the
// running apply to finish and deadlocks.
func WithFunction(name string, fn registry.Handler) Option {
	return func(c *Client) {
		if _, ok := c.extra[name]; !ok {
			c.extraOrder = append(c.extraOrder, name)
		}
		c.extra[name] = fn
	}
}

// WithoutInitialSorting skips binding sortable lists at construction, for fresh
// and restored pages alike, leaving it to the first enableSorting call from the server.
func WithoutInitialSorting() Option {
	return func(c *Client) {
		c.skipSortInit = true
	}
}

// New creates a Client posting to endpoint and rendering into a page built from markup.
// The function registry is sealed before New returns.
func New(endpoint, markup string, opts ...Option) (*Client, error) {
	c := &Client{
		headers: make(http.Header),
		extra:   make(map[string]registry.Handler),
		policy:  interpret.Trusted{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	bindings := page.DefaultBindings(c.sink)
	var err error
	if c.snapshot != nil {
		c.page, err = page.Restore(c.snapshot, bindings...)
	} else {
		c.page, err = page.New(markup, bindings...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}
	c.logger = c.logger.With("page", c.page.ID)

	c.functions = registry.New()
	if err := c.functions.Register(FuncSetURL, c.setURL); err != nil {
		return nil, err
	}
	if err := c.functions.Register(FuncEnableSorting, c.enableSorting); err != nil {
		return nil, err
	}
	for _, name := range c.extraOrder {
		if err := c.functions.Register(name, c.extra[name]); err != nil {
			return nil, fmt.Errorf("failed to register %q: %w", name, err)
		}
	}
	c.functions.Seal()

	c.interpreter = interpret.New(c.page.Document, c.functions,
		interpret.WithLogger(c.logger),
		interpret.WithContentPolicy(c.policy),
		interpret.WithMetrics(c.metrics),
	)

	dopts := []dispatch.Option{
		dispatch.WithLogger(c.logger),
		dispatch.WithMetrics(c.metrics),
		dispatch.WithApplier(c.interpreter),
		dispatch.WithOrderPolicy(c.order),
		dispatch.WithTimeout(c.timeout),
	}
	if c.httpClient != nil {
		dopts = append(dopts, dispatch.WithHTTPClient(c.httpClient))
	}
	if c.correlate {
		dopts = append(dopts, dispatch.WithCorrelation())
	}
	for key, values := range c.headers {
		for _, v := range values {
			dopts = append(dopts, dispatch.WithHeader(key, v))
		}
	}
	c.dispatcher = dispatch.New(endpoint, dopts...)

	if !c.skipSortInit {
		if lists := c.page.Sorter.Enable(); len(lists) > 0 {
			c.logger.Debug("Client: sorting enabled", "lists", lists)
		}
	}
	return c, nil
}

// Call submits a single action and applies its results.
func (c *Client) Call(ctx context.Context, name string, args any) (dispatch.Outcome, error) {
	action, err := domain.NewAction(name, args)
	if err != nil {
		return dispatch.Outcome{}, err
	}
	return c.dispatcher.Dispatch(ctx, domain.Batch{action})
}

// Submit sends several actions in one round trip and applies their results in order.
func (c *Client) Submit(ctx context.Context, actions ...domain.Action) (dispatch.Outcome, error) {
	return c.dispatcher.Dispatch(ctx, domain.Batch(actions))
}

// Sort moves an element inside a sortable list, which submits the list's sort action.
func (c *Client) Sort(ctx context.Context, listID string, oldIndex, newIndex int) error {
	return c.page.Sorter.Move(ctx, listID, oldIndex, newIndex)
}

// Page returns the page the client renders into.
func (c *Client) Page() *page.Page { return c.page }

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// Functions lists the names the server may call.
func (c *Client) Functions() []string { return c.functions.Names() }

// Snapshot captures the page for storage.
func (c *Client) Snapshot() (*page.Snapshot, error) { return c.page.Snapshot() }

func (c *Client) sink(ctx context.Context, action domain.Action) error {
	_, err := c.dispatcher.Dispatch(ctx, domain.Batch{action})
	return err
}

// setURL(state, title, url) pushes a history entry.
func (c *Client) setURL(ctx context.Context, args json.RawMessage) error {
	var (
		state json.RawMessage
		title string
		url   string
	)
	if err := registry.Positional(args, &state, &title, &url); err != nil {
		return err
	}
	c.page.History.Push(page.HistoryEntry{State: state, Title: title, URL: url})
	return nil
}

func (c *Client) enableSorting(ctx context.Context, args json.RawMessage) error {
	lists := c.page.Sorter.Enable()
	c.logger.Debug("Client: sorting enabled", "lists", lists)
	return nil
}
