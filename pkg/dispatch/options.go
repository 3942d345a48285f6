package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/interpret"
	"github.com/aretw0/guiapi/pkg/observability"
)

// DefaultEndpoint is the path the original client posts to.
const DefaultEndpoint = "/gui/"

// OrderPolicy decides how completions of concurrent submissions are applied.
type OrderPolicy int

const (
	// OrderCompletion applies every response in the order its round trip completes.
	// Two overlapping submissions may therefore apply out of send order.
	OrderCompletion OrderPolicy = iota
	// OrderLatest drops a response when a newer submission has already been applied.
	OrderLatest
)

func (p OrderPolicy) String() string {
	switch p {
	case OrderCompletion:
		return "completion"
	case OrderLatest:
		return "latest"
	}
	return "unknown"
}

// ParseOrderPolicy maps "completion" and "latest" to an OrderPolicy.
func ParseOrderPolicy(s string) (OrderPolicy, bool) {
	switch s {
	case "", "completion":
		return OrderCompletion, true
	case "latest":
		return OrderLatest, true
	}
	return OrderCompletion, false
}

// Applier applies the results of a submission. *interpret.Interpreter satisfies it.
type Applier interface {
	Apply(ctx context.Context, results []domain.Result) interpret.Report
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = c
	}
}

// WithTimeout bounds each round trip. Zero means no bound besides ctx.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithApplier hands parsed results to an interpreter. Without it, Submit only returns them.
func WithApplier(a Applier) Option {
	return func(d *Dispatcher) {
		d.applier = a
	}
}

// WithOrderPolicy sets how overlapping submissions are applied.
func WithOrderPolicy(p OrderPolicy) Option {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(d *Dispatcher) {
		d.headers.Add(key, value)
	}
}

// WithCorrelation numbers the actions of each batch 1..N and checks that
// any ID echoed back by the server lines up with its position.
func WithCorrelation() Option {
	return func(d *Dispatcher) {
		d.correlate = true
	}
}
