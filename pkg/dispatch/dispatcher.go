package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/interpret"
	"github.com/aretw0/guiapi/pkg/observability"
	"github.com/google/uuid"
)

// RequestIDHeader carries a fresh id on every request.
const RequestIDHeader = "X-Request-ID"

// applyingKey marks a context whose goroutine holds the apply lock.
type applyingKey struct{}

// Dispatcher submits batches of actions to the GUI endpoint and applies the results.
type Dispatcher struct {
	endpoint  string
	client    *http.Client
	timeout   time.Duration
	headers   http.Header
	logger    *slog.Logger
	metrics   *observability.Metrics
	applier   Applier
	policy    OrderPolicy
	correlate bool

	seq atomic.Uint64

	mu      sync.Mutex // serializes apply
	applied uint64     // newest applied token, guarded by mu
}

// Outcome is what a single submission produced.
type Outcome struct {
	Results []domain.Result
	Report  interpret.Report
	// Applied is false when no applier is configured or the response was stale.
	Applied bool
}

// New creates a Dispatcher posting to endpoint.
func New(endpoint string, opts ...Option) *Dispatcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	d := &Dispatcher{
		endpoint: endpoint,
		client:   http.DefaultClient,
		headers:  make(http.Header),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Endpoint returns the URL requests are posted to.
func (d *Dispatcher) Endpoint() string { return d.endpoint }

// Call submits a single action, the way most UI events do.
func (d *Dispatcher) Call(ctx context.Context, name string, args any) ([]domain.Result, error) {
	action, err := domain.NewAction(name, args)
	if err != nil {
		return nil, err
	}
	return d.Submit(ctx, domain.Batch{action})
}

// Submit sends the batch in one round trip and applies the results.
// Errors are *domain.TransportError, *domain.ProtocolError, ErrStaleResponse
// or a validation error; in each case no effects were applied.
func (d *Dispatcher) Submit(ctx context.Context, batch domain.Batch) ([]domain.Result, error) {
	out, err := d.Dispatch(ctx, batch)
	return out.Results, err
}

// Dispatch is Submit returning the interpreter report as well.
func (d *Dispatcher) Dispatch(ctx context.Context, batch domain.Batch) (Outcome, error) {
	start := time.Now()

	if err := batch.Validate(); err != nil {
		d.metrics.Submission(observability.OutcomeInvalid, 0)
		return Outcome{}, err
	}
	if d.correlate {
		batch = numbered(batch)
	}

	token := d.seq.Add(1)
	logger := d.logger.With("submission", token, "actions", len(batch))
	logger.Debug("Dispatcher: submitting", "names", batch.Names())

	done := d.metrics.Begin()
	results, err := d.roundTrip(ctx, batch)
	done()
	if err == nil && d.correlate {
		err = checkCorrelation(batch, results)
	}
	if err != nil {
		outcome := observability.OutcomeTransport
		if errors.Is(err, domain.ErrProtocol) {
			outcome = observability.OutcomeProtocol
		}
		d.metrics.Submission(outcome, time.Since(start))
		logger.Warn("Dispatcher: submission failed", "error", err)
		return Outcome{}, err
	}

	out, err := d.apply(ctx, token, results)
	if err != nil {
		d.metrics.Submission(observability.OutcomeStale, time.Since(start))
		logger.Info("Dispatcher: stale response dropped", "error", err)
		return out, err
	}

	d.metrics.Submission(observability.OutcomeOK, time.Since(start))
	logger.Debug("Dispatcher: applied", "results", len(results), "clean", out.Report.Clean())
	return out, nil
}

// apply runs the applier under the apply lock. A handler that submits while
// results are being applied already holds the lock through its context, so
// its own results are applied inline before the outer sequence continues.
func (d *Dispatcher) apply(ctx context.Context, token uint64, results []domain.Result) (Outcome, error) {
	if ctx.Value(applyingKey{}) != d {
		d.mu.Lock()
		defer d.mu.Unlock()
		ctx = context.WithValue(ctx, applyingKey{}, d)
	}

	out := Outcome{Results: results}
	if d.policy == OrderLatest {
		if token < d.applied {
			out.Report = interpret.Report{
				Results: len(results),
				Diagnostics: []domain.Diagnostic{{
					Kind:   domain.DiagStaleResponse,
					Result: -1,
					Index:  -1,
					Detail: fmt.Sprintf("submission %d older than applied %d", token, d.applied),
				}},
			}
			return out, fmt.Errorf("%w: submission %d, applied %d", domain.ErrStaleResponse, token, d.applied)
		}
		d.applied = token
	}

	if d.applier == nil {
		out.Report = interpret.Report{Results: len(results)}
		return out, nil
	}

	// Parsed results are applied to completion even if ctx is cancelled meanwhile.
	out.Report = d.applier.Apply(context.WithoutCancel(ctx), results)
	out.Applied = true
	return out, nil
}

func (d *Dispatcher) roundTrip(ctx context.Context, batch domain.Batch) ([]domain.Result, error) {
	body, err := encodeRequest(batch)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	for key, values := range d.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	return decodeResponse(data, len(batch))
}

func numbered(batch domain.Batch) domain.Batch {
	out := make(domain.Batch, len(batch))
	copy(out, batch)
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}
