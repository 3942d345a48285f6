package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/observability"
	"github.com/aretw0/guiapi/pkg/registry"
)

// Patcher applies HTML updates to a document.
type Patcher interface {
	// ReplaceContent sets the inner HTML of all nodes matching selector and
	// returns the number of nodes matched.
	ReplaceContent(selector, content string) (int, error)
	// Count returns the number of nodes matching selector.
	Count(selector string) int
}

// Resolver looks up client functions by name.
type Resolver interface {
	Resolve(name string) (registry.Handler, bool)
}

// Interpreter applies the effects of a completed submission in order.
// Anomalies are absorbed per effect; Apply never aborts mid-sequence.
type Interpreter struct {
	doc       Patcher
	functions Resolver
	policy    ContentPolicy
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option configures the Interpreter.
type Option func(*Interpreter)

// WithLogger configures the structured logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithContentPolicy replaces the default Trusted policy.
func WithContentPolicy(p ContentPolicy) Option {
	return func(in *Interpreter) {
		in.policy = p
	}
}

// WithMetrics records effect outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(in *Interpreter) {
		in.metrics = m
	}
}

// New creates an Interpreter patching doc and calling functions from the registry.
func New(doc Patcher, functions Resolver, opts ...Option) *Interpreter {
	in := &Interpreter{
		doc:       doc,
		functions: functions,
		policy:    Trusted{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Apply walks results in order. For each result the HTML updates are applied
// first, then the JS calls, each list in the order given.
func (in *Interpreter) Apply(ctx context.Context, results []domain.Result) Report {
	rep := Report{Results: len(results)}

	for i, r := range results {
		if r.Error != nil {
			in.diagnose(&rep, slog.LevelWarn, domain.Diagnostic{
				Kind:   domain.DiagServerError,
				Result: i,
				Index:  -1,
				Name:   r.Name,
				Detail: r.Error.Error(),
			})
		}

		for j, update := range r.HTML {
			in.applyHTML(ctx, &rep, i, j, update)
		}

		for j, call := range r.JS {
			in.call(ctx, &rep, i, j, call)
		}
	}
	return rep
}

func (in *Interpreter) applyHTML(ctx context.Context, rep *Report, i, j int, u domain.HTMLUpdate) {
	if u.Operation != domain.HTMLReplace {
		in.metrics.Effect("html", observability.EffectSkipped)
		rep.HTMLSkipped++
		in.diagnose(rep, slog.LevelWarn, domain.Diagnostic{
			Kind:   domain.DiagUnknownOperation,
			Result: i,
			Index:  j,
			Name:   u.Selector,
			Detail: fmt.Sprintf("%v: %s", domain.ErrUnknownOperation, u.Operation),
		})
		return
	}

	present := in.doc.Count(u.Selector) > 0
	if present {
		for _, call := range u.Destroy {
			in.call(ctx, rep, i, j, call)
		}
	}

	n, err := in.doc.ReplaceContent(u.Selector, in.policy.Prepare(u.Content))
	if err != nil {
		in.metrics.Effect("html", observability.EffectFailed)
		rep.HTMLSkipped++
		in.diagnose(rep, slog.LevelWarn, domain.Diagnostic{
			Kind:   domain.DiagInvalidSelector,
			Result: i,
			Index:  j,
			Name:   u.Selector,
			Detail: err.Error(),
		})
		return
	}
	if n == 0 {
		rep.HTMLSkipped++
		in.metrics.Effect("html", observability.EffectSkipped)
		in.diagnose(rep, slog.LevelDebug, domain.Diagnostic{
			Kind:   domain.DiagSelectorMiss,
			Result: i,
			Index:  j,
			Name:   u.Selector,
			Detail: "no matching element",
		})
		return
	}

	rep.HTMLApplied++
	in.metrics.Effect("html", observability.EffectApplied)

	for _, call := range u.Init {
		in.call(ctx, rep, i, j, call)
	}
}

func (in *Interpreter) call(ctx context.Context, rep *Report, i, j int, c domain.JSCall) {
	fn, ok := in.functions.Resolve(c.Name)
	if !ok {
		rep.CallsSkipped++
		in.metrics.Effect("js", observability.EffectSkipped)
		in.diagnose(rep, slog.LevelWarn, domain.Diagnostic{
			Kind:   domain.DiagUnknownFunction,
			Result: i,
			Index:  j,
			Name:   c.Name,
			Detail: domain.ErrUnknownFunction.Error(),
		})
		return
	}

	if err := invoke(ctx, fn, c.Arguments); err != nil {
		rep.CallsFailed++
		in.metrics.Effect("js", observability.EffectFailed)
		in.diagnose(rep, slog.LevelWarn, domain.Diagnostic{
			Kind:   domain.DiagFunctionFailed,
			Result: i,
			Index:  j,
			Name:   c.Name,
			Detail: err.Error(),
		})
		return
	}

	rep.CallsInvoked++
	in.metrics.Effect("js", observability.EffectApplied)
}

// invoke runs a handler and turns a panic into an error.
func invoke(ctx context.Context, fn registry.Handler, args json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, args)
}

func (in *Interpreter) diagnose(rep *Report, level slog.Level, d domain.Diagnostic) {
	rep.Diagnostics = append(rep.Diagnostics, d)
	in.logger.Log(context.Background(), level, "Interpreter: "+string(d.Kind),
		"result", d.Result,
		"index", d.Index,
		"name", d.Name,
		"detail", d.Detail,
	)
}
