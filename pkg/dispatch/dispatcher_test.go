package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/interpret"
	"github.com/aretw0/guiapi/pkg/observability"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers each request with whatever respond returns, JSON encoded
// unless it is already a []byte.
func fakeServer(t *testing.T, respond func(r *http.Request, req domain.Request) any) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req domain.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := respond(r, req)
		if raw, ok := out.([]byte); ok {
			_, _ = w.Write(raw)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

// echoResults replaces #<action name> with the action name, one result per action.
func echoResults(r *http.Request, req domain.Request) any {
	results := make([]domain.Result, len(req.Actions))
	for i, a := range req.Actions {
		results[i] = domain.Result{HTML: []domain.HTMLUpdate{domain.Replace("#"+a.Name, a.Name)}}
	}
	return domain.NewResponse(results)
}

type countingApplier struct {
	calls   int
	results int
}

func (c *countingApplier) Apply(ctx context.Context, results []domain.Result) interpret.Report {
	c.calls++
	c.results += len(results)
	return interpret.Report{Results: len(results)}
}

func TestSubmit_OneCallPerBatch(t *testing.T) {
	srv, calls := fakeServer(t, echoResults)
	doc := page.MustDocument(`<div id="a"></div><div id="b"></div><div id="c"></div>`)
	d := New(srv.URL, WithApplier(interpret.New(doc, registry.New())))

	batch, err := domain.NewBatch(
		domain.MustAction("a", nil),
		domain.MustAction("b", map[string]int{"n": 1}),
		domain.MustAction("c", []string{"x"}),
	)
	require.NoError(t, err)

	results, err := d.Submit(context.Background(), batch)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "a", doc.Text("#a"))
	assert.Equal(t, "b", doc.Text("#b"))
	assert.Equal(t, "c", doc.Text("#c"))
}

func TestSubmit_RequestShape(t *testing.T) {
	var got *http.Request
	var body domain.Request
	srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any {
		got = r
		body = req
		return echoResults(r, req)
	})
	d := New(srv.URL, WithHeader("Authorization", "Bearer t"))

	_, err := d.Call(context.Background(), "itemList", nil)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(RequestIDHeader))
	require.Len(t, body.Actions, 1)
	assert.Equal(t, "itemList", body.Actions[0].Name)
	assert.Equal(t, 0, body.Actions[0].ID)
}

func TestSubmit_EmptyBatch(t *testing.T) {
	srv, calls := fakeServer(t, echoResults)
	d := New(srv.URL)

	_, err := d.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSubmit_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"missing results", []byte(`{}`)},
		{"null body", []byte(`null`)},
		{"not json", []byte(`<html>oops</html>`)},
		{"count mismatch", []byte(`{"Results":[{},{}]}`)},
		{"empty", []byte(``)},
		{"broken string", []byte(`"{\"Results\":`)},
		{"string operation", []byte(`{"Results":[{"HTML":[{"Selector":"#x","Operation":"1"}]}]}`)},
		{"fractional operation", []byte(`{"Results":[{"HTML":[{"Selector":"#x","Operation":1.5}]}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any { return tt.body })
			applier := &countingApplier{}
			d := New(srv.URL, WithApplier(applier))

			results, err := d.Call(context.Background(), "x", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrProtocol)
			var perr *domain.ProtocolError
			assert.True(t, errors.As(err, &perr))
			assert.Nil(t, results)
			assert.Equal(t, 0, applier.calls)
		})
	}
}

func TestSubmit_WideUnknownOperationIsSkipped(t *testing.T) {
	srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any {
		return []byte(`{"Results":[
			{"HTML":[{"Selector":"#y","Operation":300,"Content":"<p>future</p>"}]},
			{"HTML":[{"Selector":"#y","Operation":99999999999999999999,"Content":"<p>wider</p>"},
			         {"Selector":"#x","Operation":1,"Content":"<p>ok</p>"}]}
		]}`)
	})
	doc := page.MustDocument(`<div id="x"></div><div id="y">kept</div>`)
	d := New(srv.URL, WithApplier(interpret.New(doc, registry.New())))

	out, err := d.Dispatch(context.Background(), domain.Batch{domain.MustAction("a", nil), domain.MustAction("b", nil)})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "ok", doc.Text("#x"))
	assert.Equal(t, "kept", doc.Text("#y"))
	assert.Equal(t, 2, out.Report.Count(domain.DiagUnknownOperation))
	assert.Equal(t, 1, out.Report.HTMLApplied)
}

func TestSubmit_DoubleEncodedBody(t *testing.T) {
	srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any {
		inner, _ := json.Marshal(echoResults(r, req))
		outer, _ := json.Marshal(string(inner))
		return outer
	})
	doc := page.MustDocument(`<div id="x"></div>`)
	d := New(srv.URL, WithApplier(interpret.New(doc, registry.New())))

	_, err := d.Call(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", doc.Text("#x"))
}

func TestSubmit_TransportErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer srv.Close()
		applier := &countingApplier{}

		_, err := New(srv.URL, WithApplier(applier)).Call(context.Background(), "x", nil)
		var terr *domain.TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, http.StatusBadGateway, terr.Status)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.Equal(t, 0, applier.calls)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url).Call(context.Background(), "x", nil)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		_, err := New(srv.URL, WithTimeout(20*time.Millisecond)).Call(context.Background(), "x", nil)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSubmit_NestedSubmitCompletesBeforeNextResult(t *testing.T) {
	srv, calls := fakeServer(t, func(r *http.Request, req domain.Request) any {
		results := make([]domain.Result, len(req.Actions))
		for i, a := range req.Actions {
			switch a.Name {
			case "first":
				results[i] = domain.Result{JS: []domain.JSCall{{Name: "fetchMore"}}}
			case "inner":
				results[i] = domain.Result{HTML: []domain.HTMLUpdate{domain.Replace("#x", "inner")}}
			case "second":
				results[i] = domain.Result{HTML: []domain.HTMLUpdate{domain.Replace("#x", "second")}}
			}
		}
		return domain.NewResponse(results)
	})

	doc := page.MustDocument(`<div id="x">start</div>`)
	reg := registry.New()
	d := New(srv.URL)
	var seenAfterInner string
	reg.MustRegister("fetchMore", func(ctx context.Context, args json.RawMessage) error {
		if _, err := d.Call(ctx, "inner", nil); err != nil {
			return err
		}
		seenAfterInner = doc.Text("#x")
		return nil
	})
	reg.Seal()
	WithApplier(interpret.New(doc, reg))(d)

	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background(), domain.Batch{
			domain.MustAction("first", nil),
			domain.MustAction("second", nil),
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("nested submit deadlocked")
	}

	assert.Equal(t, "inner", seenAfterInner)
	assert.Equal(t, "second", doc.Text("#x"))
	assert.Equal(t, int32(2), calls.Load())
}

// slowFastServer holds requests for the "slow" action until release is closed.
func slowFastServer(t *testing.T) (*httptest.Server, chan struct{}, chan struct{}) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any {
		if req.Actions[0].Name == "slow" {
			arrived <- struct{}{}
			<-release
		}
		return echoAsX(req)
	})
	return srv, arrived, release
}

func echoAsX(req domain.Request) domain.Response {
	return domain.NewResponse([]domain.Result{
		{HTML: []domain.HTMLUpdate{domain.Replace("#x", req.Actions[0].Name)}},
	})
}

func TestSubmit_OrderLatestDropsStale(t *testing.T) {
	srv, arrived, release := slowFastServer(t)
	doc := page.MustDocument(`<div id="x"></div>`)
	metrics := observability.NewMetrics()
	d := New(srv.URL,
		WithApplier(interpret.New(doc, registry.New())),
		WithOrderPolicy(OrderLatest),
		WithMetrics(metrics),
	)

	type result struct {
		out Outcome
		err error
	}
	slow := make(chan result, 1)
	go func() {
		out, err := d.Dispatch(context.Background(), domain.Batch{domain.MustAction("slow", nil)})
		slow <- result{out, err}
	}()
	<-arrived

	_, err := d.Call(context.Background(), "fast", nil)
	require.NoError(t, err)
	assert.Equal(t, "fast", doc.Text("#x"))

	close(release)
	r := <-slow
	assert.ErrorIs(t, r.err, domain.ErrStaleResponse)
	assert.False(t, r.out.Applied)
	assert.Equal(t, 1, r.out.Report.Count(domain.DiagStaleResponse))
	assert.Equal(t, "fast", doc.Text("#x"))
}

func TestSubmit_OrderCompletionAppliesLateResponse(t *testing.T) {
	srv, arrived, release := slowFastServer(t)
	doc := page.MustDocument(`<div id="x"></div>`)
	d := New(srv.URL, WithApplier(interpret.New(doc, registry.New())))

	slow := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), "slow", nil)
		slow <- err
	}()
	<-arrived

	_, err := d.Call(context.Background(), "fast", nil)
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-slow)

	assert.Equal(t, "slow", doc.Text("#x"))
}

func TestSubmit_Correlation(t *testing.T) {
	t.Run("echoed ids", func(t *testing.T) {
		srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any {
			results := make([]domain.Result, len(req.Actions))
			for i, a := range req.Actions {
				results[i] = domain.Result{ID: a.ID, Name: a.Name}
			}
			return domain.NewResponse(results)
		})
		d := New(srv.URL, WithCorrelation())

		results, err := d.Submit(context.Background(), domain.Batch{
			domain.MustAction("a", nil),
			domain.MustAction("b", nil),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, results[0].ID)
		assert.Equal(t, 2, results[1].ID)
	})

	t.Run("swapped ids", func(t *testing.T) {
		srv, _ := fakeServer(t, func(r *http.Request, req domain.Request) any {
			return domain.NewResponse([]domain.Result{{ID: 2}, {ID: 1}})
		})
		d := New(srv.URL, WithCorrelation())

		_, err := d.Submit(context.Background(), domain.Batch{
			domain.MustAction("a", nil),
			domain.MustAction("b", nil),
		})
		assert.ErrorIs(t, err, domain.ErrProtocol)
	})
}

func TestSubmit_Metrics(t *testing.T) {
	srv, _ := fakeServer(t, echoResults)
	metrics := observability.NewMetrics()
	d := New(srv.URL, WithMetrics(metrics))

	_, err := d.Call(context.Background(), "x", nil)
	require.NoError(t, err)
	_, err = d.Submit(context.Background(), nil)
	require.Error(t, err)

	body := scrape(t, metrics)
	assert.Contains(t, body, `guiapi_submissions_total{outcome="ok"} 1`)
	assert.Contains(t, body, `guiapi_submissions_total{outcome="invalid"} 1`)
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestOrderPolicy_Parse(t *testing.T) {
	p, ok := ParseOrderPolicy("latest")
	assert.True(t, ok)
	assert.Equal(t, OrderLatest, p)
	assert.Equal(t, "latest", p.String())

	_, ok = ParseOrderPolicy("random")
	assert.False(t, ok)
}
