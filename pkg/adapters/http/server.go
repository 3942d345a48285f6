package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/guiapi"
	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/observability"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Error codes carried in Result.Error.
const (
	CodeUndefinedFunction = "undefinedFunction"
	CodeError             = "error"
)

//go:embed openapi.yaml
var rawSpec []byte

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
})

// Spec returns the parsed and validated OpenAPI document of the endpoint.
func Spec() (*openapi3.T, error) {
	return loadSpec()
}

// Callable handles one action. A nil Result with a nil error yields an empty result.
type Callable func(ctx context.Context, args json.RawMessage) (*domain.Result, error)

// Table maps action names to their Callables.
type Table map[string]Callable

// Names returns the action names in the table, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Server runs actions against a Table.
type Server struct {
	table          Table
	path           string
	logger         *slog.Logger
	metrics        *observability.Metrics
	stringEncoding bool
	validate       bool
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics counts handled actions and exposes GET /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStringEncoding wraps the response body in a JSON string, the way
// older servers did. Clients accept both forms.
func WithStringEncoding(enabled bool) Option {
	return func(s *Server) {
		s.stringEncoding = enabled
	}
}

// WithRequestValidation checks request bodies against the OpenAPI document.
func WithRequestValidation() Option {
	return func(s *Server) {
		s.validate = true
	}
}

// WithPath moves the endpoint away from the default "/gui/".
func WithPath(path string) Option {
	return func(s *Server) {
		s.path = path
	}
}

// NewServer creates a Server for the table.
func NewServer(table Table, opts ...Option) *Server {
	s := &Server{
		table:  table,
		path:   "/gui/",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler serving the table.
func NewHandler(table Table, opts ...Option) http.Handler {
	return NewServer(table, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		if _, err := Spec(); err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "error", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	call := http.Handler(http.HandlerFunc(s.Call))
	if s.validate {
		v, err := newValidator()
		if err != nil {
			s.logger.Error("Request validation disabled", "error", err)
		} else {
			call = v.middleware(s.logger)(call)
		}
	}
	r.Method(http.MethodPost, s.path, call)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>GUI API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Call handles the POST request carrying a batch of actions.
func (s *Server) Call(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Call: Invalid request body", "error", err)
		return
	}

	resp := s.Handle(r.Context(), &req)

	data, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		s.logger.Error("Call response encode failed", "error", err)
		return
	}
	if s.stringEncoding {
		if data, err = json.Marshal(string(data)); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Handle runs every action of the request in order and returns one Result per action.
func (s *Server) Handle(ctx context.Context, req *domain.Request) domain.Response {
	results := make([]domain.Result, 0, len(req.Actions))
	for _, action := range req.Actions {
		results = append(results, s.run(ctx, action))
	}
	return domain.NewResponse(results)
}

func (s *Server) run(ctx context.Context, action domain.Action) domain.Result {
	res := domain.Result{ID: action.ID, Name: action.Name}

	fn, ok := s.table[action.Name]
	if !ok {
		s.metrics.Action(action.Name, CodeUndefinedFunction)
		s.logger.Warn("Call: undefined action", "action", action.Name)
		res.Error = &domain.ResultError{
			Code:    CodeUndefinedFunction,
			Message: action.Name + " is not defined",
		}
		return res
	}

	out, err := fn(ctx, action.Args)
	if err != nil {
		s.metrics.Action(action.Name, CodeError)
		s.logger.Warn("Call: action failed", "action", action.Name, "error", err)
		res.Error = &domain.ResultError{Code: CodeError, Message: err.Error()}
	} else {
		s.metrics.Action(action.Name, observability.OutcomeOK)
	}
	if out != nil {
		res.HTML = out.HTML
		res.JS = out.JS
	}
	return res
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	resp := map[string]any{
		"app":         "guiapi-http",
		"version":     strings.TrimSpace(guiapi.Version),
		"api_version": apiVersion,
		"actions":     s.table.Names(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
