package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/guiapi"
	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PageURI is the resource exposing the current page markup.
const PageURI = "guiapi://page"

// CallResponse is the structured result of call_action.
type CallResponse struct {
	PageID       string              `json:"page_id" jsonschema_description:"The page the action was applied to"`
	Results      []domain.Result     `json:"results" jsonschema_description:"Results returned by the endpoint"`
	HTMLApplied  int                 `json:"html_applied" jsonschema_description:"Number of HTML updates applied"`
	CallsInvoked int                 `json:"calls_invoked" jsonschema_description:"Number of client functions invoked"`
	Diagnostics  []domain.Diagnostic `json:"diagnostics,omitempty" jsonschema_description:"Effects that were skipped or failed"`
}

// Server exposes a stored GUI API page to MCP clients.
type Server struct {
	endpoint   string
	sessions   *session.Manager
	pageID     string
	markup     string
	clientOpts []guiapi.Option
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithPageID selects the page used when a tool call names none. Default "default".
func WithPageID(id string) Option {
	return func(s *Server) {
		s.pageID = id
	}
}

// WithMarkup sets the markup of pages created on first use.
func WithMarkup(markup string) Option {
	return func(s *Server) {
		s.markup = markup
	}
}

// WithClientOptions passes options to every client built for a call.
func WithClientOptions(opts ...guiapi.Option) Option {
	return func(s *Server) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server submitting actions to endpoint.
func NewServer(endpoint string, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		endpoint:  endpoint,
		sessions:  sessions,
		pageID:    "default",
		markup:    `<div id="container"></div>`,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("guiapi-mcp", strings.TrimSpace(guiapi.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	callTool := mcp.NewTool("call_action",
		mcp.WithDescription("Submit a GUI API action and apply the returned HTML updates and function calls to the page."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Action name, e.g. listView")),
		mcp.WithString("args", mcp.Description("Action arguments as JSON (optional)")),
		mcp.WithString("page_id", mcp.Description("Page to act on (optional)")),
		mcp.WithOutputSchema[CallResponse](),
	)
	s.mcpServer.AddTool(callTool, mcp.NewStructuredToolHandler(s.handleCallAction))

	s.mcpServer.AddTool(mcp.NewTool("page_html",
		mcp.WithDescription("Return the markup of the page, or the inner HTML of the first element matching a CSS selector."),
		mcp.WithString("selector", mcp.Description("CSS selector (optional)")),
		mcp.WithString("page_id", mcp.Description("Page to read (optional)")),
	), s.handlePageHTML)
}

func (s *Server) page(args map[string]any) string {
	if id, ok := args["page_id"].(string); ok && id != "" {
		return id
	}
	return s.pageID
}

func (s *Server) handleCallAction(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CallResponse, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return CallResponse{}, domain.ErrEmptyActionName
	}

	var actionArgs any
	if raw, ok := args["args"].(string); ok && strings.TrimSpace(raw) != "" {
		if !json.Valid([]byte(raw)) {
			return CallResponse{}, fmt.Errorf("args is not valid JSON")
		}
		actionArgs = json.RawMessage(raw)
	}

	pageID := s.page(args)
	opts := append([]guiapi.Option{guiapi.WithLogger(s.logger)}, s.clientOpts...)
	out, _, err := guiapi.CallStored(ctx, s.sessions, guiapi.StoredCall{
		PageID:   pageID,
		Markup:   s.markup,
		Endpoint: s.endpoint,
		Action:   name,
		Args:     actionArgs,
	}, opts...)
	if err != nil {
		s.logger.Warn("MCP call_action failed", "action", name, "page", pageID, "error", err)
		return CallResponse{}, fmt.Errorf("call %s failed: %w", name, err)
	}

	return CallResponse{
		PageID:       pageID,
		Results:      out.Results,
		HTMLApplied:  out.Report.HTMLApplied,
		CallsInvoked: out.Report.CallsInvoked,
		Diagnostics:  out.Report.Diagnostics,
	}, nil
}

func (s *Server) handlePageHTML(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	markup, err := s.pageMarkup(ctx, s.page(args), stringArg(args, "selector"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(markup), nil
}

func (s *Server) pageMarkup(ctx context.Context, pageID, selector string) (string, error) {
	snapshot, err := s.sessions.Load(ctx, pageID)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			return "", fmt.Errorf("page %s has not been created yet", pageID)
		}
		return "", err
	}
	if selector == "" {
		return snapshot.HTML, nil
	}

	doc, err := page.NewDocument(snapshot.HTML)
	if err != nil {
		return "", err
	}
	inner, ok := doc.InnerHTML(selector)
	if !ok {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return inner, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PageURI, "Current Page",
		mcp.WithMIMEType("text/html"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		markup, err := s.pageMarkup(ctx, s.pageID, "")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      PageURI,
				MIMEType: "text/html",
				Text:     markup,
			},
		}, nil
	})
}
