package mcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/guiapi/internal/adapters/memory"
	guiapihttp "github.com/aretw0/guiapi/pkg/adapters/http"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *session.Manager) {
	t.Helper()
	table := guiapihttp.Table{
		"listView": func(ctx context.Context, args json.RawMessage) (*domain.Result, error) {
			var in struct{ Filter string }
			_ = json.Unmarshal(args, &in)
			return &domain.Result{HTML: []domain.HTMLUpdate{
				domain.Replace("#container", `<ul id="item-list"><li data-item-id="1">`+in.Filter+`</li></ul>`),
			}}, nil
		},
		"openEditor": func(ctx context.Context, args json.RawMessage) (*domain.Result, error) {
			call, _ := domain.Call("openEditor", 1)
			return &domain.Result{JS: []domain.JSCall{call}}, nil
		},
	}
	endpoint := httptest.NewServer(guiapihttp.NewHandler(table))
	t.Cleanup(endpoint.Close)

	sessions := session.NewManager(memory.New())
	return NewServer(endpoint.URL+"/gui/", sessions, opts...), sessions
}

func request(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestCallAction_AppliesAndPersists(t *testing.T) {
	s, sessions := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleCallAction(ctx, request("call_action", nil), map[string]any{
		"name": "listView",
		"args": `{"Filter":"Milk"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "default", resp.PageID)
	assert.Equal(t, 1, resp.HTMLApplied)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Diagnostics)

	snapshot, err := sessions.Load(ctx, "default")
	require.NoError(t, err)
	assert.Contains(t, snapshot.HTML, `<li data-item-id="1">Milk</li>`)
}

func TestCallAction_UnknownFunctionIsDiagnostic(t *testing.T) {
	s, _ := newTestServer(t, WithPageID("p1"))

	resp, err := s.handleCallAction(context.Background(), request("call_action", nil), map[string]any{"name": "openEditor"})
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.PageID)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, domain.DiagUnknownFunction, resp.Diagnostics[0].Kind)
}

func TestCallAction_BadInput(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleCallAction(ctx, request("call_action", nil), map[string]any{})
	assert.ErrorIs(t, err, domain.ErrEmptyActionName)

	_, err = s.handleCallAction(ctx, request("call_action", nil), map[string]any{"name": "listView", "args": "{nope"})
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestPageHTML(t *testing.T) {
	s, _ := newTestServer(t, WithMarkup(`<main><div id="container">empty</div></main>`))
	ctx := context.Background()

	res, err := s.handlePageHTML(ctx, request("page_html", map[string]any{"page_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = s.handleCallAction(ctx, request("call_action", nil), map[string]any{"name": "listView", "args": `{"Filter":"Eggs"}`})
	require.NoError(t, err)

	res, err = s.handlePageHTML(ctx, request("page_html", map[string]any{"selector": "#container"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, `<ul id="item-list"><li data-item-id="1">Eggs</li></ul>`, text.Text)

	res, err = s.handlePageHTML(ctx, request("page_html", map[string]any{"selector": "#missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
