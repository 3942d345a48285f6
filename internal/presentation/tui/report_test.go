package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/guiapi/pkg/dispatch"
	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/interpret"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestReportMarkdown(t *testing.T) {
	out := dispatch.Outcome{
		Applied: true,
		Results: []domain.Result{
			{ID: 1, Name: "listView"},
			{ID: 2, Name: "itemSave", Error: &domain.ResultError{Code: "error", Message: "title missing"}},
		},
		Report: interpret.Report{
			Results:      2,
			HTMLApplied:  2,
			CallsInvoked: 1,
			CallsSkipped: 1,
			Diagnostics: []domain.Diagnostic{
				{Kind: domain.DiagSelectorMiss, Result: 0, Index: 0, Name: "#nowhere"},
				{Kind: domain.DiagUnknownFunction, Result: 1, Index: 0, Name: "openEditor", Detail: "unknown function"},
			},
		},
	}
	golden(t).Assert(t, "report", []byte(ReportMarkdown([]string{"listView", "itemSave"}, out)))
}

func TestReportMarkdown_NotApplied(t *testing.T) {
	md := ReportMarkdown([]string{"listView"}, dispatch.Outcome{Results: []domain.Result{{}}})
	assert.Contains(t, md, "_Results were not applied._")
	assert.NotContains(t, md, "## Diagnostics")
}

func TestRendererFor_NonTerminalIsPlain(t *testing.T) {
	render := RendererFor(&bytes.Buffer{})
	out, err := render("# title\n\n")
	require.NoError(t, err)
	assert.Equal(t, "# title\n", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.NotContains(t, buf.String(), "\x1b[", "no colors outside a terminal")
}
