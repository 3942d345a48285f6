package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/guiapi/pkg/dispatch"
	"github.com/aretw0/guiapi/pkg/domain"
)

// ReportMarkdown describes the outcome of a submission as markdown.
func ReportMarkdown(actions []string, out dispatch.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.Join(actions, ", "))

	r := out.Report
	b.WriteString("| Results | HTML applied | HTML skipped | Calls invoked | Calls skipped | Calls failed |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n",
		len(out.Results), r.HTMLApplied, r.HTMLSkipped, r.CallsInvoked, r.CallsSkipped, r.CallsFailed)

	if !out.Applied {
		b.WriteString("\n_Results were not applied._\n")
	}

	var failed []domain.Result
	for _, res := range out.Results {
		if res.Error != nil {
			failed = append(failed, res)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n## Server errors\n\n")
		for _, res := range failed {
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", name(res), res.Error.Code, res.Error.Message)
		}
	}

	var diags []domain.Diagnostic
	for _, d := range r.Diagnostics {
		// Selector misses are routine.
		if d.Kind != domain.DiagSelectorMiss {
			diags = append(diags, d)
		}
	}
	if len(diags) > 0 {
		b.WriteString("\n## Diagnostics\n\n")
		for _, d := range diags {
			fmt.Fprintf(&b, "- `%s` result %d: %s", d.Kind, d.Result, d.Name)
			if d.Detail != "" {
				fmt.Fprintf(&b, " (%s)", d.Detail)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func name(res domain.Result) string {
	if res.Name != "" {
		return res.Name
	}
	return fmt.Sprintf("#%d", res.ID)
}
