package interpret

import "github.com/aretw0/guiapi/pkg/domain"

// Report summarizes one Apply run.
type Report struct {
	Results      int
	HTMLApplied  int
	HTMLSkipped  int
	CallsInvoked int
	CallsSkipped int
	CallsFailed  int
	Diagnostics  []domain.Diagnostic
}

// Clean reports whether every effect was applied without anomalies.
// Selector misses are not counted against it.
func (r Report) Clean() bool {
	for _, d := range r.Diagnostics {
		if d.Kind != domain.DiagSelectorMiss {
			return false
		}
	}
	return true
}

// Count returns how many diagnostics of the given kind were recorded.
func (r Report) Count(kind domain.DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
