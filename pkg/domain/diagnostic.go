package domain

import "fmt"

// DiagnosticKind classifies a non-fatal anomaly seen while applying results.
type DiagnosticKind string

const (
	DiagUnknownOperation DiagnosticKind = "unknown_operation"
	DiagUnknownFunction  DiagnosticKind = "unknown_function"
	DiagFunctionFailed   DiagnosticKind = "function_failed"
	DiagServerError      DiagnosticKind = "server_error"
	DiagSelectorMiss     DiagnosticKind = "selector_miss"
	DiagInvalidSelector  DiagnosticKind = "invalid_selector"
	DiagStaleResponse    DiagnosticKind = "stale_response"
)

// Diagnostic describes one absorbed anomaly. Result and Index locate the
// offending effect inside the submission (-1 when not applicable).
type Diagnostic struct {
	Kind   DiagnosticKind
	Result int
	Index  int
	Name   string // selector, function name or action name
	Detail string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s result=%d index=%d name=%q: %s", d.Kind, d.Result, d.Index, d.Name, d.Detail)
}
