package domain

// Request is the body of a GUI API call.
type Request struct {
	Actions []Action
}

// Response is the body returned by a GUI API call.
// Results is a pointer so a body without the key can be told apart from an empty list.
type Response struct {
	Results *[]Result `json:",omitempty"`
}

// NewResponse wraps results in a Response envelope.
func NewResponse(results []Result) Response {
	if results == nil {
		results = []Result{}
	}
	return Response{Results: &results}
}
