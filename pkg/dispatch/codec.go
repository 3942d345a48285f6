package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/guiapi/pkg/domain"
)

func encodeRequest(batch domain.Batch) ([]byte, error) {
	return json.Marshal(domain.Request{Actions: batch})
}

// decodeResponse parses a response body into exactly want results.
// Bodies double encoded as a JSON string are unwrapped first.
func decodeResponse(body []byte, want int) ([]domain.Result, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &domain.ProtocolError{Reason: "empty body"}
	}

	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, &domain.ProtocolError{Reason: "malformed string body", Err: err}
		}
		body = bytes.TrimSpace([]byte(inner))
	}

	var resp domain.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ProtocolError{Reason: "malformed body", Err: err}
	}
	if resp.Results == nil {
		return nil, &domain.ProtocolError{Reason: "missing Results"}
	}

	results := *resp.Results
	if len(results) != want {
		return nil, &domain.ProtocolError{
			Reason: fmt.Sprintf("result count mismatch: got %d, want %d", len(results), want),
		}
	}
	return results, nil
}

// checkCorrelation verifies that echoed IDs match the batch positions.
func checkCorrelation(batch domain.Batch, results []domain.Result) error {
	for i, r := range results {
		if r.ID != 0 && r.ID != batch[i].ID {
			return &domain.ProtocolError{
				Reason: fmt.Sprintf("result %d answers action %d, want %d", i, r.ID, batch[i].ID),
			}
		}
	}
	return nil
}
