package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Positional decodes a JSON array of arguments into the given targets, in order.
// Missing trailing elements leave their targets untouched and extra elements are
// ignored. Null or empty args decode nothing.
func Positional(args json.RawMessage, targets ...any) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return fmt.Errorf("positional arguments must be a JSON array: %w", err)
	}

	for i, target := range targets {
		if i >= len(elems) {
			break
		}
		if target == nil {
			continue
		}
		if err := json.Unmarshal(elems[i], target); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}
