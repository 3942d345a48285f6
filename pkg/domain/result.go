package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Result is the server's answer for one submitted action.
// Results correspond positionally to the actions of a batch.
type Result struct {
	ID    int          `json:",omitempty"` // ID from the calling action
	Name  string       `json:",omitempty"` // name of the action that was called
	Error *ResultError `json:",omitempty"` // set when the server-side action failed
	HTML  []HTMLUpdate `json:",omitempty"` // DOM updates to apply
	JS    []JSCall     `json:",omitempty"` // client functions to call
}

// ResultError is a per-action failure reported by the server.
// It does not stop the client from applying the result's effects.
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return e.Code + ": " + e.Message
}

// HTMLOp tells the client how to apply an HTMLUpdate.
type HTMLOp int

const (
	HTMLReplace HTMLOp = iota + 1 // replace the inner HTML of the matched nodes
	HTMLDelete
	HTMLAppend
	HTMLPrepend
)

// HTMLOpOutOfRange stands for integer codes too wide for HTMLOp. Like any
// other unimplemented code it is skipped by the client.
const HTMLOpOutOfRange HTMLOp = -1

// UnmarshalJSON accepts any JSON integer. Only non-integer values are malformed.
func (op *HTMLOp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			*op = HTMLOpOutOfRange
			return nil
		}
		return fmt.Errorf("html operation must be an integer, got %s", s)
	}
	*op = HTMLOp(n)
	return nil
}

func (op HTMLOp) String() string {
	switch op {
	case HTMLReplace:
		return "replace"
	case HTMLDelete:
		return "delete"
	case HTMLAppend:
		return "append"
	case HTMLPrepend:
		return "prepend"
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// HTMLUpdate is one DOM patch instruction.
type HTMLUpdate struct {
	Operation HTMLOp // how to apply this update
	Selector  string // CSS selector: #id .class
	Content   string `json:",omitempty"` // inner HTML, trusted server markup
	// Init calls are executed after the HTML is added
	Init []JSCall `json:",omitempty"`
	// Destroy calls are executed before the HTML is removed
	Destroy []JSCall `json:",omitempty"`
}

// JSCall asks the client to invoke a pre-registered function.
type JSCall struct {
	Name      string          // name of the function to call
	Arguments json.RawMessage `json:",omitempty"` // usually a JSON array of positional args
}

// Replace is a shorthand for the common "replace content" update.
func Replace(selector, content string) HTMLUpdate {
	return HTMLUpdate{Operation: HTMLReplace, Selector: selector, Content: content}
}

// Call builds a JSCall with positional arguments encoded as a JSON array.
// Without arguments the call carries no Arguments field.
func Call(name string, args ...any) (JSCall, error) {
	if len(args) == 0 {
		return JSCall{Name: name}, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return JSCall{}, err
	}
	return JSCall{Name: name, Arguments: raw}, nil
}
