package domain

import (
	"encoding/json"
	"fmt"
)

// Action is a named remote operation with an opaque argument payload.
// The server recognizes the Name; Args is passed through untouched.
type Action struct {
	ID   int             `json:",omitempty"` // correlation id, echoed back by the server
	Name string          // name of the remote action
	Args json.RawMessage // arguments as JSON, may be null
}

// NewAction marshals args and returns an Action ready to be batched.
// A nil args value is encoded as JSON null.
func NewAction(name string, args any) (Action, error) {
	if name == "" {
		return Action{}, ErrEmptyActionName
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return Action{}, fmt.Errorf("action %q: args not serializable: %w", name, err)
	}
	return Action{Name: name, Args: raw}, nil
}

// MustAction is like NewAction but panics on error.
// Intended for static action tables and tests.
func MustAction(name string, args any) Action {
	a, err := NewAction(name, args)
	if err != nil {
		panic(err)
	}
	return a
}

// Batch is an ordered, non-empty sequence of actions sent in one request.
// The server executes and answers them in the same order.
type Batch []Action

// NewBatch validates the actions and returns them as a Batch.
func NewBatch(actions ...Action) (Batch, error) {
	b := Batch(actions)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the batch invariants.
func (b Batch) Validate() error {
	if len(b) == 0 {
		return ErrEmptyBatch
	}
	for i, a := range b {
		if a.Name == "" {
			return fmt.Errorf("action %d: %w", i, ErrEmptyActionName)
		}
		if len(a.Args) > 0 && !json.Valid(a.Args) {
			return fmt.Errorf("action %d (%s): args are not valid JSON", i, a.Name)
		}
	}
	return nil
}

// Names returns the action names in batch order.
func (b Batch) Names() []string {
	names := make([]string, len(b))
	for i, a := range b {
		names[i] = a.Name
	}
	return names
}
