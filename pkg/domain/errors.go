package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks failures where no usable response was received.
	ErrTransport = errors.New("transport error")

	// ErrProtocol marks responses that did not parse into the expected shape.
	ErrProtocol = errors.New("protocol error")

	// ErrUnknownOperation is reported for HTML updates with an unimplemented operation code.
	ErrUnknownOperation = errors.New("unknown html operation")

	// ErrUnknownFunction is reported for JS calls naming an unregistered function.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrEmptyBatch is returned when a submission carries no actions.
	ErrEmptyBatch = errors.New("batch must contain at least one action")

	// ErrEmptyActionName is returned for actions without a name.
	ErrEmptyActionName = errors.New("action name must not be empty")

	// ErrRegistrySealed is returned when registering after initialization finished.
	ErrRegistrySealed = errors.New("registry is sealed")

	// ErrDuplicateFunction is returned when a function name is registered twice.
	ErrDuplicateFunction = errors.New("function already registered")

	// ErrStaleResponse is returned when a completion is dropped because a newer one was applied.
	ErrStaleResponse = errors.New("stale response dropped")

	// ErrPageNotFound is returned when a page session cannot be found in the store.
	ErrPageNotFound = errors.New("page not found")
)

// TransportError reports a request that never completed or returned a non-success status.
type TransportError struct {
	Status int // HTTP status, zero when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ProtocolError reports a response body that could not be interpreted.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
