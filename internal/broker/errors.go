package broker

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned to callers whose request was abandoned by Close, and to
// Send after Close.
var ErrClosed = errors.New("broker closed")

// ErrUnknownClass reports a priority class other than state or method.
var ErrUnknownClass = errors.New("unknown priority class")

// RemoteError is the error payload the UI process returned for a request.
type RemoteError struct {
	ID      string
	Method  string
	Message string
	Payload json.RawMessage
}

func (e *RemoteError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("ui error: %s", e.Message)
	}
	return fmt.Sprintf("ui error for %s: %s", e.Method, e.Message)
}
