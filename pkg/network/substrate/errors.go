// pkg/network/substrate/errors.go
package substrate

import (
	"errors"
	"fmt"
)

// ErrClosed is returned for calls on a closed client.
var ErrClosed = errors.New("substrate: connection closed")

// RPCError is returned when the node answers a request with a JSON-RPC error.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    string
}

func (e *RPCError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("RPC %s failed: %s (code %d): %s", e.Method, e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("RPC %s failed: %s (code %d)", e.Method, e.Message, e.Code)
}

// NotFoundError is returned when a block, header or type is not known.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Resource)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConnectionError is returned when the websocket connection fails.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
