package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse marks a host reply that violates the command contract.
var ErrInvalidResponse = errors.New("invalid bridge response")

// NotFoundError is returned when the bridge channel was not registered.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("bridge not found: %s (available channels: %s)", e.Name, available)
}

// RemoteError is a JSON-RPC error object returned by the host.
type RemoteError struct {
	Code    int
	Message string
	Reason  string
}

func (e *RemoteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("rpc error %d (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPStatusError is a non-JSON-RPC HTTP failure such as 401 or 403.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("rpc status %d", e.Status)
	}
	return fmt.Sprintf("rpc status %d: %s", e.Status, e.Body)
}
