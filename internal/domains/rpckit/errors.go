// Package rpckit carries RPC failures from domain adapters to whichever
// transport maps them onto the wire.
package rpckit

import "fmt"

const (
	CodeInvalidParams  = -32602
	CodeNotInitialized = -32099
)

// Error is a protocol-neutral RPC failure. Reason is the stable symbolic name
// of Code, when it has one.
type Error struct {
	Code    int
	Message string
	Reason  string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("rpc %d %s: %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("rpc %d: %s", e.Code, e.Message)
}

func InvalidParams() *Error {
	return &Error{Code: CodeInvalidParams, Message: "invalid params"}
}

func NotInitialized() *Error {
	return &Error{Code: CodeNotInitialized, Message: "service is not initialized"}
}

// FromError keeps err's text as the message.
func FromError(code int, reason string, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Reason: reason}
}
