package rpc

import "slate-workspace/go-backend/internal/domains/rpckit"

// fromKitError converts a domain adapter error into its wire form. A known
// reason travels in data so clients need not memorise codes.
func fromKitError(err *rpckit.Error) *rpcError {
	if err == nil {
		return nil
	}
	out := &rpcError{Code: err.Code, Message: err.Message}
	if err.Reason != "" {
		out.Data = map[string]string{"reason": err.Reason}
	}
	return out
}

func rpcIdempotencyConflict() *rpcError {
	return &rpcError{Code: -32082, Message: "idempotency key was already used for a different request"}
}
