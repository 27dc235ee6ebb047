package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	workspacerpc "slate-workspace/go-backend/internal/domains/workspace/adapters/rpc"
	"slate-workspace/go-backend/internal/domains/workspace/transport"
)

type rpcRequest struct {
	JSONRPC    string          `json:"jsonrpc"`
	ID         json.RawMessage `json:"id"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	APIVersion *int            `json:"api_version,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const (
	maxRPCBodyBytes    int64 = 1 << 20 // 1 MiB
	rpcRequestIDHeader       = "X-Slate-Request-ID"
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.authorize(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := presentedToken(r)
	client := clientKey(r, token)
	if now := time.Now(); !s.rpcLimiter.Allow(client, now) {
		s.logger.Warn("rpc rate limited", "client_key", client)
		if wait := s.rpcLimiter.RetryAfter(client, now); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)))
		}
		writeRPCStatus(w, http.StatusTooManyRequests, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32029, Message: "rate limit exceeded"},
		})
		return
	}

	req, rpcErr, tooLarge := decodeRPCRequest(w, r)
	if tooLarge {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}

	reqID := strings.TrimSpace(r.Header.Get(rpcRequestIDHeader))
	if reqID == "" {
		reqID = "rpc_" + uuid.NewString()
	}
	w.Header().Set(rpcRequestIDHeader, reqID)

	var key, fingerprint string
	if req.Method == transport.MethodCreateNewDraft {
		key = replayKey(r.Header.Get(idempotencyHeader), token)
		fingerprint = requestFingerprint(req)
	}
	if cached, hit, conflict := s.replays.lookup(key, fingerprint, time.Now()); conflict {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcIdempotencyConflict()})
		return
	} else if hit {
		s.logger.Info("rpc replayed", "request_id", reqID, "method", req.Method)
		cached.ID = req.ID
		writeRPC(w, cached)
		return
	}

	started := time.Now()
	s.logger.Info("rpc request", "request_id", reqID, "method", req.Method, "rpc_id", string(req.ID))
	result, rpcErr := s.dispatchRPC(r.Context(), req.Method, req.Params)
	elapsed := time.Since(started)

	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		s.logger.Error("rpc failed", "request_id", reqID, "method", req.Method, "rpc_code", rpcErr.Code, "error", rpcErr.Message, "latency_ms", elapsed.Milliseconds())
	} else {
		s.logger.Info("rpc response", "request_id", reqID, "method", req.Method, "latency_ms", elapsed.Milliseconds())
	}
	s.metrics.ObserveRPC(req.Method, code, elapsed)

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
	if rpcErr == nil {
		s.replays.store(key, fingerprint, resp, time.Now())
	}
	writeRPC(w, resp)
}

// decodeRPCRequest reads exactly one JSON-RPC 2.0 request object from the body.
func decodeRPCRequest(w http.ResponseWriter, r *http.Request) (req rpcRequest, rpcErr *rpcError, tooLarge bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRPCBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, nil, true
		}
		return rpcRequest{}, &rpcError{Code: -32700, Message: "parse error"}, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return req, invalidRequest(), false
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return req, invalidRequest(), false
	}
	return req, checkAPIVersion(req.APIVersion), false
}

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	if method == "rpc.version" {
		return versionInfo(), nil
	}
	if s.service == nil {
		return nil, &rpcError{Code: -32099, Message: "service is not initialized"}
	}
	if method == "health_check" {
		return map[string]string{"status": "ok"}, nil
	}
	if result, kitErr, ok := workspacerpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, fromKitError(kitErr)
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	writeRPCStatus(w, http.StatusOK, resp)
}

func writeRPCStatus(w http.ResponseWriter, status int, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func invalidRequest() *rpcError {
	return &rpcError{Code: -32600, Message: "invalid request"}
}
