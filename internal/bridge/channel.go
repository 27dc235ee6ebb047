package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"slate-workspace/go-backend/internal/domains/workspace/transport"
)

const (
	rpcTokenHeader     = "X-Slate-RPC-Token"
	rpcRequestIDHeader = "X-Slate-Request-ID"
	maxErrorBodyBytes  = 4 << 10
	maxEventBytes      = 1 << 20
)

// HTTPChannel talks JSON-RPC 2.0 to a slate host over HTTP.
type HTTPChannel struct {
	baseURL string
	token   string
	client  *http.Client
	stream  *http.Client
}

type HTTPOption func(*HTTPChannel)

// WithHTTPClient sets the client used for calls. Streams never use a client
// timeout.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPChannel) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTPChannel builds a channel for addr, which may be "host:port" or a
// full base URL.
func NewHTTPChannel(addr, token string, opts ...HTTPOption) *HTTPChannel {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	h := &HTTPChannel{
		baseURL: base,
		token:   strings.TrimSpace(token),
		client:  &http.Client{},
		stream:  &http.Client{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPChannel) BaseURL() string {
	return h.baseURL
}

// Probe reports whether a host answers at the channel address.
func (h *HTTPChannel) Probe(ctx context.Context) (retErr error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	var decoded struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	if decoded.Status != "ok" {
		return fmt.Errorf("host reported status %q", decoded.Status)
	}
	return nil
}

type rpcCallRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcCallResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Reason string `json:"reason"`
		} `json:"data"`
	} `json:"error"`
}

func (h *HTTPChannel) Call(ctx context.Context, method string, params any, out any) (retErr error) {
	id := uuid.NewString()
	body, err := json.Marshal(rpcCallRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(rpcRequestIDHeader, "rpc_"+id)
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()
	// Rate limiting answers 429 with a JSON-RPC error body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusTooManyRequests {
		return statusError(resp)
	}
	var decoded rpcCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if decoded.Error != nil {
		return &RemoteError{Code: decoded.Error.Code, Message: decoded.Error.Message, Reason: decoded.Error.Data.Reason}
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if len(decoded.Result) == 0 {
		return fmt.Errorf("%w: missing result", ErrInvalidResponse)
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Subscribe opens the host's event stream after cursor. LiveCursor skips the
// host's backlog. The returned channel is closed when ctx ends or the host
// closes the stream.
func (h *HTTPChannel) Subscribe(ctx context.Context, cursor int64) (<-chan Notification, error) {
	position := transport.StreamCursorLive
	if cursor >= 0 {
		position = strconv.FormatInt(cursor, 10)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/rpc/stream?cursor="+position, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	h.authorize(req)

	resp, err := h.stream.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		err := statusError(resp)
		_ = resp.Body.Close()
		return nil, err
	}

	out := make(chan Notification, 16)
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()
		_ = readEventStream(ctx, resp.Body, out)
	}()
	return out, nil
}

func (h *HTTPChannel) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set(rpcTokenHeader, h.token)
	}
}

type streamNotification struct {
	Method string `json:"method"`
	Params struct {
		Seq       int64           `json:"seq"`
		Timestamp int64           `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	} `json:"params"`
}

// readEventStream parses server-sent events. Only data lines are used;
// comments such as keepalives are skipped.
func readEventStream(ctx context.Context, r io.Reader, out chan<- Notification) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventBytes)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var evt streamNotification
			err := json.Unmarshal([]byte(data.String()), &evt)
			data.Reset()
			if err != nil {
				continue
			}
			select {
			case out <- Notification{Seq: evt.Params.Seq, Method: evt.Method, Timestamp: time.UnixMilli(evt.Params.Timestamp).UTC(), Payload: evt.Params.Payload}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &HTTPStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
