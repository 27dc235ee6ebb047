package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"slate-workspace/go-backend/internal/domains/contracts"
	"slate-workspace/go-backend/internal/domains/workspace/transport"
)

const lastEventIDHeader = "Last-Event-ID"

var errInvalidCursor = errors.New("invalid cursor")

type streamParams struct {
	Version   int   `json:"version"`
	Seq       int64 `json:"seq"`
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
	Payload   any   `json:"payload"`
}

type streamNotification struct {
	JSONRPC string       `json:"jsonrpc"`
	Method  string       `json:"method"`
	Params  streamParams `json:"params"`
}

// eventStream writes server-sent events and flushes after each one.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e eventStream) send(evt contracts.NotificationEvent) error {
	data, err := json.Marshal(streamNotification{
		JSONRPC: "2.0",
		Method:  evt.Method,
		Params: streamParams{
			Version:   transport.NotificationVersion,
			Seq:       evt.Seq,
			Timestamp: evt.Timestamp.UnixMilli(),
			Payload:   evt.Payload,
		},
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "id: %d\ndata: %s\n\n", evt.Seq, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

func (e eventStream) keepalive() error {
	if _, err := fmt.Fprint(e.w, ": keepalive\n\n"); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

// streamCursor reads ?cursor= and falls back to Last-Event-ID so a browser
// EventSource resumes where it stopped. cursor=live skips the backlog.
func streamCursor(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("cursor")
	if raw == transport.StreamCursorLive {
		return math.MaxInt64, nil
	}
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get(lastEventIDHeader))
	}
	if raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, errInvalidCursor
	}
	return cursor, nil
}

func (s *Server) handleRPCStream(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}
	if s.service == nil {
		http.Error(w, "service is not initialized", http.StatusServiceUnavailable)
		return
	}
	cursor, err := streamCursor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}
	client := clientKey(r, presentedToken(r))
	leave, admitted := s.streams.enter(client)
	if !admitted {
		s.logger.Warn("stream subscription rejected", "client_key", client)
		http.Error(w, "too many stream subscriptions", http.StatusTooManyRequests)
		return
	}
	defer leave()

	// Subscribe before the headers go out so a client that has seen the
	// response cannot miss a notification published right after.
	backlog, live, cancel := s.service.SubscribeNotifications(cursor)
	defer cancel()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	out := eventStream{w: w, flusher: flusher}
	for _, evt := range backlog {
		if out.send(evt) != nil {
			return
		}
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if out.keepalive() != nil {
				return
			}
		case evt, open := <-live:
			if !open || out.send(evt) != nil {
				return
			}
		}
	}
}
