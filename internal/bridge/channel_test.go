package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPChannelCallSendsTokenAndDecodesResult(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(rpcTokenHeader) != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"x","result":{"status":"connected","message":"ok"}}`))
	}))
	defer ts.Close()

	ch := NewHTTPChannel(ts.URL, "secret")
	var out struct {
		Status string `json:"status"`
	}
	if err := ch.Call(context.Background(), "testConnection", nil, &out); err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.Status != "connected" {
		t.Fatalf("unexpected result %+v", out)
	}
	if got["method"] != "testConnection" || got["jsonrpc"] != "2.0" {
		t.Fatalf("unexpected request %+v", got)
	}
	if _, hasParams := got["params"]; hasParams {
		t.Fatal("nil params must be omitted")
	}
	if id, _ := got["id"].(string); id == "" {
		t.Fatal("expected a request id")
	}
}

func TestHTTPChannelRemoteErrorCarriesReason(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"x","error":{"code":-32041,"message":"a workspace is already presented","data":{"reason":"WORKSPACE_BUSY"}}}`))
	}))
	defer ts.Close()

	err := NewHTTPChannel(ts.URL, "").Call(context.Background(), "openWorkspace", []string{"draft_1"}, nil)
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != -32041 || remote.Reason != "WORKSPACE_BUSY" {
		t.Fatalf("expected busy remote error, got %v", err)
	}
}

func TestHTTPChannelStatusErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "unauthorized\n"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"jsonrpc":"2.0","error":{"code":-32029,"message":"rate limit exceeded"}}`, wantCode: -32029},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			err := NewHTTPChannel(ts.URL, "").Call(context.Background(), "getDrafts", nil, nil)
			if tc.wantCode != 0 {
				var remote *RemoteError
				if !errors.As(err, &remote) || remote.Code != tc.wantCode {
					t.Fatalf("expected remote code %d, got %v", tc.wantCode, err)
				}
				return
			}
			var statusErr *HTTPStatusError
			if !errors.As(err, &statusErr) || statusErr.Status != tc.status || statusErr.Body != "unauthorized" {
				t.Fatalf("expected status error, got %v", err)
			}
		})
	}
}

func TestHTTPChannelAcceptsHostPort(t *testing.T) {
	if got := NewHTTPChannel("127.0.0.1:8787/", "").BaseURL(); got != "http://127.0.0.1:8787" {
		t.Fatalf("unexpected base url %q", got)
	}
}

func TestReadEventStreamSkipsCommentsAndJoinsData(t *testing.T) {
	stream := strings.Join([]string{
		": keepalive",
		"",
		"id: 1",
		`data: {"jsonrpc":"2.0","method":"WorkspaceCompleted","params":{"seq":1,"timestamp":1767323045000,"payload":{"draftId":"draft_2"}}}`,
		"",
		"data: broken",
		"",
		"id: 2",
		`data: {"jsonrpc":"2.0","method":"WorkspaceCompleted",`,
		`data: "params":{"seq":2,"payload":{"draftId":""}}}`,
		"",
		"",
	}, "\n")
	out := make(chan Notification, 4)
	if err := readEventStream(context.Background(), strings.NewReader(stream), out); err != nil {
		t.Fatalf("read: %v", err)
	}
	close(out)
	var got []Notification
	for n := range out {
		got = append(got, n)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", got)
	}
	if got[0].Seq != 1 || string(got[0].Payload) != `{"draftId":"draft_2"}` || !got[0].Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected first notification %+v", got[0])
	}
	if got[1].Seq != 2 || got[1].Method != "WorkspaceCompleted" {
		t.Fatalf("unexpected second notification %+v", got[1])
	}
}

func TestProbe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	if err := NewHTTPChannel(ts.URL, "").Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
	ts.Close()
	if err := NewHTTPChannel(ts.URL, "").Probe(context.Background()); err == nil {
		t.Fatal("expected probe to fail once the host is gone")
	}
}
