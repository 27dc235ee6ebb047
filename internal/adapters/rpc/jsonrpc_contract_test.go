package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/internal/platform/ratelimiter"
)

func rpcCall(t *testing.T, s *Server, body string, token string) *httptest.ResponseRecorder {
	t.Helper()
	return rpcCallWithHeaders(t, s, body, token, nil)
}

func rpcCallWithHeaders(t *testing.T, s *Server, body string, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(rpcTokenHeader, token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.HandleRPC(rec, req)
	return rec
}

func decodeRPCResponse(t *testing.T, rec *httptest.ResponseRecorder) rpcResponse {
	t.Helper()
	var resp rpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode rpc response: %v", err)
	}
	return resp
}

func testServer(svc *stubService) *Server {
	cfg := DefaultServerConfig()
	cfg.RateLimit.Enabled = false
	if svc == nil {
		return newServerWithService(cfg, nil, tokenAuth{})
	}
	return newServerWithService(cfg, svc, tokenAuth{})
}

func TestRPCHealthzContract(t *testing.T) {
	s := testServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %q", body["status"])
	}
}

func TestRPCRejectsUnauthorizedRequest(t *testing.T) {
	required := true
	cfg := DefaultServerConfig()
	cfg.Token = "secret-token"
	cfg.RequireToken = &required
	s := NewServer(cfg, nil)
	if s.initErr != nil {
		t.Fatalf("unexpected init error: %v", s.initErr)
	}

	rec := rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","params":[]}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRPCAuthAcceptedButServiceMissing(t *testing.T) {
	required := true
	cfg := DefaultServerConfig()
	cfg.Token = "secret-token"
	cfg.RequireToken = &required
	s := NewServer(cfg, nil)

	rec := rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","params":[]}`, "secret-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	resp := decodeRPCResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != -32099 {
		t.Fatalf("expected rpc code -32099, got %+v", resp.Error)
	}
}

func TestNewServerRequiresTokenInProduction(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Env = "production"
	if s := NewServer(cfg, nil); s.initErr == nil {
		t.Fatal("expected init error without a token in production")
	}
}

func TestRPCVersionMethodWorksWithoutServiceInitialization(t *testing.T) {
	s := testServer(nil)

	rec := rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"rpc.version","params":[]}`, "")
	resp := decodeRPCResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %#v", resp.Result)
	}
	current, ok := result["current_version"].(float64)
	if !ok || int(current) != transport.APIVersion {
		t.Fatalf("unexpected current_version: %#v", result["current_version"])
	}
	methods, ok := result["methods"].([]any)
	if !ok || len(methods) != len(transport.Methods()) {
		t.Fatalf("expected the method list, got %#v", result["methods"])
	}
}

func TestRPCRejectsUnsupportedAPIVersions(t *testing.T) {
	s := testServer(newStubService())
	cases := map[string]int{
		`{"jsonrpc":"2.0","id":1,"method":"health_check","api_version":999}`: -32080,
		`{"jsonrpc":"2.0","id":1,"method":"health_check","api_version":0}`:   -32081,
	}
	for body, code := range cases {
		resp := decodeRPCResponse(t, rpcCall(t, s, body, ""))
		if resp.Error == nil || resp.Error.Code != code {
			t.Fatalf("%s: expected code %d, got %+v", body, code, resp.Error)
		}
	}
}

func TestRPCProtocolErrors(t *testing.T) {
	s := testServer(newStubService())
	cases := []struct {
		body string
		code int
	}{
		{body: `{not json`, code: -32700},
		{body: `{"jsonrpc":"1.0","id":1,"method":"testConnection"}`, code: -32600},
		{body: `{"jsonrpc":"2.0","id":1,"method":""}`, code: -32600},
		{body: `{"jsonrpc":"2.0","id":1,"method":"testConnection"}{"extra":true}`, code: -32600},
		{body: `{"jsonrpc":"2.0","id":1,"method":"message.send","params":[]}`, code: -32601},
	}
	for _, tc := range cases {
		resp := decodeRPCResponse(t, rpcCall(t, s, tc.body, ""))
		if resp.Error == nil || resp.Error.Code != tc.code {
			t.Fatalf("%s: expected code %d, got %+v", tc.body, tc.code, resp.Error)
		}
	}
}

func TestRPCRejectsOversizedBody(t *testing.T) {
	s := testServer(newStubService())
	body := `{"jsonrpc":"2.0","id":1,"method":"openWorkspace","params":["` + strings.Repeat("a", int(maxRPCBodyBytes)) + `"]}`
	rec := rpcCall(t, s, body, "")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rec.Code)
	}
}

func TestRPCBridgeCommandContract(t *testing.T) {
	s := testServer(newStubService())

	resp := decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":"a","method":"testConnection"}`, ""))
	conn, _ := resp.Result.(map[string]any)
	if resp.Error != nil || conn["status"] != "connected" {
		t.Fatalf("unexpected testConnection response %+v", resp)
	}
	if string(resp.ID) != `"a"` {
		t.Fatalf("response id must echo the request id, got %s", resp.ID)
	}

	resp = decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":2,"method":"getDrafts","params":[]}`, ""))
	drafts, _ := resp.Result.([]any)
	if resp.Error != nil || len(drafts) != 2 {
		t.Fatalf("unexpected getDrafts response %+v", resp)
	}
	first := drafts[0].(map[string]any)
	for _, key := range []string{"id", "title", "previewUrl", "createdAt", "updatedAt", "approvalStatus", "duration"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("draft wire shape is missing %q: %v", key, first)
		}
	}

	resp = decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":3,"method":"openWorkspace","params":[null]}`, ""))
	opened, _ := resp.Result.(map[string]any)
	if resp.Error != nil || opened["success"] != true || opened["draftId"] != "new" {
		t.Fatalf("unexpected openWorkspace response %+v", resp)
	}

	resp = decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":4,"method":"openWorkspace","params":["draft_1"]}`, ""))
	if resp.Error == nil || resp.Error.Code != -32041 {
		t.Fatalf("expected busy error, got %+v", resp.Error)
	}
	data, _ := resp.Error.Data.(map[string]any)
	if data["reason"] != "WORKSPACE_BUSY" {
		t.Fatalf("expected reason in error data, got %#v", resp.Error.Data)
	}
}

func TestRPCNoRootErrorCarriesReason(t *testing.T) {
	svc := newStubService()
	svc.noRoot = true
	s := testServer(svc)

	resp := decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"openContentEditor"}`, ""))
	if resp.Error == nil || resp.Error.Code != -32040 || resp.Error.Message != "no root view controller found" {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
	if resp.Result != nil {
		t.Fatalf("a failed call must not carry a result, got %#v", resp.Result)
	}
}

func TestRPCCreateNewDraftIsIdempotentPerKey(t *testing.T) {
	svc := newStubService()
	s := testServer(svc)
	body := `{"jsonrpc":"2.0","id":1,"method":"createNewDraft","params":[]}`
	headers := map[string]string{idempotencyHeader: "retry-1"}

	first := decodeRPCResponse(t, rpcCallWithHeaders(t, s, body, "", headers))
	second := decodeRPCResponse(t, rpcCallWithHeaders(t, s, body, "", headers))
	if first.Error != nil || second.Error != nil {
		t.Fatalf("unexpected errors %+v %+v", first.Error, second.Error)
	}
	a := first.Result.(map[string]any)["draftId"]
	b := second.Result.(map[string]any)["draftId"]
	if a != b || svc.created != 1 {
		t.Fatalf("retry with the same key must not allocate again: %v vs %v (created %d)", a, b, svc.created)
	}

	third := decodeRPCResponse(t, rpcCall(t, s, body, ""))
	if third.Result.(map[string]any)["draftId"] == a {
		t.Fatal("calls without a key must allocate")
	}

	conflict := decodeRPCResponse(t, rpcCallWithHeaders(t, s, `{"jsonrpc":"2.0","id":1,"method":"createNewDraft","params":{}}`, "", headers))
	if conflict.Error == nil || conflict.Error.Code != -32082 {
		t.Fatalf("expected idempotency conflict, got %+v", conflict.Error)
	}
}

func TestRPCRateLimitReturns429(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RateLimit = ratelimiter.Config{Enabled: true, RPS: 0.001, Burst: 1}
	s := newServerWithService(cfg, newStubService(), tokenAuth{})

	body := `{"jsonrpc":"2.0","id":1,"method":"testConnection"}`
	if rec := rpcCall(t, s, body, ""); rec.Code != http.StatusOK {
		t.Fatalf("first call must pass, got %d", rec.Code)
	}
	rec := rpcCall(t, s, body, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After hint")
	}
	if resp := decodeRPCResponse(t, rec); resp.Error == nil || resp.Error.Code != -32029 {
		t.Fatalf("expected rpc code -32029, got %+v", resp.Error)
	}
}
