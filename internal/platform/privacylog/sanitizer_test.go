package privacylog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func logJSON(t *testing.T, fn func(*slog.Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	fn(slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil))))
	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json %q: %v", buf.String(), err)
	}
	return payload
}

func TestSanitizingHandlerRedactsCredentials(t *testing.T) {
	payload := logJSON(t, func(l *slog.Logger) {
		l.Info("test", "origin", "http://localhost:3000", "rpc_token", "secret", "postgres_dsn", "postgres://u:p@h/db", "status", "ok")
	})
	if _, ok := payload["origin"]; ok {
		t.Fatal("origin should not be present")
	}
	if got, _ := payload["origin_fp"].(string); !strings.HasPrefix(got, "fp_") {
		t.Fatalf("origin_fp should be a fingerprint, got %q", got)
	}
	if got, _ := payload["rpc_token"].(string); got != redactedValue {
		t.Fatalf("expected redacted token, got %q", got)
	}
	if got, _ := payload["postgres_dsn"].(string); got != redactedValue {
		t.Fatalf("expected redacted dsn, got %q", got)
	}
	if got, _ := payload["status"].(string); got != "ok" {
		t.Fatalf("expected untouched status, got %q", got)
	}
}

func TestSanitizingHandlerKeepsDraftIDsPlain(t *testing.T) {
	payload := logJSON(t, func(l *slog.Logger) {
		l.Info("test", "draft_id", "draft_2", "client_key", "ip:10.0.0.1")
	})
	if payload["draft_id"] != "draft_2" {
		t.Fatalf("draft ids are not sensitive, got %v", payload["draft_id"])
	}
	if _, ok := payload["client_key_fp"]; !ok {
		t.Fatalf("client_key must be fingerprinted, got %v", payload)
	}
}

func TestSanitizingHandlerStripsURLPasswords(t *testing.T) {
	payload := logJSON(t, func(l *slog.Logger) {
		l.Info("test", "target", "postgres://slate:hunter2@db:5432/slate", "addr", "127.0.0.1:8787")
	})
	got, _ := payload["target"].(string)
	if strings.Contains(got, "hunter2") || !strings.Contains(got, "slate:xxxxx@db") {
		t.Fatalf("password must be stripped, got %q", got)
	}
	if payload["addr"] != "127.0.0.1:8787" {
		t.Fatalf("plain addresses stay untouched, got %v", payload["addr"])
	}
}

func TestSanitizingHandlerDescendsIntoGroups(t *testing.T) {
	payload := logJSON(t, func(l *slog.Logger) {
		l.Info("test", slog.Group("req", slog.String("authorization", "Bearer x"), slog.String("method", "getDrafts")))
	})
	group, ok := payload["req"].(map[string]any)
	if !ok {
		t.Fatalf("expected group, got %v", payload)
	}
	if group["authorization"] != redactedValue || group["method"] != "getDrafts" {
		t.Fatalf("unexpected group %v", group)
	}
}

func TestSanitizingHandlerImplementsSlogHandlerContract(t *testing.T) {
	var buf bytes.Buffer
	h := WrapHandler(slog.NewJSONHandler(&buf, nil))
	if WrapHandler(h) != h {
		t.Fatal("wrapping twice must be a no-op")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected handler enabled for info")
	}
	rec := slog.NewRecord(time.Now().UTC(), slog.LevelInfo, "msg", 0)
	rec.AddAttrs(slog.String("client_key", "ip:10.0.0.1"))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(buf.String(), "client_key_fp") {
		t.Fatalf("expected sanitized client_key, got %s", buf.String())
	}
}

func TestSanitizingHandlerKeepsAttrsFromWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil))).With("authorization", "Bearer x")
	logger.Info("with attrs")
	if strings.Contains(buf.String(), "Bearer x") {
		t.Fatalf("authorization leaked: %s", buf.String())
	}
}

func TestFingerprintIDIsStableWithinProcess(t *testing.T) {
	if FingerprintID("a") != FingerprintID(" a ") || FingerprintID("a") == FingerprintID("b") {
		t.Fatal("fingerprints must be stable and distinct")
	}
	if FingerprintID("") != "" {
		t.Fatal("empty input has no fingerprint")
	}
}
