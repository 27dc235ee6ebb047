// Package privacylog keeps credentials and client identifiers out of logs.
// Secrets are replaced outright; client identifiers are replaced by a
// per-process fingerprint so lines from one client still correlate.
package privacylog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/url"
	"strings"
)

const redactedValue = "[REDACTED]"

var (
	bootNonce = randomNonce()

	secretKeyParts   = []string{"token", "secret", "password", "authorization", "dsn", "cookie"}
	clientIdentities = map[string]struct{}{
		"remote_addr": {},
		"request_ip":  {},
		"client_key":  {},
		"origin":      {},
		"rpc_id":      {},
		"user_agent":  {},
	}
)

// SanitizingHandler rewrites attributes before records reach the wrapped handler.
type SanitizingHandler struct {
	next slog.Handler
}

func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	if _, wrapped := next.(*SanitizingHandler); wrapped {
		return next
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	clean := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizingHandler{next: h.next.WithAttrs(sanitizeAll(attrs))}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

// SanitizeAttr applies the rules to a single attribute, descending into groups.
func SanitizeAttr(attr slog.Attr) slog.Attr {
	attr.Value = attr.Value.Resolve()
	key := strings.ToLower(strings.TrimSpace(attr.Key))
	switch {
	case attr.Value.Kind() == slog.KindGroup:
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(sanitizeAll(attr.Value.Group())...)}
	case isSecretKey(key):
		return slog.String(attr.Key, redactedValue)
	case isClientIdentity(key):
		name := attr.Key
		if !strings.HasSuffix(key, "_fp") {
			name += "_fp"
		}
		return slog.String(name, FingerprintID(attr.Value.String()))
	case attr.Value.Kind() == slog.KindString && strings.Contains(attr.Value.String(), "@"):
		return slog.String(attr.Key, stripURLPassword(attr.Value.String()))
	}
	return attr
}

// FingerprintID hashes value with a nonce chosen at process start.
func FingerprintID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(bootNonce + "|" + value))
	return "fp_" + hex.EncodeToString(sum[:8])
}

func sanitizeAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = SanitizeAttr(attr)
	}
	return out
}

func isSecretKey(key string) bool {
	for _, part := range secretKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func isClientIdentity(key string) bool {
	_, ok := clientIdentities[strings.TrimSuffix(key, "_fp")]
	return ok
}

// stripURLPassword hides the password of a URL with user info, such as a
// database address logged under a neutral key.
func stripURLPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "fallback_nonce"
	}
	return hex.EncodeToString(buf)
}
