package rpc

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	"slate-workspace/go-backend/internal/securestore"
)

const (
	rpcTokenHeader = "X-Slate-RPC-Token"
	rpcTokenEnv    = "SLATE_RPC_TOKEN"
	autoTokenValue = "auto"
)

var errTokenRequired = errors.New("SLATE_RPC_TOKEN is required unless rpc.requireToken=false and SLATE_ENV is test/development/local")

// tokenAuth guards /rpc and /rpc/stream with a shared token.
type tokenAuth struct {
	token    string
	required bool
}

func newTokenAuth(cfg ServerConfig) (tokenAuth, error) {
	required := tokenRequired(cfg.Env, cfg.RequireToken)
	token, err := resolveToken(cfg.Token, cfg.TokenFile)
	if err != nil {
		return tokenAuth{}, err
	}
	if required && token == "" {
		return tokenAuth{}, errTokenRequired
	}
	return tokenAuth{token: token, required: required}, nil
}

// disabled reports whether every caller is admitted.
func (a tokenAuth) disabled() bool {
	return a.token == "" && !a.required
}

func (a tokenAuth) admits(r *http.Request) bool {
	if a.disabled() {
		return true
	}
	presented := presentedToken(r)
	if presented == "" || a.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) == 1
}

// presentedToken prefers X-Slate-RPC-Token over an Authorization bearer.
func presentedToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(rpcTokenHeader)); token != "" {
		return token
	}
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// tokenRequired lets non-production environments opt out of the token. A
// false override is ignored anywhere else.
func tokenRequired(env string, override *bool) bool {
	relaxed := false
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test", "testing", "dev", "development", "local":
		relaxed = true
	}
	if override == nil {
		return !relaxed
	}
	return *override || !relaxed
}

// resolveToken turns "auto" into a fresh random token, exports it to the
// environment and, when tokenFile is set, writes it there with mode 0600.
func resolveToken(raw, tokenFile string) (string, error) {
	token := strings.TrimSpace(raw)
	if !strings.EqualFold(token, autoTokenValue) {
		return token, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token = "rpc_" + hex.EncodeToString(buf)
	if err := os.Setenv(rpcTokenEnv, token); err != nil {
		return "", err
	}
	if path := strings.TrimSpace(tokenFile); path != "" {
		if err := securestore.WriteFileAtomic(path, []byte(token)); err != nil {
			return "", err
		}
	}
	return token, nil
}

// localOrigin admits browser origins on the local machine only. The opaque
// "null" origin is admitted when allowNull is set.
func localOrigin(raw string, allowNull bool) bool {
	if raw == "null" {
		return allowNull
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
