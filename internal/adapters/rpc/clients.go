package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// clientKey identifies a caller for rate and stream limits. A presented token
// wins over the remote address and is only kept as a digest.
func clientKey(r *http.Request, token string) string {
	if token = strings.TrimSpace(token); token != "" {
		return "token:" + digest(token)
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}

type StreamLimitConfig struct {
	MaxGlobal    int
	MaxPerClient int
}

// streamGate admits event stream subscribers: at most MaxGlobal at once and
// MaxPerClient per client key.
type streamGate struct {
	global    *semaphore.Weighted
	perClient int

	mu   sync.Mutex
	open map[string]int
}

func newStreamGate(cfg StreamLimitConfig) *streamGate {
	if cfg.MaxGlobal <= 0 {
		cfg.MaxGlobal = 128
	}
	if cfg.MaxPerClient <= 0 {
		cfg.MaxPerClient = 8
	}
	return &streamGate{
		global:    semaphore.NewWeighted(int64(cfg.MaxGlobal)),
		perClient: cfg.MaxPerClient,
		open:      make(map[string]int),
	}
}

// enter never blocks. The returned leave func is safe to call more than once.
func (g *streamGate) enter(client string) (leave func(), ok bool) {
	if g == nil {
		return func() {}, true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open[client] >= g.perClient {
		return nil, false
	}
	if !g.global.TryAcquire(1) {
		return nil, false
	}
	g.open[client]++

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if n := g.open[client] - 1; n > 0 {
				g.open[client] = n
			} else {
				delete(g.open, client)
			}
			g.mu.Unlock()
			g.global.Release(1)
		})
	}, true
}
