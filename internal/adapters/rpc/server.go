package rpc

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"slate-workspace/go-backend/internal/platform/metrics"
	"slate-workspace/go-backend/internal/platform/ratelimiter"
)

const DefaultRPCAddr = "127.0.0.1:8787"

// ServerConfig is the transport configuration of the host's RPC endpoint.
type ServerConfig struct {
	Addr string
	// Token is the shared secret clients send; "auto" generates one on start.
	Token     string
	TokenFile string
	// RequireToken overrides the environment default when set. Production-like
	// environments ignore a false override.
	RequireToken      *bool
	Env               string
	AllowNullOrigin   bool
	RateLimit         ratelimiter.Config
	Streams           StreamLimitConfig
	HeartbeatInterval time.Duration
	// ServeMetrics mounts /metrics on the RPC router.
	ServeMetrics bool
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              DefaultRPCAddr,
		RateLimit:         ratelimiter.Config{Enabled: true, RPS: 30, Burst: 60, IdleTTL: 10 * time.Minute},
		Streams:           StreamLimitConfig{MaxGlobal: 128, MaxPerClient: 8},
		HeartbeatInterval: 20 * time.Second,
		ServeMetrics:      true,
	}
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records per-method RPC metrics and serves gatherer at /metrics.
func WithMetrics(rec *metrics.Recorder, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = rec
		s.gatherer = gatherer
	}
}
