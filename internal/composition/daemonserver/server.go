package daemonserver

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"slate-workspace/go-backend/internal/adapters/rpc"
	"slate-workspace/go-backend/internal/bootstrap/hostconfig"
	"slate-workspace/go-backend/internal/composition/daemonservice"
	"slate-workspace/go-backend/internal/platform/metrics"
)

// NewRPCServer wires the workspace host service and its RPC transport. reg may
// be nil when metrics are disabled; when cfg.Metrics.Addr is set the caller
// serves reg on its own listener.
func NewRPCServer(ctx context.Context, cfg hostconfig.Config, logger *slog.Logger, reg *prometheus.Registry, opts daemonservice.Options) (*rpc.Server, *daemonservice.Service, error) {
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled && reg != nil {
		recorder = metrics.New(reg)
	}
	opts.Logger = logger
	opts.Metrics = recorder

	svc, err := daemonservice.New(ctx, cfg, opts)
	if err != nil {
		return nil, nil, err
	}

	serverOpts := []rpc.Option{rpc.WithLogger(logger)}
	if recorder != nil {
		serverOpts = append(serverOpts, rpc.WithMetrics(recorder, reg))
	}
	server := rpc.NewServer(ServerConfig(cfg), svc, serverOpts...)
	return server, svc, nil
}

// ServerConfig maps host configuration onto the RPC transport settings.
func ServerConfig(cfg hostconfig.Config) rpc.ServerConfig {
	return rpc.ServerConfig{
		Addr:              cfg.RPC.Addr,
		Token:             cfg.RPC.Token,
		TokenFile:         cfg.RPC.TokenFile,
		RequireToken:      cfg.RPC.RequireToken,
		Env:               cfg.Env,
		AllowNullOrigin:   cfg.RPC.AllowNullOrigin,
		RateLimit:         cfg.RPC.RateLimit,
		Streams:           rpc.StreamLimitConfig{MaxGlobal: cfg.RPC.StreamMaxGlobal, MaxPerClient: cfg.RPC.StreamMaxPerClient},
		HeartbeatInterval: cfg.RPC.Heartbeat,
		ServeMetrics:      cfg.Metrics.Enabled && cfg.Metrics.Addr == "",
	}
}
