package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"slate-workspace/go-backend/internal/bootstrap/hostconfig"
	"slate-workspace/go-backend/internal/composition/daemonserver"
	"slate-workspace/go-backend/internal/composition/daemonservice"
	"slate-workspace/go-backend/internal/platform/privacylog"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to host.yaml (optional)")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address (overrides config)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Slate-RPC-Token, or \"auto\"")
	window := flag.String("window", "", "Root window name; \"-\" runs headless")
	flag.Parse()
	if *showVersion {
		fmt.Printf("slate-host version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	if *rpcToken != "" {
		_ = os.Setenv("SLATE_RPC_TOKEN", *rpcToken)
	}
	cfg, err := hostconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "slate-host: load config: %v\n", err)
		os.Exit(1)
	}
	if *rpcAddr != "" {
		cfg.RPC.Addr = *rpcAddr
	}
	switch *window {
	case "":
	case "-":
		cfg.Window = ""
	default:
		cfg.Window = *window
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("slate-host failed", "error", err)
		os.Exit(1)
	}
	logger.Info("slate-host stopped")
}

func run(ctx context.Context, cfg hostconfig.Config, logger *slog.Logger) error {
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	srv, _, err := daemonserver.NewRPCServer(ctx, cfg, logger, reg, daemonservice.Options{})
	if err != nil {
		return fmt.Errorf("initialize host: %w", err)
	}

	logger.Info("slate-host starting", "version", version, "env", cfg.Env, "rpc_addr", cfg.RPC.Addr)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if reg != nil && cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, reg, logger)
		})
	}
	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()
	logger.Info("metrics listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func newLogger(cfg hostconfig.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(privacylog.WrapHandler(handler))
}
