package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"slate-workspace/go-backend/internal/bridge"
	"slate-workspace/go-backend/internal/platform/privacylog"
)

var (
	flagAddr    string
	flagToken   string
	flagTimeout time.Duration
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "slatectl",
	Short:         "Drive the slate workspace host through the bridge",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addr := os.Getenv("SLATE_RPC_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8787"
	}
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", addr, "host RPC address")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("SLATE_RPC_TOKEN"), "host RPC token")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", bridge.DefaultTimeout, "per-call timeout")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log bridge activity")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect discovers the host once and registers the bridge channel only when
// it answered; commands then fail with "bridge not found" rather than a
// transport error.
func connect(ctx context.Context) *bridge.Manager {
	level := slog.LevelError
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(privacylog.WrapHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	registry := bridge.NewRegistry()
	ch := bridge.NewHTTPChannel(flagAddr, flagToken)
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := ch.Probe(probeCtx); err != nil {
		logger.Debug("host discovery failed", "addr", flagAddr, "error", err)
	} else {
		registry.Register(bridge.ChannelName, ch)
	}
	return bridge.NewManager(registry, bridge.WithTimeout(flagTimeout), bridge.WithLogger(logger))
}
