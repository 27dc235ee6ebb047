package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slate-workspace/go-backend/internal/domains/contracts"
	"slate-workspace/go-backend/internal/platform/metrics"
	"slate-workspace/go-backend/internal/platform/ratelimiter"
)

const (
	defaultHeartbeat   = 20 * time.Second
	shutdownGracePhase = 5 * time.Second
)

type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	service         contracts.DaemonService
	initErr         error
	auth            tokenAuth
	allowNullOrigin bool
	rpcLimiter      *ratelimiter.Limiter
	streams         *streamGate
	replays         *replayCache
	heartbeat       time.Duration
	metrics         *metrics.Recorder
	gatherer        prometheus.Gatherer
	serveMetrics    bool
	logger          *slog.Logger
}

// NewServer resolves the RPC token from cfg. A configuration error is
// reported by Run.
func NewServer(cfg ServerConfig, svc contracts.DaemonService, opts ...Option) *Server {
	auth, err := newTokenAuth(cfg)
	if err != nil {
		return &Server{initErr: err}
	}
	return newServerWithService(cfg, svc, auth, opts...)
}

func newServerWithService(cfg ServerConfig, svc contracts.DaemonService, auth tokenAuth, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultRPCAddr
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeat
	}
	s := &Server{
		service:         svc,
		auth:            auth,
		allowNullOrigin: cfg.AllowNullOrigin,
		rpcLimiter:      ratelimiter.NewFromConfig(cfg.RateLimit),
		streams:         newStreamGate(cfg.Streams),
		replays:         newReplayCache(),
		heartbeat:       cfg.HeartbeatInterval,
		serveMetrics:    cfg.ServeMetrics,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auth.disabled() {
		s.logger.Warn("SLATE_RPC_TOKEN is not set; RPC auth disabled")
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/rpc", s.handleRPC).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/rpc/stream", s.handleRPCStream).Methods(http.MethodGet, http.MethodOptions)
	if s.serveMetrics && s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	cors := handlers.CORS(
		handlers.AllowedOriginValidator(s.allowedOrigin),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "Authorization", rpcTokenHeader, rpcRequestIDHeader, idempotencyHeader}),
	)
	return s.rejectForeignOrigins(cors(router))
}

// Handler is the full HTTP surface: origin checks, CORS and routing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	if err := s.service.StartHost(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()
	s.logger.Info("rpc server listening", "addr", s.httpServer.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePhase)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := s.service.StopHost(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePhase)
		_ = s.service.StopHost(shutdownCtx)
		cancel()
		return err
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func (s *Server) HandleRPC(w http.ResponseWriter, r *http.Request) {
	s.handleRPC(w, r)
}

func (s *Server) HandleRPCStream(w http.ResponseWriter, r *http.Request) {
	s.handleRPCStream(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rejectForeignOrigins refuses browser requests from anything but the local
// machine before CORS headers are considered.
func (s *Server) rejectForeignOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" && !s.allowedOrigin(origin) {
			s.logger.Warn("origin rejected", "origin", origin)
			http.Error(w, "origin is not allowed", http.StatusForbidden)
			return
		}
		w.Header().Add("Vary", "Origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) bool {
	return localOrigin(origin, s.allowNullOrigin)
}

// authorize writes 401 and returns false when the request lacks the token.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.auth.admits(r) {
		return true
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
	return false
}
