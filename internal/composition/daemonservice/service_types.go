package daemonservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slate-workspace/go-backend/internal/app"
	"slate-workspace/go-backend/internal/platform/metrics"
	"slate-workspace/go-backend/internal/storage"
	"slate-workspace/go-backend/internal/workspace"
)

// Options override collaborators that New would otherwise build from config.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// Engine is the native editor engine. Nil means none is linked in and
	// resolution starts at the declared layouts.
	Engine     workspace.Engine
	Drafts     storage.DraftStore
	Media      storage.MediaSource
	NewDraftID func() (string, error)
	Now        func() time.Time
}

type Service struct {
	dispatcher *workspace.Dispatcher
	hub        *app.NotificationHub
	loop       *workspace.MainLoop
	screen     *workspace.Screen
	closeStore func() error
	metrics    *metrics.Recorder
	logger     *slog.Logger
	window     string

	startStopMu *sync.Mutex
	started     bool
	stopped     bool
	loopCancel  context.CancelFunc
}
