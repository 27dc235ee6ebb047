package daemonservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"slate-workspace/go-backend/internal/app"
	"slate-workspace/go-backend/internal/bootstrap/hostconfig"
	"slate-workspace/go-backend/internal/platform/privacylog"
	"slate-workspace/go-backend/internal/storage"
	"slate-workspace/go-backend/internal/workspace"
	"slate-workspace/go-backend/pkg/models"
)

// New builds a host service that is ready to StartHost. Storage handles opened
// here are closed by StopHost, or immediately if a later step fails.
func New(ctx context.Context, cfg hostconfig.Config, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(privacylog.WrapHandler(slog.Default().Handler()))
	}

	drafts, closeStore, err := openDraftStore(ctx, cfg.Storage, opts.Drafts)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Service, error) {
		if closeStore != nil {
			_ = closeStore()
		}
		return nil, err
	}

	media := opts.Media
	if media == nil {
		media = storage.NewStaticMediaSource(storage.SampleMedia()...)
	}

	catalog, err := buildLayoutCatalog(cfg.Layouts)
	if err != nil {
		return fail(err)
	}
	providers := make([]workspace.Provider, 0, 2)
	if opts.Engine != nil {
		providers = append(providers, workspace.EngineProvider(opts.Engine, logger))
	}
	providers = append(providers, workspace.LayoutProvider(catalog, logger))
	chain := workspace.NewChain(logger, providers...)

	hub := app.NewNotificationHub(cfg.NotificationHistory)
	loop := workspace.NewMainLoop()
	screen := workspace.NewScreen("")

	dispatcher, err := workspace.NewDispatcher(workspace.Options{
		Loop:       loop,
		Screen:     screen,
		Chain:      chain,
		Drafts:     drafts,
		Media:      media,
		Notifier:   hub,
		Metrics:    opts.Metrics,
		Logger:     logger,
		NewDraftID: opts.NewDraftID,
		Now:        opts.Now,
	})
	if err != nil {
		return fail(err)
	}

	logger.Info("workspace host assembled",
		"storage", cfg.Storage.Driver,
		"engine", opts.Engine != nil,
		"layout_entry", catalog.Entry(),
		"layouts", len(catalog.IDs()),
		"window", cfg.Window,
	)
	return &Service{
		dispatcher:  dispatcher,
		hub:         hub,
		loop:        loop,
		screen:      screen,
		closeStore:  closeStore,
		metrics:     opts.Metrics,
		logger:      logger,
		window:      cfg.Window,
		startStopMu: &sync.Mutex{},
	}, nil
}

func openDraftStore(ctx context.Context, cfg hostconfig.StorageConfig, override storage.DraftStore) (storage.DraftStore, func() error, error) {
	if override != nil {
		return override, nil, nil
	}
	var seed []models.Draft
	if cfg.SeedSamples {
		seed = storage.SampleDrafts()
	}
	switch cfg.Driver {
	case "", hostconfig.StorageMemory:
		if cfg.SnapshotPath == "" {
			return storage.NewMemoryDraftStore(seed...), nil, nil
		}
		var (
			store *storage.MemoryDraftStore
			err   error
		)
		if cfg.SnapshotSecret != "" {
			store, err = storage.NewEncryptedPersistentDraftStore(cfg.SnapshotPath, cfg.SnapshotSecret, seed...)
		} else {
			store, err = storage.NewPersistentDraftStore(cfg.SnapshotPath, seed...)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("open draft snapshot: %w", err)
		}
		return store, nil, nil
	case hostconfig.StoragePostgres:
		store, err := storage.OpenPostgresDraftStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if len(seed) > 0 {
			if err := store.SeedIfEmpty(ctx, seed...); err != nil {
				_ = store.Close()
				return nil, nil, err
			}
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func buildLayoutCatalog(cfg hostconfig.LayoutConfig) (*workspace.LayoutCatalog, error) {
	catalog := workspace.NewLayoutCatalog(cfg.Entry)
	ids := make([]string, 0, len(cfg.Declared))
	for id := range cfg.Declared {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var errs []error
	for _, id := range ids {
		kind := cfg.Declared[id]
		factory, ok := workspace.LayoutKinds[kind]
		if !ok {
			errs = append(errs, fmt.Errorf("layout %q: unknown kind %q", id, kind))
			continue
		}
		catalog.Register(id, factory)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return catalog, nil
}
