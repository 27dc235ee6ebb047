package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"slate-workspace/go-backend/internal/app"
	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/internal/platform/metrics"
	"slate-workspace/go-backend/internal/storage"
	"slate-workspace/go-backend/pkg/models"
)

const (
	connectionMessage      = "Slate bridge is working!"
	workspaceOpenedMsg     = "Workspace opened successfully"
	contentEditorOpenedMsg = "Content editor opened successfully"
	newDraftEcho           = "new"
	newDraftTitle          = "New Project"
)

// Notifier posts fire-and-forget notifications to bridge subscribers.
type Notifier interface {
	Publish(method string, payload any) app.NotificationEvent
}

type Options struct {
	Loop       *MainLoop
	Screen     *Screen
	Chain      *Chain
	Drafts     storage.DraftStore
	Media      storage.MediaSource
	Notifier   Notifier
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
	NewDraftID func() (string, error)
	Now        func() time.Time
}

// Dispatcher services bridge commands on the host. Every command runs on the
// main loop; the presented workspace is only changed here.
type Dispatcher struct {
	loop       *MainLoop
	screen     *Screen
	chain      *Chain
	drafts     storage.DraftStore
	media      storage.MediaSource
	notifier   Notifier
	metrics    *metrics.Recorder
	logger     *slog.Logger
	newDraftID func() (string, error)
	now        func() time.Time
}

func NewDispatcher(opts Options) (*Dispatcher, error) {
	switch {
	case opts.Loop == nil:
		return nil, errors.New("dispatcher: main loop is required")
	case opts.Screen == nil:
		return nil, errors.New("dispatcher: screen is required")
	case opts.Drafts == nil:
		return nil, errors.New("dispatcher: draft store is required")
	case opts.Media == nil:
		return nil, errors.New("dispatcher: media source is required")
	case opts.Notifier == nil:
		return nil, errors.New("dispatcher: notifier is required")
	}
	d := &Dispatcher{
		loop:       opts.Loop,
		screen:     opts.Screen,
		chain:      opts.Chain,
		drafts:     opts.Drafts,
		media:      opts.Media,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		newDraftID: opts.NewDraftID,
		now:        opts.Now,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.chain == nil {
		d.chain = NewChain(d.logger)
	}
	if d.newDraftID == nil {
		d.newDraftID = NewDraftID
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// NewDraftID returns "draft_" followed by a base58 encoded random UUID.
func NewDraftID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return "draft_" + base58.Encode(id[:]), nil
}

func (d *Dispatcher) TestConnection(ctx context.Context) (models.ConnectionTest, error) {
	var out models.ConnectionTest
	err := d.loop.Do(ctx, func() {
		out = models.ConnectionTest{Status: models.ConnectionStatusConnected, Message: connectionMessage}
	})
	return out, err
}

func (d *Dispatcher) GetDrafts(ctx context.Context) ([]models.Draft, error) {
	var (
		drafts  []models.Draft
		readErr error
	)
	err := d.loop.Do(ctx, func() {
		drafts, readErr = d.drafts.ListDrafts(context.WithoutCancel(ctx))
		if readErr != nil {
			return
		}
		for _, draft := range drafts {
			if readErr = draft.Validate(); readErr != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftSource, readErr)
	}
	if drafts == nil {
		drafts = []models.Draft{}
	}
	return drafts, nil
}

func (d *Dispatcher) GetRecentMedia(ctx context.Context) ([]models.MediaItem, error) {
	var (
		items   []models.MediaItem
		readErr error
	)
	err := d.loop.Do(ctx, func() {
		items, readErr = d.media.RecentMedia(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrMediaSource, readErr)
	}
	if items == nil {
		items = []models.MediaItem{}
	}
	return items, nil
}

// OpenWorkspace presents an editor for draftID; an empty id opens a new draft.
func (d *Dispatcher) OpenWorkspace(ctx context.Context, draftID string) (models.WorkspaceResult, error) {
	if err := d.open(ctx, draftID); err != nil {
		return models.WorkspaceResult{}, err
	}
	echo := draftID
	if echo == "" {
		echo = newDraftEcho
	}
	return models.WorkspaceResult{Success: true, Message: workspaceOpenedMsg, DraftID: echo}, nil
}

func (d *Dispatcher) OpenContentEditor(ctx context.Context) (models.WorkspaceResult, error) {
	if err := d.open(ctx, ""); err != nil {
		return models.WorkspaceResult{}, err
	}
	return models.WorkspaceResult{Success: true, Message: contentEditorOpenedMsg}, nil
}

func (d *Dispatcher) CreateNewDraft(ctx context.Context) (models.CreateDraftResult, error) {
	var (
		draftID   string
		createErr error
	)
	err := d.loop.Do(ctx, func() {
		draftID, createErr = d.newDraftID()
		if createErr != nil {
			return
		}
		if draftID == "" {
			createErr = errors.New("empty identifier")
			return
		}
		nowMs := d.now().UnixMilli()
		createErr = d.drafts.CreateDraft(context.WithoutCancel(ctx), models.Draft{
			ID:             draftID,
			Title:          newDraftTitle,
			CreatedAt:      nowMs,
			UpdatedAt:      nowMs,
			ApprovalStatus: models.ApprovalDraft,
		})
	})
	if err != nil {
		return models.CreateDraftResult{}, err
	}
	if createErr != nil {
		return models.CreateDraftResult{}, fmt.Errorf("%w: %w", ErrDraftAllocation, createErr)
	}
	d.logger.Info("created new draft", "draft_id", draftID)
	return models.CreateDraftResult{Success: true, DraftID: draftID}, nil
}

// Current describes the presented workspace, if any.
func (d *Dispatcher) Current(ctx context.Context) (models.PresentedWorkspace, bool, error) {
	var (
		out models.PresentedWorkspace
		ok  bool
	)
	err := d.loop.Do(ctx, func() {
		p := d.screen.Current()
		if p == nil {
			return
		}
		ok = true
		out = models.PresentedWorkspace{
			Kind:        p.Session.Kind(),
			DraftID:     p.Session.DraftID(),
			Title:       p.Session.Title(),
			Style:       p.Style,
			Navigable:   p.Navigable,
			PresentedAt: p.PresentedAt.UnixMilli(),
		}
	})
	return out, ok, err
}

// Dismiss performs a terminal user action on the presented workspace. When it
// returns nil the workspace has completed and been taken off the screen.
func (d *Dispatcher) Dismiss(ctx context.Context, action Action) error {
	var dismissErr error
	err := d.loop.Do(ctx, func() {
		p := d.screen.Current()
		if p == nil {
			dismissErr = ErrNoWorkspace
			return
		}
		dismissErr = p.Session.Dismiss(action)
	})
	if err != nil {
		return err
	}
	if dismissErr != nil {
		return dismissErr
	}
	// Teardown is posted by the completion callback; wait for it.
	return d.loop.Do(ctx, func() {})
}

func (d *Dispatcher) open(ctx context.Context, draftID string) error {
	d.logger.Info("opening workspace", "draft_id", draftOrNew(draftID))
	var openErr error
	err := d.loop.Do(ctx, func() {
		if !d.screen.HasRoot() {
			openErr = ErrNoPresentationContext
			return
		}
		if d.screen.Current() != nil {
			openErr = ErrWorkspaceBusy
			return
		}
		sess, outcome := d.chain.Resolve(context.WithoutCancel(ctx), draftID)
		chosen := outcome.Chosen()
		d.metrics.ObserveResolution(chosen)
		d.logger.Info("resolved workspace session", "strategy", chosen, "kind", sess.Kind(), "attempts", formatAttempts(outcome))

		sess.SetOnComplete(func(completedID string) {
			d.complete(sess, completedID)
		})
		if _, err := d.screen.Present(sess, d.now()); err != nil {
			sess.Release()
			openErr = err
			return
		}
		d.metrics.SetPresented(true)
	})
	if err != nil {
		return err
	}
	if openErr != nil {
		d.logger.Error("open workspace failed", "draft_id", draftOrNew(draftID), "error", openErr)
	}
	return openErr
}

// complete runs inside the session's Dismiss, before the session is released.
func (d *Dispatcher) complete(sess Session, draftID string) {
	d.logger.Info("workspace completed", "kind", sess.Kind(), "draft_id", draftOrNew(draftID))
	if sess.Kind() == KindStub {
		d.notifier.Publish(transport.NotificationWorkspaceCompleted, models.WorkspaceCompleted{DraftID: draftID})
		d.metrics.ObserveNotification(transport.NotificationWorkspaceCompleted)
	}
	d.loop.Post(func() {
		if d.screen.Remove(sess) {
			d.metrics.SetPresented(false)
		}
		sess.Release()
	})
}

func draftOrNew(draftID string) string {
	if draftID == "" {
		return newDraftEcho
	}
	return draftID
}

func formatAttempts(o Outcome) string {
	out := ""
	for i, a := range o.Attempts {
		if i > 0 {
			out += ","
		}
		mark := "fail"
		if a.OK {
			mark = "ok"
		}
		out += a.Strategy + ":" + mark
	}
	return out
}
