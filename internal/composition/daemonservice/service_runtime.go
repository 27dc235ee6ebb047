package daemonservice

import (
	"context"
	"errors"
	"fmt"

	"slate-workspace/go-backend/internal/app"
	"slate-workspace/go-backend/internal/workspace"
	"slate-workspace/go-backend/pkg/models"
)

var ErrHostStopped = errors.New("workspace host already stopped")

// StartHost runs the main loop and attaches the root window. A host without a
// configured window stays headless and refuses to present workspaces.
func (s *Service) StartHost(ctx context.Context) error {
	s.startStopMu.Lock()
	defer s.startStopMu.Unlock()

	if s.stopped {
		return ErrHostStopped
	}
	if s.started {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		_ = s.loop.Run(loopCtx)
	}()
	s.loopCancel = cancel
	s.started = true

	if s.window == "" {
		s.logger.Warn("workspace host started without a root window")
		return nil
	}
	if err := s.loop.Do(ctx, func() { s.screen.AttachRoot(s.window) }); err != nil {
		return fmt.Errorf("attach root window: %w", err)
	}
	s.logger.Info("workspace host started", "window", s.window)
	return nil
}

// StopHost releases any presented workspace, stops the main loop and closes
// storage. It is safe to call more than once.
func (s *Service) StopHost(ctx context.Context) error {
	s.startStopMu.Lock()
	defer s.startStopMu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if s.started {
		err := s.loop.Do(ctx, func() {
			if p := s.screen.Current(); p != nil {
				s.screen.Remove(p.Session)
				p.Session.Release()
				s.metrics.SetPresented(false)
			}
			s.screen.DetachRoot()
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("release workspace: %w", err))
		}
		s.loopCancel()
		select {
		case <-s.loop.Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("wait main loop: %w", ctx.Err()))
		}
	}
	if s.closeStore != nil {
		if err := s.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("close draft store: %w", err))
		}
	}
	s.logger.Info("workspace host stopped")
	return errors.Join(errs...)
}

func (s *Service) TestConnection(ctx context.Context) (models.ConnectionTest, error) {
	return s.dispatcher.TestConnection(ctx)
}

func (s *Service) GetDrafts(ctx context.Context) ([]models.Draft, error) {
	return s.dispatcher.GetDrafts(ctx)
}

func (s *Service) OpenWorkspace(ctx context.Context, draftID string) (models.WorkspaceResult, error) {
	return s.dispatcher.OpenWorkspace(ctx, draftID)
}

func (s *Service) OpenContentEditor(ctx context.Context) (models.WorkspaceResult, error) {
	return s.dispatcher.OpenContentEditor(ctx)
}

func (s *Service) CreateNewDraft(ctx context.Context) (models.CreateDraftResult, error) {
	return s.dispatcher.CreateNewDraft(ctx)
}

func (s *Service) GetRecentMedia(ctx context.Context) ([]models.MediaItem, error) {
	return s.dispatcher.GetRecentMedia(ctx)
}

func (s *Service) CurrentWorkspace(ctx context.Context) (models.PresentedWorkspace, bool, error) {
	return s.dispatcher.Current(ctx)
}

func (s *Service) DismissWorkspace(ctx context.Context, action string) error {
	a, err := workspace.ParseAction(action)
	if err != nil {
		return err
	}
	return s.dispatcher.Dismiss(ctx, a)
}

func (s *Service) SubscribeNotifications(cursor int64) ([]app.NotificationEvent, <-chan app.NotificationEvent, func()) {
	return s.hub.Subscribe(cursor)
}
