package rpc

import (
	"context"
	"sync"

	"slate-workspace/go-backend/internal/app"
	"slate-workspace/go-backend/internal/domains/contracts"
	"slate-workspace/go-backend/internal/workspace"
	"slate-workspace/go-backend/pkg/models"
)

// stubService answers bridge commands from memory and posts notifications on
// a real hub so the stream handler can be exercised.
type stubService struct {
	mu        sync.Mutex
	hub       *app.NotificationHub
	noRoot    bool
	presented *models.PresentedWorkspace
	created   int
}

var _ contracts.DaemonService = (*stubService)(nil)

func newStubService() *stubService {
	return &stubService{hub: app.NewNotificationHub(32)}
}

func (s *stubService) TestConnection(context.Context) (models.ConnectionTest, error) {
	return models.ConnectionTest{Status: models.ConnectionStatusConnected, Message: "Slate bridge is working!"}, nil
}

func (s *stubService) GetDrafts(context.Context) ([]models.Draft, error) {
	return []models.Draft{
		{ID: "draft_1", Title: "Summer", ApprovalStatus: models.ApprovalDraft, Duration: 30.5},
		{ID: "draft_2", Title: "Launch", ApprovalStatus: models.ApprovalPending, Duration: 45.2},
	}, nil
}

func (s *stubService) OpenWorkspace(_ context.Context, draftID string) (models.WorkspaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noRoot {
		return models.WorkspaceResult{}, workspace.ErrNoPresentationContext
	}
	if s.presented != nil {
		return models.WorkspaceResult{}, workspace.ErrWorkspaceBusy
	}
	s.presented = &models.PresentedWorkspace{Kind: workspace.KindStub, DraftID: draftID}
	echo := draftID
	if echo == "" {
		echo = "new"
	}
	return models.WorkspaceResult{Success: true, Message: "Workspace opened successfully", DraftID: echo}, nil
}

func (s *stubService) OpenContentEditor(ctx context.Context) (models.WorkspaceResult, error) {
	if _, err := s.OpenWorkspace(ctx, ""); err != nil {
		return models.WorkspaceResult{}, err
	}
	return models.WorkspaceResult{Success: true, Message: "Content editor opened successfully"}, nil
}

func (s *stubService) CreateNewDraft(context.Context) (models.CreateDraftResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return models.CreateDraftResult{Success: true, DraftID: "draft_new_" + string(rune('a'+s.created-1))}, nil
}

func (s *stubService) GetRecentMedia(context.Context) ([]models.MediaItem, error) {
	return []models.MediaItem{}, nil
}

func (s *stubService) CurrentWorkspace(context.Context) (models.PresentedWorkspace, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presented == nil {
		return models.PresentedWorkspace{}, false, nil
	}
	return *s.presented, true, nil
}

func (s *stubService) DismissWorkspace(_ context.Context, action string) error {
	if _, err := workspace.ParseAction(action); err != nil {
		return err
	}
	s.mu.Lock()
	p := s.presented
	s.presented = nil
	s.mu.Unlock()
	if p == nil {
		return workspace.ErrNoWorkspace
	}
	s.hub.Publish("WorkspaceCompleted", models.WorkspaceCompleted{DraftID: p.DraftID})
	return nil
}

func (s *stubService) StartHost(context.Context) error { return nil }
func (s *stubService) StopHost(context.Context) error  { return nil }

func (s *stubService) SubscribeNotifications(cursor int64) ([]contracts.NotificationEvent, <-chan contracts.NotificationEvent, func()) {
	return s.hub.Subscribe(cursor)
}
