package ports

import (
	"context"
	"time"

	"slate-workspace/go-backend/pkg/models"
)

// WorkspaceAPI is the transport-neutral command contract the UI shell calls.
type WorkspaceAPI interface {
	TestConnection(ctx context.Context) (models.ConnectionTest, error)
	GetDrafts(ctx context.Context) ([]models.Draft, error)
	OpenWorkspace(ctx context.Context, draftID string) (models.WorkspaceResult, error)
	OpenContentEditor(ctx context.Context) (models.WorkspaceResult, error)
	CreateNewDraft(ctx context.Context) (models.CreateDraftResult, error)
	GetRecentMedia(ctx context.Context) ([]models.MediaItem, error)
}

// HostAPI drives the presented workspace the way a user on the host would.
type HostAPI interface {
	CurrentWorkspace(ctx context.Context) (models.PresentedWorkspace, bool, error)
	DismissWorkspace(ctx context.Context, action string) error
}

type DaemonService interface {
	WorkspaceAPI
	HostAPI
	StartHost(ctx context.Context) error
	StopHost(ctx context.Context) error
	SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func())
}

type NotificationEvent struct {
	Seq       int64
	Method    string
	Payload   any
	Timestamp time.Time
}
