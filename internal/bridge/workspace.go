package bridge

import (
	"context"
	"log/slog"

	"slate-workspace/go-backend/pkg/models"
)

// Workspace wraps the Manager for UI code that wants plain answers: failures
// are logged and turned into false, "" or empty slices.
type Workspace struct {
	manager *Manager
	logger  *slog.Logger
}

func NewWorkspace(m *Manager) *Workspace {
	return &Workspace{manager: m, logger: m.logger}
}

func (w *Workspace) Connected(ctx context.Context) bool {
	res, err := w.manager.TestConnection(ctx)
	if err != nil {
		w.logger.Error("connection test failed", "error", err)
		return false
	}
	w.logger.Info("connection test", "status", res.Status, "message", res.Message)
	return res.Status == models.ConnectionStatusConnected
}

// OpenEditor opens draftID, or the content editor when draftID is empty.
func (w *Workspace) OpenEditor(ctx context.Context, draftID string) bool {
	var (
		res models.WorkspaceResult
		err error
	)
	if draftID != "" {
		res, err = w.manager.OpenWorkspace(ctx, &draftID)
	} else {
		res, err = w.manager.OpenContentEditor(ctx)
	}
	if err != nil {
		w.logger.Error("failed to open editor", "draft_id", draftID, "error", err)
		return false
	}
	w.logger.Info("opened editor", "draft_id", res.DraftID, "message", res.Message)
	return res.Success
}

func (w *Workspace) CreateNewProject(ctx context.Context) (string, bool) {
	res, err := w.manager.CreateNewDraft(ctx)
	if err != nil {
		w.logger.Error("failed to create new draft", "error", err)
		return "", false
	}
	if !res.Success {
		return "", false
	}
	w.logger.Info("created new draft", "draft_id", res.DraftID)
	return res.DraftID, true
}

func (w *Workspace) Drafts(ctx context.Context) []models.Draft {
	drafts, err := w.manager.GetDrafts(ctx)
	if err != nil {
		w.logger.Error("failed to get drafts", "error", err)
		return []models.Draft{}
	}
	w.logger.Info("retrieved drafts", "count", len(drafts))
	return drafts
}

func (w *Workspace) RecentMedia(ctx context.Context) []models.MediaItem {
	media, err := w.manager.GetRecentMedia(ctx)
	if err != nil {
		w.logger.Error("failed to get recent media", "error", err)
		return []models.MediaItem{}
	}
	w.logger.Info("retrieved media", "count", len(media))
	return media
}
