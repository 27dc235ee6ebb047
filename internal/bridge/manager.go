package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/pkg/models"
)

const (
	DefaultTimeout = 30 * time.Second
	errorContext   = "slate workspace bridge"
)

// Manager is the facade the UI calls. It looks the channel up on every call,
// applies a per-call timeout and returns host errors with the operation name
// attached. It never retries.
type Manager struct {
	registry *Registry
	name     string
	timeout  time.Duration
	logger   *slog.Logger
	seen     atomic.Int64
}

type ManagerOption func(*Manager)

func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithChannelName looks up a channel other than ChannelName.
func WithChannelName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.name = name
		}
	}
}

func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: registry,
		name:     ChannelName,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) channel() (Channel, error) {
	ch, ok := m.registry.Lookup(m.name)
	if !ok {
		return nil, &NotFoundError{Name: m.name, Available: m.registry.Names()}
	}
	return ch, nil
}

func (m *Manager) call(ctx context.Context, op string, params any, out any) error {
	ch, err := m.channel()
	if err != nil {
		m.logger.Error("bridge unavailable", "operation", op, "error", err)
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := ch.Call(ctx, op, params, out); err != nil {
		m.logger.Error("bridge call failed", "operation", op, "error", err)
		return wrapOp(op, err)
	}
	return nil
}

func (m *Manager) TestConnection(ctx context.Context) (models.ConnectionTest, error) {
	var out models.ConnectionTest
	err := m.call(ctx, transport.MethodTestConnection, nil, &out)
	return out, err
}

// GetDrafts returns the host's drafts in host order. A draft that breaks the
// data model invariants fails the whole call.
func (m *Manager) GetDrafts(ctx context.Context) ([]models.Draft, error) {
	var out []models.Draft
	if err := m.call(ctx, transport.MethodGetDrafts, nil, &out); err != nil {
		return nil, err
	}
	for _, d := range out {
		if err := d.Validate(); err != nil {
			return nil, m.invalid(transport.MethodGetDrafts, err)
		}
	}
	if out == nil {
		out = []models.Draft{}
	}
	return out, nil
}

// OpenWorkspace opens draftID, or a new draft when draftID is nil or empty.
func (m *Manager) OpenWorkspace(ctx context.Context, draftID *string) (models.WorkspaceResult, error) {
	var params any
	if draftID != nil && *draftID != "" {
		params = []string{*draftID}
	}
	var out models.WorkspaceResult
	err := m.call(ctx, transport.MethodOpenWorkspace, params, &out)
	return out, err
}

func (m *Manager) OpenContentEditor(ctx context.Context) (models.WorkspaceResult, error) {
	var out models.WorkspaceResult
	err := m.call(ctx, transport.MethodOpenContentEditor, nil, &out)
	return out, err
}

func (m *Manager) CreateNewDraft(ctx context.Context) (models.CreateDraftResult, error) {
	var out models.CreateDraftResult
	if err := m.call(ctx, transport.MethodCreateNewDraft, nil, &out); err != nil {
		return models.CreateDraftResult{}, err
	}
	if out.Success && out.DraftID == "" {
		return models.CreateDraftResult{}, m.invalid(transport.MethodCreateNewDraft, fmt.Errorf("success without a draft id"))
	}
	return out, nil
}

func (m *Manager) GetRecentMedia(ctx context.Context) ([]models.MediaItem, error) {
	var out []models.MediaItem
	if err := m.call(ctx, transport.MethodGetRecentMedia, nil, &out); err != nil {
		return nil, err
	}
	for _, item := range out {
		if err := item.Validate(); err != nil {
			return nil, m.invalid(transport.MethodGetRecentMedia, err)
		}
	}
	if out == nil {
		out = []models.MediaItem{}
	}
	return out, nil
}

// CurrentWorkspace asks the host what it is presenting.
func (m *Manager) CurrentWorkspace(ctx context.Context) (models.PresentedWorkspace, bool, error) {
	var out struct {
		Presented bool                      `json:"presented"`
		Workspace models.PresentedWorkspace `json:"workspace"`
	}
	if err := m.call(ctx, transport.MethodWorkspaceCurrent, nil, &out); err != nil {
		return models.PresentedWorkspace{}, false, err
	}
	return out.Workspace, out.Presented, nil
}

// DismissWorkspace performs a terminal action (close, save, export, share) on
// the presented workspace.
func (m *Manager) DismissWorkspace(ctx context.Context, action string) error {
	return m.call(ctx, transport.MethodWorkspaceDismiss, []string{action}, nil)
}

func wrapOp(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", errorContext, op, err)
}

func (m *Manager) invalid(op string, cause error) error {
	err := fmt.Errorf("%s: %s: %w: %v", errorContext, op, ErrInvalidResponse, cause)
	m.logger.Error("bridge returned invalid data", "operation", op, "error", err)
	return err
}
