package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"slate-workspace/go-backend/internal/securestore"
	"slate-workspace/go-backend/pkg/models"
)

var (
	ErrDraftNotFound   = errors.New("draft not found")
	ErrDraftIDConflict = errors.New("draft id conflict")
)

// DraftStore is the host's draft source. ListDrafts returns drafts in host order;
// callers must not assume any particular sort.
type DraftStore interface {
	ListDrafts(ctx context.Context) ([]models.Draft, error)
	GetDraft(ctx context.Context, id string) (models.Draft, error)
	CreateDraft(ctx context.Context, draft models.Draft) error
}

// MemoryDraftStore keeps drafts in insertion order and optionally mirrors them to a
// JSON snapshot on disk.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts []models.Draft
	index  map[string]int
	path   string
	secret string
}

func NewMemoryDraftStore(seed ...models.Draft) *MemoryDraftStore {
	s := &MemoryDraftStore{index: make(map[string]int)}
	for _, d := range seed {
		s.appendLocked(d)
	}
	return s
}

// NewPersistentDraftStore loads the snapshot at path. When the file does not exist the
// seed drafts are used and written on the first change.
func NewPersistentDraftStore(path string, seed ...models.Draft) (*MemoryDraftStore, error) {
	s := NewMemoryDraftStore(seed...)
	s.path = path
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewEncryptedPersistentDraftStore is NewPersistentDraftStore with the snapshot
// sealed by secret. A plaintext snapshot is still read and is sealed on the
// next change.
func NewEncryptedPersistentDraftStore(path, secret string, seed ...models.Draft) (*MemoryDraftStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("draft snapshot secret is empty")
	}
	s := NewMemoryDraftStore(seed...)
	s.path = path
	s.secret = secret
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryDraftStore) ListDrafts(_ context.Context) ([]models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Draft, len(s.drafts))
	copy(out, s.drafts)
	return out, nil
}

func (s *MemoryDraftStore) GetDraft(_ context.Context, id string) (models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return models.Draft{}, ErrDraftNotFound
	}
	return s.drafts[idx], nil
}

func (s *MemoryDraftStore) CreateDraft(_ context.Context, draft models.Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[draft.ID]; ok {
		return ErrDraftIDConflict
	}
	next := append(append([]models.Draft(nil), s.drafts...), draft)
	if err := s.persistSnapshotLocked(next); err != nil {
		return err
	}
	s.appendLocked(draft)
	return nil
}

func (s *MemoryDraftStore) appendLocked(d models.Draft) {
	s.index[d.ID] = len(s.drafts)
	s.drafts = append(s.drafts, d)
}

func (s *MemoryDraftStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if securestore.IsSealed(data) {
		if s.secret == "" {
			return errors.New("draft snapshot is sealed but no secret is configured")
		}
		if data, err = securestore.Open(s.secret, data); err != nil {
			return fmt.Errorf("open draft snapshot: %w", err)
		}
	}
	var snapshot struct {
		Drafts []models.Draft `json:"drafts"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	s.drafts = nil
	s.index = make(map[string]int, len(snapshot.Drafts))
	for _, d := range snapshot.Drafts {
		if err := d.Validate(); err != nil {
			return err
		}
		s.appendLocked(d)
	}
	return nil
}

func (s *MemoryDraftStore) persistSnapshotLocked(drafts []models.Draft) error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(struct {
		Drafts []models.Draft `json:"drafts"`
	}{Drafts: drafts})
	if err != nil {
		return err
	}
	if s.secret != "" {
		if data, err = securestore.Seal(s.secret, data); err != nil {
			return fmt.Errorf("seal draft snapshot: %w", err)
		}
	}
	return securestore.WriteFileAtomic(s.path, data)
}

// SampleDrafts returns the drafts a fresh host starts with.
func SampleDrafts() []models.Draft {
	return []models.Draft{
		{
			ID:             "draft_1",
			Title:          "My First Video Project",
			PreviewURL:     "https://via.placeholder.com/300x200/FF6B6B/FFFFFF?text=Draft+1",
			CreatedAt:      1640995200000,
			UpdatedAt:      1640995200000,
			ApprovalStatus: models.ApprovalDraft,
			Duration:       30.5,
		},
		{
			ID:             "draft_2",
			Title:          "Summer Vacation Memories",
			PreviewURL:     "https://via.placeholder.com/300x200/4ECDC4/FFFFFF?text=Draft+2",
			CreatedAt:      1641081600000,
			UpdatedAt:      1641081600000,
			ApprovalStatus: models.ApprovalPending,
			Duration:       45.2,
		},
		{
			ID:             "draft_3",
			Title:          "Product Demo Video",
			PreviewURL:     "https://via.placeholder.com/300x200/45B7D1/FFFFFF?text=Draft+3",
			CreatedAt:      1641168000000,
			UpdatedAt:      1641168000000,
			ApprovalStatus: models.ApprovalApproved,
			Duration:       60.0,
		},
	}
}
