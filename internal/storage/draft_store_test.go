package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slate-workspace/go-backend/internal/securestore"
	"slate-workspace/go-backend/internal/testutil/fsperm"
	"slate-workspace/go-backend/pkg/models"
)

func TestMemoryDraftStorePreservesHostOrder(t *testing.T) {
	s := NewMemoryDraftStore(SampleDrafts()...)
	drafts, err := s.ListDrafts(context.Background())
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}
	for i, want := range []string{"draft_1", "draft_2", "draft_3"} {
		if drafts[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, drafts[i].ID)
		}
		if int(drafts[i].ApprovalStatus) != i {
			t.Fatalf("position %d: expected status %d, got %d", i, i, drafts[i].ApprovalStatus)
		}
	}

	if err := s.CreateDraft(context.Background(), models.Draft{ID: "draft_0"}); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	drafts, _ = s.ListDrafts(context.Background())
	if drafts[len(drafts)-1].ID != "draft_0" {
		t.Fatalf("new draft must be appended, got order %v", draftIDs(drafts))
	}
}

func TestMemoryDraftStoreRejectsInvalidAndDuplicate(t *testing.T) {
	s := NewMemoryDraftStore(SampleDrafts()...)
	ctx := context.Background()
	if err := s.CreateDraft(ctx, models.Draft{ID: "draft_1"}); !errors.Is(err, ErrDraftIDConflict) {
		t.Fatalf("expected ErrDraftIDConflict, got %v", err)
	}
	if err := s.CreateDraft(ctx, models.Draft{ID: "x", Duration: -2}); err == nil {
		t.Fatal("expected negative duration to be rejected")
	}
	if _, err := s.GetDraft(ctx, "missing"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestPersistentDraftStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts", "drafts.json")
	s, err := NewPersistentDraftStore(path, SampleDrafts()...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("snapshot must not be written before the first change, stat err=%v", err)
	}
	if err := s.CreateDraft(context.Background(), models.Draft{ID: "draft_new", Title: "New"}); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	reopened, err := NewPersistentDraftStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	drafts, _ := reopened.ListDrafts(context.Background())
	if len(drafts) != 4 || drafts[3].ID != "draft_new" {
		t.Fatalf("unexpected reloaded drafts: %v", draftIDs(drafts))
	}
}

func TestEncryptedDraftStoreSealsSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	path := filepath.Join(dir, "drafts.json")
	ctx := context.Background()

	s, err := NewEncryptedPersistentDraftStore(path, "correct horse", SampleDrafts()...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.CreateDraft(ctx, models.Draft{ID: "draft_secret", Title: "Hidden"}); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !securestore.IsSealed(raw) || strings.Contains(string(raw), "Hidden") {
		t.Fatal("snapshot must be sealed at rest")
	}
	fsperm.AssertPrivateDirPerm(t, dir)
	fsperm.AssertPrivateFilePerm(t, path)

	reopened, err := NewEncryptedPersistentDraftStore(path, "correct horse")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.GetDraft(ctx, "draft_secret"); err != nil {
		t.Fatalf("draft lost after reopen: %v", err)
	}
	if _, err := NewEncryptedPersistentDraftStore(path, "wrong"); !errors.Is(err, securestore.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if _, err := NewPersistentDraftStore(path); err == nil {
		t.Fatal("sealed snapshot must not open without a secret")
	}
}

func TestEncryptedDraftStoreReadsPlaintextSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")
	plain, err := NewPersistentDraftStore(path)
	if err != nil {
		t.Fatalf("open plaintext: %v", err)
	}
	if err := plain.CreateDraft(context.Background(), models.Draft{ID: "draft_old"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	sealed, err := NewEncryptedPersistentDraftStore(path, "s3cret")
	if err != nil {
		t.Fatalf("open with secret: %v", err)
	}
	if _, err := sealed.GetDraft(context.Background(), "draft_old"); err != nil {
		t.Fatalf("plaintext snapshot must still load: %v", err)
	}
}

func TestStaticMediaSourceReturnsCopies(t *testing.T) {
	src := NewStaticMediaSource(SampleMedia()...)
	items, err := src.RecentMedia(context.Background())
	if err != nil {
		t.Fatalf("recent media: %v", err)
	}
	if len(items) != 3 || items[1].Type != models.MediaVideo || items[1].Duration == nil || *items[1].Duration != 15.5 {
		t.Fatalf("unexpected media: %+v", items)
	}
	*items[1].Duration = 99
	again, _ := src.RecentMedia(context.Background())
	if *again[1].Duration != 15.5 {
		t.Fatal("media snapshot must not be mutable by callers")
	}
}

func draftIDs(drafts []models.Draft) []string {
	out := make([]string, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, d.ID)
	}
	return out
}
