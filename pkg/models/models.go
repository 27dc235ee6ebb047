package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type ApprovalStatus int

const (
	ApprovalDraft ApprovalStatus = iota
	ApprovalPending
	ApprovalApproved
)

func (s ApprovalStatus) Valid() bool {
	return s >= ApprovalDraft && s <= ApprovalApproved
}

// Label returns the display label the UI shows for the status.
func (s ApprovalStatus) Label() string {
	switch s {
	case ApprovalDraft:
		return "Draft"
	case ApprovalPending:
		return "Pending"
	case ApprovalApproved:
		return "Approved"
	default:
		return "Unknown"
	}
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Draft is a persisted editing project. CreatedAt and UpdatedAt are epoch milliseconds.
type Draft struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	PreviewURL     string         `json:"previewUrl"`
	CreatedAt      int64          `json:"createdAt"`
	UpdatedAt      int64          `json:"updatedAt"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	Duration       float64        `json:"duration"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("draft id is required")
	}
	if !d.ApprovalStatus.Valid() {
		return fmt.Errorf("draft %s: approval status %d out of range", d.ID, d.ApprovalStatus)
	}
	if !validDuration(d.Duration) {
		return fmt.Errorf("draft %s: invalid duration %g", d.ID, d.Duration)
	}
	return nil
}

type MediaItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail"`
	Type      MediaKind `json:"type"`
	Duration  *float64  `json:"duration,omitempty"`
}

func (m MediaItem) Validate() error {
	switch m.Type {
	case MediaImage:
		if m.Duration != nil {
			return fmt.Errorf("media %s: image must not carry a duration", m.ID)
		}
	case MediaVideo:
		if m.Duration != nil && !validDuration(*m.Duration) {
			return fmt.Errorf("media %s: invalid duration %g", m.ID, *m.Duration)
		}
	default:
		return fmt.Errorf("media %s: unknown type %q", m.ID, m.Type)
	}
	return nil
}

// validDuration rejects values JSON cannot carry as well as negatives.
func validDuration(seconds float64) bool {
	return seconds >= 0 && !math.IsNaN(seconds) && !math.IsInf(seconds, 0)
}

// WorkspaceResult is the outcome of an open operation.
type WorkspaceResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	DraftID string `json:"draftId,omitempty"`
}

type CreateDraftResult struct {
	Success bool   `json:"success"`
	DraftID string `json:"draftId"`
}

const ConnectionStatusConnected = "connected"

type ConnectionTest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WorkspaceCompleted is posted when a fallback session closes.
type WorkspaceCompleted struct {
	DraftID string `json:"draftId"`
}

// PresentedWorkspace describes the session currently shown by the host.
type PresentedWorkspace struct {
	Kind        string `json:"kind"`
	DraftID     string `json:"draftId"`
	Title       string `json:"title"`
	Style       string `json:"style"`
	Navigable   bool   `json:"navigable"`
	PresentedAt int64  `json:"presentedAt"`
}
