package workspace

import (
	"strings"
	"sync"
	"time"
)

const StyleFullScreen = "fullScreen"

// Presentation is a session shown inside a full-screen navigation container.
type Presentation struct {
	Session     Session
	Style       string
	Navigable   bool
	PresentedAt time.Time
}

// Screen is the host's presentation surface: an optional root window and at
// most one presented workspace over it.
type Screen struct {
	mu        sync.Mutex
	root      string
	presented *Presentation
}

// NewScreen creates a screen; an empty root means the host has no window.
func NewScreen(root string) *Screen {
	return &Screen{root: strings.TrimSpace(root)}
}

func (s *Screen) AttachRoot(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = strings.TrimSpace(name)
}

func (s *Screen) DetachRoot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = ""
}

func (s *Screen) HasRoot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root != ""
}

func (s *Screen) Present(sess Session, now time.Time) (*Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == "" {
		return nil, ErrNoPresentationContext
	}
	if s.presented != nil {
		return nil, ErrWorkspaceBusy
	}
	p := &Presentation{
		Session:     sess,
		Style:       StyleFullScreen,
		Navigable:   true,
		PresentedAt: now,
	}
	s.presented = p
	return p, nil
}

func (s *Screen) Current() *Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Remove takes sess off the screen if it is the one presented.
func (s *Screen) Remove(sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presented == nil || s.presented.Session != sess {
		return false
	}
	s.presented = nil
	return true
}
