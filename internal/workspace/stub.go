package workspace

import (
	"fmt"
	"sync"
)

const KindStub = "stub"

// Stub is the always-available session. It has no editing capability; it shows
// host content in a dismissible container and reports completion once.
type Stub struct {
	mu         sync.Mutex
	draftID    string
	onComplete func(string)
	dismissed  bool
	released   bool
}

func NewStub(draftID string) *Stub {
	return &Stub{draftID: draftID}
}

func (s *Stub) Kind() string    { return KindStub }
func (s *Stub) DraftID() string { return s.draftID }
func (s *Stub) Title() string   { return titleFor(s.draftID) }

func (s *Stub) SetOnComplete(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// Dismiss handles every terminal action the same way: the first one completes
// the session, later ones fail with ErrAlreadyDismissed.
func (s *Stub) Dismiss(action Action) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	s.mu.Lock()
	if s.dismissed {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyDismissed, action)
	}
	if s.released {
		s.mu.Unlock()
		return fmt.Errorf("%w: session released", ErrAlreadyDismissed)
	}
	s.dismissed = true
	cb := s.onComplete
	s.mu.Unlock()

	if cb != nil {
		cb(s.draftID)
	}
	return nil
}

func (s *Stub) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.onComplete = nil
}

func (s *Stub) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
