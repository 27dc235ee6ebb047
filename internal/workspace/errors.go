package workspace

import "errors"

var (
	// ErrNoPresentationContext means the host has no active window to present on.
	ErrNoPresentationContext = errors.New("no root view controller found")
	ErrWorkspaceBusy         = errors.New("a workspace is already presented")
	ErrNoWorkspace           = errors.New("no workspace is presented")
	ErrAlreadyDismissed      = errors.New("session already dismissed")
	ErrUnsupportedAction     = errors.New("action is not supported by this session")
	ErrUnknownAction         = errors.New("unknown workspace action")
	ErrLoopStopped           = errors.New("main loop is stopped")
	ErrLayoutNotFound        = errors.New("layout not found")
	ErrDraftAllocation       = errors.New("cannot allocate draft identifier")
	ErrDraftSource           = errors.New("draft source failed")
	ErrMediaSource           = errors.New("media source failed")
)
