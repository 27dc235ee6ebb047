// Package workspace is the host side of the bridge: it resolves an editor
// implementation for each open request, presents it on the host screen and
// reports completion back to subscribers.
//
// All presentation state is owned by the MainLoop; nothing here touches the
// screen from any other goroutine.
package workspace

import (
	"fmt"
	"strings"
)

// Action is a terminal user action that ends an editing session.
type Action string

const (
	ActionClose  Action = "close"
	ActionSave   Action = "save"
	ActionExport Action = "export"
	ActionShare  Action = "share"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionClose, ActionSave, ActionExport, ActionShare:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// Session is an editor implementation the host can present. Implementations
// must call the completion callback exactly once when the user finishes, and
// before Release is called.
type Session interface {
	Kind() string
	DraftID() string
	Title() string
	SetOnComplete(fn func(draftID string))
	Dismiss(action Action) error
	Release()
}

// DraftIDAcceptor is implemented by sessions that can take a draft id after
// construction.
type DraftIDAcceptor interface {
	SetDraftID(id string)
}

func titleFor(draftID string) string {
	if draftID != "" {
		return "Editing Draft"
	}
	return "New Project"
}
