package workspace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	DefaultLayoutID = "ContentEditVC"
	KindPreview     = "preview"
)

// LayoutFactory builds the session declared under a layout identifier.
type LayoutFactory func() (Session, error)

// LayoutCatalog is the statically declared set of editor layouts. The host
// instantiates the entry layout when no engine is linked in.
type LayoutCatalog struct {
	mu        sync.RWMutex
	entry     string
	factories map[string]LayoutFactory
}

func NewLayoutCatalog(entry string) *LayoutCatalog {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		entry = DefaultLayoutID
	}
	return &LayoutCatalog{entry: entry, factories: make(map[string]LayoutFactory)}
}

func (c *LayoutCatalog) Register(id string, factory LayoutFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[strings.TrimSpace(id)] = factory
}

func (c *LayoutCatalog) Entry() string {
	return c.entry
}

func (c *LayoutCatalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.factories))
	for id := range c.factories {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *LayoutCatalog) Instantiate(id string) (Session, error) {
	if c == nil {
		return nil, ErrLayoutNotFound
	}
	c.mu.RLock()
	factory, ok := c.factories[id]
	c.mu.RUnlock()
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}
	sess, err := factory()
	if err != nil {
		return nil, fmt.Errorf("instantiate layout %s: %w", id, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s built no session", ErrLayoutNotFound, id)
	}
	return sess, nil
}

// LayoutKinds maps the layout kinds a catalog file may declare to factories.
var LayoutKinds = map[string]LayoutFactory{
	KindPreview: func() (Session, error) { return NewPreview(), nil },
}

// PreviewSession is a player-only editor: it can load a draft but only
// supports cancel (close) and done (save).
type PreviewSession struct {
	mu         sync.Mutex
	draftID    string
	onComplete func(string)
	finished   bool
}

func NewPreview() *PreviewSession {
	return &PreviewSession{}
}

func (p *PreviewSession) Kind() string { return KindPreview }

func (p *PreviewSession) DraftID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draftID
}

func (p *PreviewSession) Title() string { return "Edit Video" }

func (p *PreviewSession) SetDraftID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draftID = id
}

func (p *PreviewSession) SetOnComplete(fn func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

func (p *PreviewSession) Dismiss(action Action) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	if action != ActionClose && action != ActionSave {
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return ErrAlreadyDismissed
	}
	p.finished = true
	cb, id := p.onComplete, p.draftID
	p.mu.Unlock()
	if cb != nil {
		cb(id)
	}
	return nil
}

func (p *PreviewSession) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = nil
}
