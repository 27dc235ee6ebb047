// Package bridge is the UI side of the workspace bridge: a registry of
// channels found at start-up and the Manager facade that forwards commands to
// the host over the registered channel.
package bridge

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// ChannelName is the name the host's command channel is registered under.
const ChannelName = "SlateWorkspaceBridge"

// LiveCursor subscribes without replaying notifications the host retained
// before the subscription.
const LiveCursor int64 = -1

// Notification is a host notification as received over a channel.
type Notification struct {
	Seq       int64
	Method    string
	Timestamp time.Time
	Payload   json.RawMessage
}

// Channel carries bridge commands to the host and notifications back.
type Channel interface {
	// Call invokes method and decodes the result into out. out may be nil.
	Call(ctx context.Context, method string, params any, out any) error
	// Subscribe streams notifications posted after cursor until ctx ends.
	// A negative cursor means LiveCursor.
	Subscribe(ctx context.Context, cursor int64) (<-chan Notification, error)
}

// Registry holds the channels discovered at process start.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

func (r *Registry) Register(name string, ch Channel) {
	name = strings.TrimSpace(name)
	if name == "" || ch == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[name] = ch
}

func (r *Registry) Lookup(name string) (Channel, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Names returns the registered channel names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.channels))
	for name := range r.channels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
