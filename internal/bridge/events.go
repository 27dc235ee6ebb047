package bridge

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/pkg/models"
)

// CompletedEvent is a WorkspaceCompleted notification with its stream position.
type CompletedEvent struct {
	Seq int64
	models.WorkspaceCompleted
}

// Subscription delivers WorkspaceCompleted notifications until Close is called
// or the channel goes away.
type Subscription struct {
	Events <-chan CompletedEvent
	cancel context.CancelFunc
}

func (s *Subscription) Close() {
	s.cancel()
}

// SubscribeWorkspaceCompleted resumes after the last notification this manager
// handed to a subscriber. Until one has been handed over it subscribes from
// LiveCursor, so completions from earlier host sessions are not replayed.
func (m *Manager) SubscribeWorkspaceCompleted(ctx context.Context) (*Subscription, error) {
	cursor := m.seen.Load()
	if cursor == 0 {
		cursor = LiveCursor
	}
	return m.SubscribeWorkspaceCompletedFrom(ctx, cursor)
}

func (m *Manager) SubscribeWorkspaceCompletedFrom(ctx context.Context, cursor int64) (*Subscription, error) {
	ch, err := m.channel()
	if err != nil {
		m.logger.Error("bridge unavailable", "operation", transport.NotificationWorkspaceCompleted, "error", err)
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	notifications, err := ch.Subscribe(subCtx, cursor)
	if err != nil {
		cancel()
		m.logger.Error("bridge subscribe failed", "error", err)
		return nil, wrapOp("subscribe", err)
	}

	// Unbuffered: an event counts as seen only once a reader has taken it.
	out := make(chan CompletedEvent)
	go func() {
		defer close(out)
		for n := range notifications {
			if n.Method != transport.NotificationWorkspaceCompleted {
				continue
			}
			var payload models.WorkspaceCompleted
			if err := json.Unmarshal(n.Payload, &payload); err != nil {
				m.logger.Warn("dropping malformed notification", "seq", n.Seq, "error", err)
				continue
			}
			select {
			case out <- CompletedEvent{Seq: n.Seq, WorkspaceCompleted: payload}:
				advance(&m.seen, n.Seq)
			case <-subCtx.Done():
				return
			}
		}
	}()
	return &Subscription{Events: out, cancel: cancel}, nil
}

func advance(v *atomic.Int64, seq int64) {
	for {
		cur := v.Load()
		if seq <= cur || v.CompareAndSwap(cur, seq) {
			return
		}
	}
}
