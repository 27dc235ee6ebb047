package app

import (
	"sync"
	"time"

	"slate-workspace/go-backend/internal/domains/contracts/ports"
)

type NotificationEvent = ports.NotificationEvent

const subscriberBuffer = 128

// NotificationHub assigns sequence numbers to host notifications, retains the
// most recent ones in a ring and fans them out to live subscribers.
type NotificationHub struct {
	mu     sync.Mutex
	now    func() time.Time
	seq    int64
	ring   []NotificationEvent
	head   int // index of the oldest retained event
	size   int
	subs   map[uint64]chan NotificationEvent
	nextID uint64
}

// NewNotificationHub retains up to retain events for replay; at least one is kept.
func NewNotificationHub(retain int) *NotificationHub {
	if retain < 1 {
		retain = 1
	}
	return &NotificationHub{
		now:  func() time.Time { return time.Now().UTC() },
		ring: make([]NotificationEvent, retain),
		subs: make(map[uint64]chan NotificationEvent),
	}
}

func (h *NotificationHub) Publish(method string, payload any) NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	event := NotificationEvent{Seq: h.seq, Method: method, Payload: payload, Timestamp: h.now()}
	h.retain(event)

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber: close it; it can resume from its last seq.
			close(ch)
			delete(h.subs, id)
		}
	}
	return event
}

// Subscribe returns the retained events after cursor and a channel of live
// events. cancel is idempotent.
func (h *NotificationHub) Subscribe(cursor int64) (replay []NotificationEvent, events <-chan NotificationEvent, cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	replay = make([]NotificationEvent, 0, h.size)
	for i := 0; i < h.size; i++ {
		if evt := h.ring[(h.head+i)%len(h.ring)]; evt.Seq > cursor {
			replay = append(replay, evt)
		}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan NotificationEvent, subscriberBuffer)
	h.subs[id] = ch

	return replay, ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

func (h *NotificationHub) LastSeq() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func (h *NotificationHub) BacklogSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *NotificationHub) retain(event NotificationEvent) {
	if h.size < len(h.ring) {
		h.ring[(h.head+h.size)%len(h.ring)] = event
		h.size++
		return
	}
	h.ring[h.head] = event
	h.head = (h.head + 1) % len(h.ring)
}
