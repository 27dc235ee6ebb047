package rpc

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	idempotencyHeader = "X-Slate-Idempotency-Key"
	replayTTL         = 10 * time.Minute
	replayCapacity    = 1024
)

type replayEntry struct {
	key         string
	fingerprint string
	response    rpcResponse
	storedAt    time.Time
}

// replayCache answers a retried createNewDraft with the response of the first
// attempt. Entries expire after replayTTL; the least recently stored entry is
// evicted once the cache is full.
type replayCache struct {
	mu    sync.Mutex
	order *list.List
	byKey map[string]*list.Element
}

func newReplayCache() *replayCache {
	return &replayCache{order: list.New(), byKey: make(map[string]*list.Element)}
}

// lookup returns the stored response for key. conflict is true when key was
// used before for a request with another fingerprint.
func (c *replayCache) lookup(key, fingerprint string, now time.Time) (resp rpcResponse, hit, conflict bool) {
	if c == nil || key == "" {
		return rpcResponse{}, false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire(now)
	el, ok := c.byKey[key]
	if !ok {
		return rpcResponse{}, false, false
	}
	entry := el.Value.(*replayEntry)
	if entry.fingerprint != fingerprint {
		return rpcResponse{}, false, true
	}
	return entry.response, true, false
}

func (c *replayCache) store(key, fingerprint string, resp rpcResponse, now time.Time) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire(now)
	if el, ok := c.byKey[key]; ok {
		c.order.Remove(el)
	}
	c.byKey[key] = c.order.PushFront(&replayEntry{key: key, fingerprint: fingerprint, response: resp, storedAt: now})
	for c.order.Len() > replayCapacity {
		c.drop(c.order.Back())
	}
}

// expire drops entries from the back while they are older than replayTTL.
func (c *replayCache) expire(now time.Time) {
	for el := c.order.Back(); el != nil; el = c.order.Back() {
		if now.Sub(el.Value.(*replayEntry).storedAt) <= replayTTL {
			return
		}
		c.drop(el)
	}
}

func (c *replayCache) drop(el *list.Element) {
	entry := c.order.Remove(el).(*replayEntry)
	delete(c.byKey, entry.key)
}

// replayKey scopes a client supplied key to the caller's token.
func replayKey(header, token string) string {
	key := strings.TrimSpace(header)
	if key == "" {
		return ""
	}
	return digest(token) + ":" + key
}

func requestFingerprint(req rpcRequest) string {
	version := "-"
	if req.APIVersion != nil {
		version = strconv.Itoa(*req.APIVersion)
	}
	return digest(req.Method + "\x00" + version + "\x00" + strings.TrimSpace(string(req.Params)))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
