package ratelimiter

import (
	"testing"
	"time"
)

func TestLimiterBurstThenDeny(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Unix(1700000000, 0)
	if !l.Allow("token:a", now) || !l.Allow("token:a", now) {
		t.Fatal("burst of 2 must be allowed")
	}
	if l.Allow("token:a", now) {
		t.Fatal("third request in the same instant must be denied")
	}
	if !l.Allow("token:b", now) {
		t.Fatal("keys must not share buckets")
	}
	if !l.Allow("token:a", now.Add(time.Second)) {
		t.Fatal("bucket must refill over time")
	}
}

func TestLimiterNilAndBlankKeyAllow(t *testing.T) {
	var l *Limiter
	if !l.Allow("x", time.Now()) || l.Len() != 0 || l.RetryAfter("x", time.Now()) != 0 {
		t.Fatal("nil limiter must allow everything")
	}
	if NewFromConfig(Config{Enabled: false, RPS: 1, Burst: 1}) != nil {
		t.Fatal("disabled config must produce a nil limiter")
	}
	if New(0, 1, 0) != nil {
		t.Fatal("invalid rps must produce a nil limiter")
	}
	live := New(1, 1, 0)
	if !live.Allow("  ", time.Now()) || live.Len() != 0 {
		t.Fatal("blank keys are not tracked")
	}
}

func TestLimiterForgetsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Second)
	start := time.Unix(1700000000, 0)
	l.Allow("stale", start)
	l.Allow("fresh", start.Add(500*time.Millisecond))
	l.Allow("fresh", start.Add(1200*time.Millisecond))
	if l.Len() != 1 {
		t.Fatalf("expected the stale key to be forgotten, tracking %d keys", l.Len())
	}
}

func TestLimiterRetryAfter(t *testing.T) {
	l := New(0.5, 1, time.Minute)
	now := time.Unix(1700000000, 0)
	if got := l.RetryAfter("ip:a", now); got != 0 {
		t.Fatalf("unknown key must not wait, got %s", got)
	}
	l.Allow("ip:a", now)
	if got := l.RetryAfter("ip:a", now); got != 2*time.Second {
		t.Fatalf("expected 2s, got %s", got)
	}
	if got := l.RetryAfter("ip:a", now.Add(3*time.Second)); got != 0 {
		t.Fatalf("refilled bucket must not wait, got %s", got)
	}
}
