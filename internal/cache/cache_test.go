package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestKeyOrderIndependence(t *testing.T) {
	a := Key("aggregate", map[string]any{"district": []string{"D09", "D10"}, "limit": 100})
	b := Key("aggregate", map[string]any{"limit": 100, "district": []string{"D10", "D09"}})
	if a != b {
		t.Errorf("expected order-independent keys to match: %s vs %s", a, b)
	}
}

func TestKeyIgnoresEmptyValues(t *testing.T) {
	a := Key("aggregate", map[string]any{"district": []string{"D09"}, "project": ""})
	b := Key("aggregate", map[string]any{"district": []string{"D09"}})
	if a != b {
		t.Errorf("expected empty-string params to be ignored: %s vs %s", a, b)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	e, err := New(10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Set("aggregate:abc", []byte(`{"rows":[]}`))
	v, ok := e.Get("aggregate:abc")
	if !ok {
		t.Fatalf("expected hit")
	}
	if string(v) != `{"rows":[]}` {
		t.Errorf("unexpected value: %s", v)
	}
	if e.Stats().Hits != 1 {
		t.Errorf("expected 1 hit, got %d", e.Stats().Hits)
	}
}

func TestGetExpiredEntryIsMiss(t *testing.T) {
	e, _ := New(10, time.Millisecond)
	e.Set("aggregate:abc", []byte("x"))
	time.Sleep(5 * time.Millisecond)
	if _, ok := e.Get("aggregate:abc"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if e.Stats().Misses != 1 {
		t.Errorf("expected 1 miss, got %d", e.Stats().Misses)
	}
}

func TestFlushNamespaceOnlyRemovesMatchingPrefix(t *testing.T) {
	e, _ := New(10, time.Minute)
	e.Set("aggregate:abc", []byte("a"))
	e.Set("dashboard:def", []byte("b"))

	removed := e.FlushNamespace("aggregate")
	if removed != 1 {
		t.Errorf("expected 1 key removed, got %d", removed)
	}
	if _, ok := e.Get("dashboard:def"); !ok {
		t.Errorf("expected unrelated namespace to survive flush")
	}
}

func TestBroadcasterSkipsOwnOrigin(t *testing.T) {
	e, _ := New(10, time.Minute)
	e.Set("aggregate:abc", []byte("a"))
	b := NewBroadcaster(e, nil, "origin-a", zerolog.Nop())

	b.Apply(`{"kind":"all","origin":"origin-a"}`)
	if _, ok := e.Get("aggregate:abc"); !ok {
		t.Errorf("expected same-origin invalidation to be ignored")
	}

	b.Apply(`{"kind":"all","origin":"origin-b"}`)
	if _, ok := e.Get("aggregate:abc"); ok {
		t.Errorf("expected peer-origin invalidation to apply")
	}
}

func TestBroadcastWithNilPublisherIsNoop(t *testing.T) {
	e, _ := New(10, time.Minute)
	b := NewBroadcaster(e, nil, "origin-a", zerolog.Nop())
	b.BroadcastAll(context.Background())
}
