/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       In-process LRU result cache keyed by endpoint + canonical
             parameter JSON, with TTL + entry-count eviction. Ported
             from the teacher's semantic cache shape (Engine/Stats/
             Invalidate/FlushNamespace/FlushAll) but keyed on exact
             canonical params rather than embedding similarity — this
             is an exact-match aggregate cache, not a semantic one.
Root Cause:  Sprint task T231 — Cache & Contract Middleware.
Context:     Uses hashicorp/golang-lru for the eviction policy itself;
             this package only adds TTL-on-read and key canonicalization
             on top of it.
Suitability: L3.
──────────────────────────────────────────────────────────────
*/

// Package cache implements the aggregate result cache: canonical-key
// construction, LRU+TTL storage, and cross-process invalidation
// broadcast over Redis.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is one cached value plus its expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Stats reports cumulative cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Sets      int64
}

// Engine is a size- and TTL-bounded cache of endpoint responses.
type Engine struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, entry]
	ttl       time.Duration
	hits      int64
	misses    int64
	sets      int64
	evictions int64

	onEvict func(key string)
}

// New creates an Engine holding up to maxEntries keys, each valid for
// ttl after being set.
func New(maxEntries int, ttl time.Duration) (*Engine, error) {
	if maxEntries <= 0 {
		maxEntries = 5000
	}
	e := &Engine{ttl: ttl}
	c, err := lru.NewWithEvict(maxEntries, func(key string, _ entry) {
		e.onEvicted(key)
	})
	if err != nil {
		return nil, err
	}
	e.lru = c
	return e, nil
}

func (e *Engine) onEvicted(key string) {
	atomic.AddInt64(&e.evictions, 1)
	if e.onEvict != nil {
		e.onEvict(key)
	}
}

// Key builds the canonical cache key for an endpoint and parameter set:
// "endpoint:" + sha256 of the sorted, JSON-normalized parameters. Two
// requests with the same parameters in a different order, or with
// empty-string/nil values present, produce the same key.
func Key(endpoint string, params map[string]any) string {
	normalized := normalizeParams(params)
	blob, _ := json.Marshal(normalized)
	sum := sha256.Sum256(blob)
	return endpoint + ":" + hex.EncodeToString(sum[:])
}

// normalizeParams drops empty/nil values and returns a map whose JSON
// encoding is stable regardless of insertion order (Go's encoding/json
// already sorts map keys, but we also canonicalize slice-valued params).
func normalizeParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
			out[k] = val
		case []string:
			if len(val) == 0 {
				continue
			}
			sorted := append([]string{}, val...)
			sort.Strings(sorted)
			out[k] = sorted
		default:
			out[k] = v
		}
	}
	return out
}

// Get returns the cached value for key if present and unexpired.
func (e *Engine) Get(key string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lru.Get(key)
	if !ok {
		atomic.AddInt64(&e.misses, 1)
		return nil, false
	}
	if time.Now().After(v.expiresAt) {
		e.lru.Remove(key)
		atomic.AddInt64(&e.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&e.hits, 1)
	return v.value, true
}

// Set stores value under key with this Engine's configured TTL.
func (e *Engine) Set(key string, value []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lru.Add(key, entry{value: value, expiresAt: time.Now().Add(e.ttl)})
	atomic.AddInt64(&e.sets, 1)
}

// Invalidate removes a single key, returning whether it was present.
func (e *Engine) Invalidate(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lru.Remove(key)
}

// FlushNamespace removes every cached key whose endpoint prefix matches
// namespace (e.g. "aggregate").
func (e *Engine) FlushNamespace(namespace string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	prefix := namespace + ":"
	var removed int
	for _, k := range e.lru.Keys() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			e.lru.Remove(k)
			removed++
		}
	}
	return removed
}

// FlushAll clears the entire cache.
func (e *Engine) FlushAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lru.Purge()
}

// Stats returns a snapshot of cumulative counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&e.hits),
		Misses:    atomic.LoadInt64(&e.misses),
		Evictions: atomic.LoadInt64(&e.evictions),
		Sets:      atomic.LoadInt64(&e.sets),
	}
}

// OnEvict registers a callback invoked whenever an entry leaves the
// cache: LRU capacity eviction, removal of an expired entry on Get, and
// explicit Invalidate/FlushNamespace/FlushAll all trigger it.
func (e *Engine) OnEvict(fn func(key string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvict = fn
}
