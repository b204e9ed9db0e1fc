/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Cross-process cache invalidation over a Redis pub/sub
             channel. Every server process subscribes; a promote or
             an explicit flush publishes an invalidation message that
             every OTHER process applies locally.
Root Cause:  Sprint task T232 — multiple query-server replicas must
             not serve a stale cached aggregate after a promote on a
             different process.
Context:     Best-effort — a missed message just means a replica
             serves one extra TTL window of stale data, not incorrect
             forever. Redis is optional; Broadcaster is a no-op if the
             client is nil.
Suitability: L2.
──────────────────────────────────────────────────────────────
*/

package cache

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

const invalidationChannel = "condocore:cache:invalidate"

// invalidationMsg is published on invalidationChannel.
type invalidationMsg struct {
	Kind      string `json:"kind"` // "key", "namespace", "all"
	Key       string `json:"key,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Origin    string `json:"origin"`
}

// publisher is the subset of redisclient.Client that Broadcaster needs.
// Kept as a narrow interface so this package doesn't import go-redis
// directly; cmd/server wires the concrete *redisclient.Client in and
// owns the subscribe loop that feeds received payloads to Apply.
type publisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

// Channel returns the Redis channel name this package publishes
// invalidations on and expects to receive them from.
func Channel() string { return invalidationChannel }

// Broadcaster propagates cache invalidations to peer processes over
// Redis and applies invalidations received from peers to a local Engine.
type Broadcaster struct {
	engine *Engine
	pub    publisher
	origin string
	log    zerolog.Logger
}

// NewBroadcaster wires engine to pub for outbound invalidations. pub may
// be nil, in which case Broadcast* calls are no-ops — the cache still
// works correctly within a single process.
func NewBroadcaster(engine *Engine, pub publisher, origin string, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{engine: engine, pub: pub, origin: origin, log: log}
}

// BroadcastKey invalidates key locally (already done by the caller, via
// Engine.Invalidate) and tells peers to do the same.
func (b *Broadcaster) BroadcastKey(ctx context.Context, key string) {
	b.publish(ctx, invalidationMsg{Kind: "key", Key: key, Origin: b.origin})
}

// BroadcastNamespace tells peers to flush an entire namespace.
func (b *Broadcaster) BroadcastNamespace(ctx context.Context, namespace string) {
	b.publish(ctx, invalidationMsg{Kind: "namespace", Namespace: namespace, Origin: b.origin})
}

// BroadcastAll tells peers to flush their entire cache — used after a
// promote, since any cached aggregate may now be stale.
func (b *Broadcaster) BroadcastAll(ctx context.Context) {
	b.publish(ctx, invalidationMsg{Kind: "all", Origin: b.origin})
}

func (b *Broadcaster) publish(ctx context.Context, msg invalidationMsg) {
	if b.pub == nil {
		return
	}
	blob, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := b.pub.Publish(ctx, invalidationChannel, string(blob)); err != nil {
		b.log.Warn().Err(err).Msg("cache: failed to publish invalidation")
	}
}

// Apply applies a received invalidation message to the local engine,
// skipping messages this same process originated.
func (b *Broadcaster) Apply(payload string) {
	var msg invalidationMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return
	}
	if msg.Origin == b.origin {
		return
	}
	switch msg.Kind {
	case "key":
		b.engine.Invalidate(msg.Key)
	case "namespace":
		b.engine.FlushNamespace(msg.Namespace)
	case "all":
		b.engine.FlushAll()
	}
}
