package engine

import (
	"time"

	"typed-kv-service/internal/store"
)

// Exists counts how many of keys are live. Repeated keys count repeatedly.
func (e *Engine) Exists(keys ...string) int {
	n := 0
	for _, k := range keys {
		if _, ok := e.store.Lookup(k); ok {
			n++
		}
	}
	return n
}

// Type names the kind held by key, or "none".
func (e *Engine) Type(key string) string {
	kind := store.KindAny
	// KindAny never reports a type mismatch.
	_, _ = e.store.Read(key, store.KindAny, func(ent *store.Entry) {
		kind = ent.Kind()
	})
	return kind.String()
}

func (e *Engine) Expire(key string, ttl time.Duration) bool {
	return e.store.Expire(key, ttl)
}

// TTL returns the remaining lifetime of key; store.NoExpiry for a persistent
// key. The boolean is false when the key does not exist.
func (e *Engine) TTL(key string) (time.Duration, bool) {
	return e.store.TTL(key)
}

func (e *Engine) Persist(key string) bool {
	return e.store.Persist(key)
}

// Keys lists live keys matching a Redis glob pattern, sorted.
func (e *Engine) Keys(pattern string) []string {
	return e.store.Keys(pattern)
}

func (e *Engine) DBSize() int {
	return e.store.Len()
}

// FlushDB removes every key.
func (e *Engine) FlushDB() {
	e.store.FlushAll()
}
