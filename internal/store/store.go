package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"typed-kv-service/internal/observability"
	"typed-kv-service/internal/store/policy"

	"github.com/jonboulle/clockwork"
	"github.com/tidwall/match"
)

// Condition restricts when Put applies.
type Condition int

const (
	Always    Condition = iota
	IfAbsent            // NX
	IfPresent           // XX
)

// NoExpiry is reported by TTL for keys that never expire.
const NoExpiry time.Duration = -1

// PutOptions control a Put.
type PutOptions struct {
	TTL       time.Duration
	Condition Condition
	// KeepTTL preserves the current expiry of an existing key when TTL is
	// zero. Without it an update clears the expiry.
	KeepTTL bool
}

type removal int

const (
	removedByCaller removal = iota
	removedExpired
	removedEvicted
)

type shard struct {
	mu    sync.RWMutex
	items map[string]*Entry
}

// Store is a thread-safe in-memory keyspace of typed entries.
// Keys are spread over shards; every single-key operation holds exactly one
// shard lock for its whole duration.
type Store struct {
	shards     []*shard
	shardCount int
	clock      clockwork.Clock
	capacity   int
	policy     policy.EvictionPolicy
	count      atomic.Int64
}

// New creates a new Store
func New(opts ...Option) *Store {
	s := &Store{
		shardCount: defaultShards,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]*Entry)}
	}
	return s
}

// Clock returns the clock the store measures expiry against.
func (s *Store) Clock() clockwork.Clock {
	return s.clock
}

// Lookup returns a detached copy of the live entry stored at key.
// An expired entry is removed as a side effect and reported as absent.
func (s *Store) Lookup(key string) (Entry, bool) {
	var out Entry
	found, _ := s.Read(key, KindAny, func(e *Entry) {
		out = e.clone()
	})
	return out, found
}

// Read runs fn against the live entry at key under the shard's read lock.
// fn must not retain or mutate the entry. Passing KindAny skips the type check.
func (s *Store) Read(key string, kind Kind, fn func(*Entry)) (bool, error) {
	sh := s.shardFor(key)
	now := s.clock.Now()

	sh.mu.RLock()
	e, ok := sh.items[key]
	if !ok {
		sh.mu.RUnlock()
		return false, nil
	}
	if e.expiredAt(now) {
		sh.mu.RUnlock()
		s.expire(key)
		return false, nil
	}
	if kind != KindAny && e.Kind() != kind {
		sh.mu.RUnlock()
		return true, ErrWrongType
	}
	fn(e)
	sh.mu.RUnlock()

	s.touch(key)
	return true, nil
}

// Write runs fn against the live entry at key under the shard's write lock.
// When the key is absent and create is set, a zero value of kind is built,
// handed to fn and installed only if fn succeeds. The boolean reports whether
// an entry existed or was created.
func (s *Store) Write(key string, kind Kind, create bool, fn func(*Entry) error) (bool, error) {
	if create {
		s.makeRoom(key)
	}
	sh := s.shardFor(key)
	now := s.clock.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.liveLocked(sh, key, now)
	if e == nil {
		if !create {
			return false, nil
		}
		fresh := &Entry{Key: key, Value: newValue(kind)}
		if err := fn(fresh); err != nil {
			return false, err
		}
		s.insertLocked(sh, fresh)
		return true, nil
	}
	if e.Kind() != kind {
		return true, ErrWrongType
	}
	s.touch(key)
	return true, fn(e)
}

// Put stores v at key subject to opts. It reports false, without error, when
// the condition is not met. Put takes ownership of v.
func (s *Store) Put(key string, v Value, opts PutOptions) (bool, error) {
	s.makeRoom(key)
	sh := s.shardFor(key)
	now := s.clock.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.liveLocked(sh, key, now)
	switch opts.Condition {
	case IfAbsent:
		if e != nil {
			return false, nil
		}
	case IfPresent:
		if e == nil {
			return false, nil
		}
	}
	if e != nil && e.Kind() != v.Kind() {
		return false, ErrWrongType
	}

	var expiresAt time.Time
	switch {
	case opts.TTL > 0:
		expiresAt = now.Add(opts.TTL)
	case opts.KeepTTL && e != nil:
		expiresAt = e.ExpiresAt
	}

	if e != nil {
		e.Value = v
		e.ExpiresAt = expiresAt
		s.touch(key)
		return true, nil
	}
	s.insertLocked(sh, &Entry{Key: key, Value: v, ExpiresAt: expiresAt})
	return true, nil
}

// Delete removes key and reports whether a live entry was removed.
func (s *Store) Delete(key string) bool {
	sh := s.shardFor(key)
	now := s.clock.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if s.liveLocked(sh, key, now) == nil {
		return false
	}
	s.removeLocked(sh, key, removedByCaller)
	return true
}

// FlushAll removes every key. All shard locks are held together, so no
// caller observes a partially flushed keyspace.
func (s *Store) FlushAll() {
	for _, sh := range s.shards {
		sh.mu.Lock()
	}
	for _, sh := range s.shards {
		for key := range sh.items {
			s.removeLocked(sh, key, removedByCaller)
		}
	}
	for i := len(s.shards) - 1; i >= 0; i-- {
		s.shards[i].mu.Unlock()
	}
}

// Expire sets a time to live on key. A non-positive ttl deletes the key.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	if ttl <= 0 {
		return s.Delete(key)
	}
	sh := s.shardFor(key)
	now := s.clock.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.liveLocked(sh, key, now)
	if e == nil {
		return false
	}
	e.ExpiresAt = now.Add(ttl)
	return true
}

// Persist clears the expiry of key and reports whether one was set.
func (s *Store) Persist(key string) bool {
	sh := s.shardFor(key)
	now := s.clock.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.liveLocked(sh, key, now)
	if e == nil || e.ExpiresAt.IsZero() {
		return false
	}
	e.ExpiresAt = time.Time{}
	return true
}

// TTL returns the remaining time to live of key, or NoExpiry for a key
// without one. The boolean is false when the key is absent.
func (s *Store) TTL(key string) (time.Duration, bool) {
	var expiresAt time.Time
	found, _ := s.Read(key, KindAny, func(e *Entry) {
		expiresAt = e.ExpiresAt
	})
	if !found {
		return 0, false
	}
	if expiresAt.IsZero() {
		return NoExpiry, true
	}
	return expiresAt.Sub(s.clock.Now()), true
}

// Len counts live keys.
func (s *Store) Len() int {
	now := s.clock.Now()
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.items {
			if !e.expiredAt(now) {
				n++
			}
		}
		sh.mu.RUnlock()
	}
	return n
}

// Keys returns the sorted live keys matching a Redis glob pattern. The
// pattern has no separator: '*' matches any run of bytes, '/' included.
func (s *Store) Keys(pattern string) []string {
	now := s.clock.Now()
	keys := make([]string, 0)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, e := range sh.items {
			if !e.expiredAt(now) && match.Match(k, pattern) {
				keys = append(keys, k)
			}
		}
		sh.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

// liveLocked returns the entry at key, evicting it first if it has expired.
// The caller holds the shard's write lock.
func (s *Store) liveLocked(sh *shard, key string, now time.Time) *Entry {
	e, ok := sh.items[key]
	if !ok {
		return nil
	}
	if e.expiredAt(now) {
		s.removeLocked(sh, key, removedExpired)
		return nil
	}
	return e
}

func (s *Store) insertLocked(sh *shard, e *Entry) {
	sh.items[e.Key] = e
	s.count.Add(1)
	if s.policy != nil {
		s.policy.OnAdd(e.Key)
	}
}

func (s *Store) removeLocked(sh *shard, key string, why removal) {
	delete(sh.items, key)
	s.count.Add(-1)
	if s.policy != nil {
		s.policy.OnRemove(key)
	}
	switch why {
	case removedExpired:
		observability.ExpiredKeysTotal.Inc()
	case removedEvicted:
		observability.EvictedKeysTotal.Inc()
	}
}

func (s *Store) touch(key string) {
	if s.policy != nil {
		s.policy.OnAccess(key)
	}
}

// expire removes key if it is still expired once the write lock is held.
func (s *Store) expire(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s.liveLocked(sh, key, s.clock.Now())
}

// makeRoom evicts policy victims until a new key fits. It runs before the
// caller takes its own shard lock, so the capacity bound is soft under
// concurrent inserts.
func (s *Store) makeRoom(key string) {
	if s.capacity <= 0 || s.policy == nil {
		return
	}
	for s.count.Load() >= int64(s.capacity) {
		if s.contains(key) {
			return
		}
		victim := s.policy.SelectVictim()
		if victim == "" || victim == key {
			return
		}
		if !s.evict(victim) {
			s.policy.OnRemove(victim)
		}
	}
}

func (s *Store) contains(key string) bool {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.items[key]
	return ok && !e.expiredAt(s.clock.Now())
}

func (s *Store) evict(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.items[key]; !ok {
		return false
	}
	s.removeLocked(sh, key, removedEvicted)
	return true
}
