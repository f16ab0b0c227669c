package store

import (
	"typed-kv-service/internal/store/policy"

	"github.com/jonboulle/clockwork"
)

const defaultShards = 16

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithShards sets the number of independently locked partitions.
func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithCapacity bounds the number of keys. Zero means unbounded.
// A capacity only takes effect together with an eviction policy.
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.capacity = n
	}
}

// WithPolicy sets the eviction policy consulted once capacity is reached.
func WithPolicy(p policy.EvictionPolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}
