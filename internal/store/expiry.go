package store

import (
	"context"
	"time"
)

// RunSweeper removes expired entries every interval until ctx is done.
// Each pass locks one shard at a time, so readers of other shards are never
// held up by a sweep.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			s.SweepExpired()
		}
	}
}

// SweepExpired performs one full pass and returns the number of keys removed.
func (s *Store) SweepExpired() int {
	removed := 0
	for _, sh := range s.shards {
		removed += s.sweepShard(sh)
	}
	return removed
}

func (s *Store) sweepShard(sh *shard) int {
	now := s.clock.Now()
	sh.mu.Lock()
	defer sh.mu.Unlock()

	n := 0
	for key, e := range sh.items {
		if e.expiredAt(now) {
			s.removeLocked(sh, key, removedExpired)
			n++
		}
	}
	return n
}
