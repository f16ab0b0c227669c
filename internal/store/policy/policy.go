package policy

import "fmt"

// EvictionPolicy picks which key leaves a full store.
// The store reports every key it adds, touches or removes; implementations
// keep their own bookkeeping and must be safe for concurrent use.
type EvictionPolicy interface {
	// OnAccess is called when an existing key is read or updated.
	OnAccess(key string)

	// OnAdd is called when a key enters the store.
	OnAdd(key string)

	// OnRemove is called when a key leaves the store for any reason.
	OnRemove(key string)

	// SelectVictim returns the next key to evict, or "" when nothing is tracked.
	SelectVictim() string
}

// ByName builds the policy registered under name. "none" and "" yield nil,
// which leaves the store unbounded.
func ByName(name string) (EvictionPolicy, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "lru":
		return NewLRU(), nil
	case "lfu":
		return NewLFU(), nil
	case "fifo":
		return NewFIFO(), nil
	case "random":
		return NewRandom(), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", name)
	}
}
