package policy

import (
	"math/rand"
	"sync"
	"time"
)

// RandomPolicy evicts a uniformly chosen key.
type RandomPolicy struct {
	mu    sync.Mutex
	keys  []string
	index map[string]int
	rnd   *rand.Rand
}

// NewRandom creates a new Random policy instance with a time-based seed.
func NewRandom() *RandomPolicy {
	return newRandomWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// newRandomWithRand creates a new Random policy with a specific random source (for testing).
func newRandomWithRand(r *rand.Rand) *RandomPolicy {
	return &RandomPolicy{
		index: make(map[string]int),
		rnd:   r,
	}
}

// OnAccess is a no-op: access does not change eviction odds.
func (p *RandomPolicy) OnAccess(string) {}

func (p *RandomPolicy) OnAdd(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.index[key]; ok {
		return
	}
	p.index[key] = len(p.keys)
	p.keys = append(p.keys, key)
}

// OnRemove swaps the key with the last slot and truncates.
func (p *RandomPolicy) OnRemove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[key]
	if !ok {
		return
	}
	last := len(p.keys) - 1
	p.keys[i] = p.keys[last]
	p.index[p.keys[i]] = i
	p.keys = p.keys[:last]
	delete(p.index, key)
}

func (p *RandomPolicy) SelectVictim() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return ""
	}
	return p.keys[p.rnd.Intn(len(p.keys))]
}
