package policy

import (
	"container/heap"
	"sync"
)

type lfuItem struct {
	key   string
	hits  int
	seq   uint64 // insertion order, breaks frequency ties
	index int
}

// lfuHeap is a min-heap on (hits, seq).
type lfuHeap []*lfuItem

func (h lfuHeap) Len() int { return len(h) }

func (h lfuHeap) Less(i, j int) bool {
	if h[i].hits != h[j].hits {
		return h[i].hits < h[j].hits
	}
	return h[i].seq < h[j].seq
}

func (h lfuHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *lfuHeap) Push(x any) {
	item := x.(*lfuItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *lfuHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// LFUPolicy evicts the least frequently used key; among equals, the oldest.
type LFUPolicy struct {
	mu    sync.Mutex
	heap  lfuHeap
	items map[string]*lfuItem
	seq   uint64
}

// NewLFU creates a new LFU policy instance.
func NewLFU() *LFUPolicy {
	return &LFUPolicy{
		items: make(map[string]*lfuItem),
	}
}

func (p *LFUPolicy) OnAccess(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hit(key)
}

func (p *LFUPolicy) OnAdd(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hit(key) {
		return
	}
	p.seq++
	item := &lfuItem{key: key, hits: 1, seq: p.seq}
	heap.Push(&p.heap, item)
	p.items[key] = item
}

func (p *LFUPolicy) OnRemove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if item, ok := p.items[key]; ok {
		heap.Remove(&p.heap, item.index)
		delete(p.items, key)
	}
}

func (p *LFUPolicy) SelectVictim() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.heap) == 0 {
		return ""
	}
	return p.heap[0].key
}

func (p *LFUPolicy) hit(key string) bool {
	item, ok := p.items[key]
	if !ok {
		return false
	}
	item.hits++
	heap.Fix(&p.heap, item.index)
	return true
}
