package policy

import (
	"container/list"
	"sync"
)

// queue keeps keys in a doubly linked list with the victim at the back.
// promote decides whether an access moves a key away from eviction.
type queue struct {
	mu      sync.Mutex
	order   *list.List
	items   map[string]*list.Element
	promote bool
}

func newQueue(promote bool) queue {
	return queue{
		order:   list.New(),
		items:   make(map[string]*list.Element),
		promote: promote,
	}
}

func (q *queue) OnAccess(key string) {
	if !q.promote {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if elem, ok := q.items[key]; ok {
		q.order.MoveToFront(elem)
	}
}

func (q *queue) OnAdd(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if elem, ok := q.items[key]; ok {
		if q.promote {
			q.order.MoveToFront(elem)
		}
		return
	}
	q.items[key] = q.order.PushFront(key)
}

func (q *queue) OnRemove(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if elem, ok := q.items[key]; ok {
		q.order.Remove(elem)
		delete(q.items, key)
	}
}

func (q *queue) SelectVictim() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if elem := q.order.Back(); elem != nil {
		return elem.Value.(string)
	}
	return ""
}

// LRUPolicy evicts the least recently used key.
type LRUPolicy struct {
	queue
}

// NewLRU creates a new LRU policy instance.
func NewLRU() *LRUPolicy {
	return &LRUPolicy{queue: newQueue(true)}
}

// FIFOPolicy evicts the oldest key regardless of access. Re-adding a tracked
// key keeps its original position.
type FIFOPolicy struct {
	queue
}

// NewFIFO creates a new FIFO policy instance.
func NewFIFO() *FIFOPolicy {
	return &FIFOPolicy{queue: newQueue(false)}
}
