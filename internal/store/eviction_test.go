package store

import (
	"testing"

	"typed-kv-service/internal/store/policy"

	"github.com/stretchr/testify/assert"
)

func TestStore_LRUEviction(t *testing.T) {
	s, _ := newTestStore(WithCapacity(2), WithPolicy(policy.NewLRU()))

	s.Put("key1", String("val1"), PutOptions{})
	s.Put("key2", String("val2"), PutOptions{})

	// Reading key1 leaves key2 as the least recently used.
	e, found := s.Lookup("key1")
	assert.True(t, found)
	assert.Equal(t, String("val1"), e.Value)

	s.Put("key3", String("val3"), PutOptions{})

	_, found = s.Lookup("key2")
	assert.False(t, found, "key2 should be evicted")

	_, found = s.Lookup("key1")
	assert.True(t, found)
	_, found = s.Lookup("key3")
	assert.True(t, found)
}

func TestStore_FIFOEviction(t *testing.T) {
	s, _ := newTestStore(WithCapacity(2), WithPolicy(policy.NewFIFO()))

	s.Put("key1", String("val1"), PutOptions{})
	s.Put("key2", String("val2"), PutOptions{})
	s.Lookup("key1")

	// A list push creating key3 goes through the same capacity check.
	s.Write("key3", KindList, true, func(e *Entry) error {
		e.Value.(*List).Items = []string{"x"}
		return nil
	})

	_, found := s.Lookup("key1")
	assert.False(t, found, "key1 should be evicted (FIFO)")

	_, found = s.Lookup("key2")
	assert.True(t, found)
	_, found = s.Lookup("key3")
	assert.True(t, found)
}

func TestStore_UpdateAtCapacityDoesNotEvict(t *testing.T) {
	s, _ := newTestStore(WithCapacity(2), WithPolicy(policy.NewFIFO()))

	s.Put("key1", String("val1"), PutOptions{})
	s.Put("key2", String("val2"), PutOptions{})
	s.Put("key1", String("again"), PutOptions{})

	assert.Equal(t, 2, s.Len())
	_, found := s.Lookup("key2")
	assert.True(t, found)
}

func TestStore_DeleteUpdatesPolicy(t *testing.T) {
	s, _ := newTestStore(WithCapacity(2), WithPolicy(policy.NewFIFO()))

	s.Put("key1", String("val1"), PutOptions{})
	s.Put("key2", String("val2"), PutOptions{})
	s.Delete("key1")
	s.Put("key3", String("val3"), PutOptions{})

	// There was room after the delete, so nothing is evicted.
	assert.Equal(t, 2, s.Len())
	_, found := s.Lookup("key2")
	assert.True(t, found)
}
