package engine

import "typed-kv-service/internal/store"

func listOf(ent *store.Entry) *store.List {
	return ent.Value.(*store.List)
}

// LPush inserts values at the head one after another, so the last value ends
// up first. It returns the new length.
func (e *Engine) LPush(key string, values ...string) (int, error) {
	n := 0
	_, err := e.store.Write(key, store.KindList, true, func(ent *store.Entry) error {
		l := listOf(ent)
		items := make([]string, 0, len(values)+len(l.Items))
		for i := len(values) - 1; i >= 0; i-- {
			items = append(items, values[i])
		}
		l.Items = append(items, l.Items...)
		n = len(l.Items)
		return nil
	})
	return n, err
}

// RPush appends values at the tail and returns the new length.
func (e *Engine) RPush(key string, values ...string) (int, error) {
	n := 0
	_, err := e.store.Write(key, store.KindList, true, func(ent *store.Entry) error {
		l := listOf(ent)
		l.Items = append(l.Items, values...)
		n = len(l.Items)
		return nil
	})
	return n, err
}

// LRange returns the inclusive range [start, stop]. Negative indices count
// from the tail; out of range bounds are clamped.
func (e *Engine) LRange(key string, start, stop int64) ([]string, error) {
	out := []string{}
	_, err := e.store.Read(key, store.KindList, func(ent *store.Entry) {
		items := listOf(ent).Items
		lo, hi, ok := clampRange(start, stop, len(items))
		if ok {
			out = append(out, items[lo:hi+1]...)
		}
	})
	return out, err
}

func (e *Engine) LLen(key string) (int, error) {
	n := 0
	_, err := e.store.Read(key, store.KindList, func(ent *store.Entry) {
		n = len(listOf(ent).Items)
	})
	return n, err
}

// LPop removes and returns the head element. An emptied list stays in the
// keyspace.
func (e *Engine) LPop(key string) (string, bool, error) {
	return e.pop(key, true)
}

// RPop removes and returns the tail element.
func (e *Engine) RPop(key string) (string, bool, error) {
	return e.pop(key, false)
}

func (e *Engine) pop(key string, head bool) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	_, err := e.store.Write(key, store.KindList, false, func(ent *store.Entry) error {
		l := listOf(ent)
		if len(l.Items) == 0 {
			return nil
		}
		if head {
			val, l.Items = l.Items[0], l.Items[1:]
		} else {
			last := len(l.Items) - 1
			val, l.Items = l.Items[last], l.Items[:last]
		}
		ok = true
		return nil
	})
	return val, ok, err
}

// LSet overwrites the element at index.
func (e *Engine) LSet(key string, index int64, value string) error {
	found, err := e.store.Write(key, store.KindList, false, func(ent *store.Entry) error {
		l := listOf(ent)
		i, ok := resolveIndex(index, len(l.Items))
		if !ok {
			return ErrIndexOutOfRange
		}
		l.Items[i] = value
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNoSuchKey
	}
	return nil
}

// LIndex returns the element at index, or false when it does not exist.
func (e *Engine) LIndex(key string, index int64) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	_, err := e.store.Read(key, store.KindList, func(ent *store.Entry) {
		items := listOf(ent).Items
		if i, valid := resolveIndex(index, len(items)); valid {
			val, ok = items[i], true
		}
	})
	return val, ok, err
}

// LRem removes occurrences of value: up to count scanning from the head when
// count > 0, up to -count scanning from the tail when count < 0, every one
// when count == 0. It returns the number removed.
func (e *Engine) LRem(key string, count int64, value string) (int, error) {
	removed := 0
	_, err := e.store.Write(key, store.KindList, false, func(ent *store.Entry) error {
		l := listOf(ent)
		items := l.Items
		limit := count
		if limit < 0 {
			limit = -limit
		}
		drop := make([]bool, len(items))
		mark := func(i int) {
			if items[i] == value {
				drop[i] = true
				removed++
			}
		}
		full := func() bool {
			return limit > 0 && int64(removed) >= limit
		}
		if count < 0 {
			for i := len(items) - 1; i >= 0 && !full(); i-- {
				mark(i)
			}
		} else {
			for i := 0; i < len(items) && !full(); i++ {
				mark(i)
			}
		}
		if removed == 0 {
			return nil
		}

		kept := items[:0]
		for i, it := range items {
			if !drop[i] {
				kept = append(kept, it)
			}
		}
		clear(items[len(kept):])
		l.Items = kept
		return nil
	})
	return removed, err
}

func resolveIndex(index int64, n int) (int, bool) {
	if index < 0 {
		index += int64(n)
	}
	if index < 0 || index >= int64(n) {
		return 0, false
	}
	return int(index), true
}

func clampRange(start, stop int64, n int) (int, int, bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if start > stop || start >= size {
		return 0, 0, false
	}
	return int(start), int(stop), true
}
