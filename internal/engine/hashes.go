package engine

import "typed-kv-service/internal/store"

// FieldValue is one hash field with its value.
type FieldValue struct {
	Field string
	Value string
}

func hashOf(ent *store.Entry) *store.Hash {
	return ent.Value.(*store.Hash)
}

// HSet sets field in the hash at key, creating the hash if needed.
// It reports whether the field is new.
func (e *Engine) HSet(key, field, value string) (bool, error) {
	n, err := e.HSetFields(key, FieldValue{Field: field, Value: value})
	return n == 1, err
}

// HSetFields sets several fields in one atomic update and returns how many
// of them are new.
func (e *Engine) HSetFields(key string, pairs ...FieldValue) (int, error) {
	created := 0
	_, err := e.store.Write(key, store.KindHash, true, func(ent *store.Entry) error {
		h := hashOf(ent)
		for _, p := range pairs {
			if h.Set(p.Field, p.Value) {
				created++
			}
		}
		return nil
	})
	return created, err
}

func (e *Engine) HGet(key, field string) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	_, err := e.store.Read(key, store.KindHash, func(ent *store.Entry) {
		val, ok = hashOf(ent).Get(field)
	})
	return val, ok, err
}

// HDel removes fields and returns how many existed. A hash left without
// fields stays in the keyspace.
func (e *Engine) HDel(key string, fields ...string) (int, error) {
	n := 0
	_, err := e.store.Write(key, store.KindHash, false, func(ent *store.Entry) error {
		h := hashOf(ent)
		for _, f := range fields {
			if h.Delete(f) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// HKeys returns field names in first-insertion order.
func (e *Engine) HKeys(key string) ([]string, error) {
	keys := []string{}
	_, err := e.store.Read(key, store.KindHash, func(ent *store.Entry) {
		keys = hashOf(ent).Keys()
	})
	return keys, err
}

// HVals returns values in the same order as HKeys.
func (e *Engine) HVals(key string) ([]string, error) {
	vals := []string{}
	_, err := e.store.Read(key, store.KindHash, func(ent *store.Entry) {
		vals = hashOf(ent).Values()
	})
	return vals, err
}

func (e *Engine) HLen(key string) (int, error) {
	n := 0
	_, err := e.store.Read(key, store.KindHash, func(ent *store.Entry) {
		n = hashOf(ent).Len()
	})
	return n, err
}

func (e *Engine) HExists(key, field string) (bool, error) {
	_, ok, err := e.HGet(key, field)
	return ok, err
}

func (e *Engine) HGetAll(key string) ([]FieldValue, error) {
	pairs := []FieldValue{}
	_, err := e.store.Read(key, store.KindHash, func(ent *store.Entry) {
		h := hashOf(ent)
		keys, vals := h.Keys(), h.Values()
		pairs = make([]FieldValue, len(keys))
		for i := range keys {
			pairs[i] = FieldValue{Field: keys[i], Value: vals[i]}
		}
	})
	return pairs, err
}
