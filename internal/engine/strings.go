package engine

import "typed-kv-service/internal/store"

// SetOptions carries the SET flags: TTL (EX/PX), NX/XX and KEEPTTL.
type SetOptions = store.PutOptions

// Set stores value at key. It reports false when an NX/XX condition was not met.
func (e *Engine) Set(key, value string, opts SetOptions) (bool, error) {
	return e.store.Put(key, store.String(value), opts)
}

// Get returns the string at key.
func (e *Engine) Get(key string) (string, bool, error) {
	var val string
	found, err := e.store.Read(key, store.KindString, func(ent *store.Entry) {
		val = string(ent.Value.(store.String))
	})
	if err != nil || !found {
		return "", false, err
	}
	return val, true, nil
}

// Del removes keys of any kind and returns how many existed.
func (e *Engine) Del(keys ...string) int {
	n := 0
	for _, k := range keys {
		if e.store.Delete(k) {
			n++
		}
	}
	return n
}
