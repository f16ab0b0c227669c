// Package engine implements the typed commands on top of the entry store.
// Every operation runs through a single store Read or Write, so it observes
// and mutates one key atomically.
package engine

import (
	"errors"

	"typed-kv-service/internal/store"
)

var (
	// ErrNoSuchKey is returned by operations that require an existing key.
	ErrNoSuchKey = errors.New("no such key")
	// ErrIndexOutOfRange is returned when a list index does not address an element.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotSortable is returned when a numeric sort meets a non-numeric element.
	ErrNotSortable = errors.New("one or more elements can't be converted into a number")
)

// Engine exposes string, hash, list and keyspace commands.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}
