package store

import "errors"

// ErrWrongType is returned when an operation targets a key holding a value
// of a different kind.
var ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
