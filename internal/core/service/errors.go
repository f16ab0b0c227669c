package service

import (
	"errors"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/engine"
	"typed-kv-service/internal/store"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArgs      = errors.New("wrong number of arguments")
	ErrSyntax         = errors.New("syntax error")
	ErrNotInteger     = errors.New("value is not an integer or out of range")
	ErrInvalidExpire  = errors.New("invalid expire time")
	ErrDBIndex        = errors.New("DB index is out of range")
)

// ErrorString renders err the way Redis clients expect to read it, with the
// error class as the first word.
func ErrorString(err error) string {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return "WRONGTYPE Operation against a key holding the wrong kind of value"
	case errors.Is(err, engine.ErrNotSortable):
		return "ERR One or more scores can't be converted into double"
	case errors.Is(err, auth.ErrNoAuth):
		return "NOAUTH Authentication required."
	case errors.Is(err, auth.ErrWrongPass):
		return "WRONGPASS invalid username-password pair or user is disabled."
	default:
		return "ERR " + err.Error()
	}
}
