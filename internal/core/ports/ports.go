package ports

import (
	"context"
	"time"

	"typed-kv-service/internal/engine"
)

// CommandService maps incoming command lines to business logic
type CommandService interface {
	Execute(ctx context.Context, args []string) (Reply, error)
}

// Keyspace defines the typed operations the service drives
type Keyspace interface {
	Set(key, value string, opts engine.SetOptions) (bool, error)
	Get(key string) (string, bool, error)
	Del(keys ...string) int

	HSet(key, field, value string) (bool, error)
	HSetFields(key string, pairs ...engine.FieldValue) (int, error)
	HGet(key, field string) (string, bool, error)
	HDel(key string, fields ...string) (int, error)
	HKeys(key string) ([]string, error)
	HVals(key string) ([]string, error)
	HLen(key string) (int, error)
	HExists(key, field string) (bool, error)
	HGetAll(key string) ([]engine.FieldValue, error)

	LPush(key string, values ...string) (int, error)
	RPush(key string, values ...string) (int, error)
	LRange(key string, start, stop int64) ([]string, error)
	LLen(key string) (int, error)
	LPop(key string) (string, bool, error)
	RPop(key string) (string, bool, error)
	LSet(key string, index int64, value string) error
	LIndex(key string, index int64) (string, bool, error)
	LRem(key string, count int64, value string) (int, error)
	Sort(key string, opts engine.SortOptions) ([]string, error)

	Exists(keys ...string) int
	Type(key string) string
	Expire(key string, ttl time.Duration) bool
	TTL(key string) (time.Duration, bool)
	Persist(key string) bool
	Keys(pattern string) []string
	DBSize() int
	FlushDB()
}

var _ Keyspace = (*engine.Engine)(nil)

// ReplyKind discriminates Reply.
type ReplyKind int

const (
	StatusReply ReplyKind = iota
	BulkReply
	NilReply
	IntegerReply
	ArrayReply
)

// Reply is the transport-neutral result of a command.
type Reply struct {
	Kind  ReplyKind
	Str   string
	Int   int64
	Elems []Reply
}

func Status(s string) Reply { return Reply{Kind: StatusReply, Str: s} }

func Bulk(s string) Reply { return Reply{Kind: BulkReply, Str: s} }

func Nil() Reply { return Reply{Kind: NilReply} }

func Integer(n int64) Reply { return Reply{Kind: IntegerReply, Int: n} }

func Array(elems ...Reply) Reply { return Reply{Kind: ArrayReply, Elems: elems} }

// OK is the conventional status reply of a successful write.
func OK() Reply { return Status("OK") }

// Strings builds an array of bulk strings.
func Strings(ss []string) Reply {
	elems := make([]Reply, len(ss))
	for i, s := range ss {
		elems[i] = Bulk(s)
	}
	return Array(elems...)
}

// BulkOrNil returns a bulk reply when found, a nil reply otherwise.
func BulkOrNil(s string, found bool) Reply {
	if !found {
		return Nil()
	}
	return Bulk(s)
}

// Bool renders a flag as the integers 1 and 0.
func Bool(b bool) Reply {
	if b {
		return Integer(1)
	}
	return Integer(0)
}
