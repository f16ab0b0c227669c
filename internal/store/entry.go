package store

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags the type of value held by a key.
type Kind uint8

const (
	// KindAny matches every kind when passed to Read.
	KindAny Kind = iota
	KindString
	KindHash
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Value is the payload stored under a key. The set of implementations is
// closed: String, *Hash and *List.
type Value interface {
	Kind() Kind
	clone() Value
}

// String is an opaque text value. The store never interprets it.
type String string

func (String) Kind() Kind { return KindString }

func (s String) clone() Value { return s }

// Hash maps field names to values. Iteration follows the order in which the
// surviving fields were first inserted; overwriting a field keeps its place.
type Hash struct {
	fields *orderedmap.OrderedMap[string, string]
}

// NewHash returns an empty hash.
func NewHash() *Hash {
	return &Hash{fields: orderedmap.New[string, string]()}
}

func (*Hash) Kind() Kind { return KindHash }

func (h *Hash) clone() Value {
	c := NewHash()
	for p := h.fields.Oldest(); p != nil; p = p.Next() {
		c.fields.Set(p.Key, p.Value)
	}
	return c
}

// Set stores value under field and reports whether the field is new.
func (h *Hash) Set(field, value string) bool {
	_, present := h.fields.Set(field, value)
	return !present
}

func (h *Hash) Get(field string) (string, bool) {
	return h.fields.Get(field)
}

// Delete removes field and reports whether it was present.
func (h *Hash) Delete(field string) bool {
	_, present := h.fields.Delete(field)
	return present
}

func (h *Hash) Len() int {
	return h.fields.Len()
}

func (h *Hash) Keys() []string {
	keys := make([]string, 0, h.fields.Len())
	for p := h.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

func (h *Hash) Values() []string {
	vals := make([]string, 0, h.fields.Len())
	for p := h.fields.Oldest(); p != nil; p = p.Next() {
		vals = append(vals, p.Value)
	}
	return vals
}

// List is an ordered sequence of values, head first.
type List struct {
	Items []string
}

func (*List) Kind() Kind { return KindList }

func (l *List) clone() Value {
	return &List{Items: append([]string(nil), l.Items...)}
}

// newValue returns the empty value of kind k.
func newValue(k Kind) Value {
	switch k {
	case KindHash:
		return NewHash()
	case KindList:
		return &List{}
	default:
		return String("")
	}
}

// Entry is the stored unit for one key.
type Entry struct {
	Key       string
	Value     Value
	ExpiresAt time.Time // zero means no expiry
}

func (e *Entry) Kind() Kind {
	return e.Value.Kind()
}

// expiredAt reports whether the entry is dead at now. An entry expires at
// the exact instant now reaches ExpiresAt.
func (e *Entry) expiredAt(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

func (e *Entry) clone() Entry {
	return Entry{Key: e.Key, Value: e.Value.clone(), ExpiresAt: e.ExpiresAt}
}
