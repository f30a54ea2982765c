// Package domain defines the core domain models for keymesh.
package domain

import "time"

// Kind identifies the variant held by a Value.
type Kind uint8

// Value variants.
const (
	KindNone Kind = iota
	KindString
	KindList
	KindStream
)

// String returns the protocol type name reported by TYPE.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// Value is a tagged union over the supported payloads.
//
// Exactly one payload field is meaningful, selected by kind. The kind is
// fixed for the life of the Value; overwriting a key with a different
// variant replaces the whole Value.
type Value struct {
	kind   Kind
	str    string
	list   *List
	stream *Stream

	// ExpiresAt is the absolute expiration timestamp (Unix milliseconds).
	// Zero means the value never expires.
	ExpiresAt int64
}

// NewString creates a string value.
func NewString(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// NewList creates a list value holding the given elements in order.
func NewList(elems ...string) *Value {
	l := &List{}
	for _, e := range elems {
		l.PushBack(e)
	}
	return &Value{kind: KindList, list: l}
}

// NewStream creates an empty stream value.
func NewStream() *Value {
	return &Value{kind: KindStream, stream: newStream()}
}

// Kind returns the variant of the value. A nil Value reports KindNone.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNone
	}
	return v.kind
}

// Str returns the string payload, or ErrWrongType for other variants.
func (v *Value) Str() (string, error) {
	if v.kind != KindString {
		return "", ErrWrongType
	}
	return v.str, nil
}

// SetStr replaces the string payload in place.
func (v *Value) SetStr(s string) error {
	if v.kind != KindString {
		return ErrWrongType
	}
	v.str = s
	return nil
}

// List returns the list payload, or ErrWrongType for other variants.
func (v *Value) List() (*List, error) {
	if v.kind != KindList {
		return nil, ErrWrongType
	}
	return v.list, nil
}

// Stream returns the stream payload, or ErrWrongType for other variants.
func (v *Value) Stream() (*Stream, error) {
	if v.kind != KindStream {
		return nil, ErrWrongType
	}
	return v.stream, nil
}

// IsExpired reports whether the value is past its expiry at now.
func (v *Value) IsExpired(now time.Time) bool {
	return v.ExpiresAt > 0 && now.UnixMilli() >= v.ExpiresAt
}

// SetExpiry sets the absolute expiry. A zero time clears it.
func (v *Value) SetExpiry(at time.Time) {
	if at.IsZero() {
		v.ExpiresAt = 0
		return
	}
	v.ExpiresAt = at.UnixMilli()
}

// TTL returns the remaining time to live at now and whether an expiry is set.
func (v *Value) TTL(now time.Time) (time.Duration, bool) {
	if v.ExpiresAt == 0 {
		return 0, false
	}
	remaining := time.Duration(v.ExpiresAt-now.UnixMilli()) * time.Millisecond
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Clone creates a deep copy of the value.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := &Value{
		kind:      v.kind,
		str:       v.str,
		ExpiresAt: v.ExpiresAt,
	}
	if v.list != nil {
		c.list = v.list.clone()
	}
	if v.stream != nil {
		c.stream = v.stream.clone()
	}
	return c
}
