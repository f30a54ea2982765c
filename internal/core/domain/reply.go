// Package domain defines the core domain models for keymesh.
package domain

import "errors"

// ReplyKind identifies the variant held by a Reply.
type ReplyKind uint8

// Reply variants.
const (
	ReplyStatus ReplyKind = iota + 1
	ReplyBulk
	ReplyInteger
	ReplyArray
	ReplyError
)

// Reply is the abstract response of one command.
//
// The protocol adapter maps it to RESP: Status to "+", Bulk to "$" (Null to
// "$-1"), Integer to ":", Array to "*" (Null to "*-1") and Error to "-".
type Reply struct {
	Kind  ReplyKind
	Str   string
	Int   int64
	Array []Reply
	Null  bool
}

// Common replies.
var (
	ReplyOK     = Status("OK")
	ReplyQueued = Status("QUEUED")
	ReplyPong   = Status("PONG")
)

// Status returns a status reply.
func Status(s string) Reply {
	return Reply{Kind: ReplyStatus, Str: s}
}

// Bulk returns a bulk string reply.
func Bulk(s string) Reply {
	return Reply{Kind: ReplyBulk, Str: s}
}

// NullBulk returns the nil bulk reply.
func NullBulk() Reply {
	return Reply{Kind: ReplyBulk, Null: true}
}

// Integer returns an integer reply.
func Integer(n int64) Reply {
	return Reply{Kind: ReplyInteger, Int: n}
}

// Array returns an array reply. A nil items slice still encodes as an empty
// array; use NullArray for the nil array.
func Array(items ...Reply) Reply {
	if items == nil {
		items = []Reply{}
	}
	return Reply{Kind: ReplyArray, Array: items}
}

// NullArray returns the nil array reply.
func NullArray() Reply {
	return Reply{Kind: ReplyArray, Null: true}
}

// BulkArray returns an array of bulk strings.
func BulkArray(values []string) Reply {
	items := make([]Reply, len(values))
	for i, v := range values {
		items[i] = Bulk(v)
	}
	return Array(items...)
}

// ErrorReply converts err into an error reply.
// DomainErrors keep their RESP prefix; other errors are reported as ERR.
func ErrorReply(err error) Reply {
	var de *DomainError
	if errors.As(err, &de) {
		return Reply{Kind: ReplyError, Str: de.RESP()}
	}
	return Reply{Kind: ReplyError, Str: PrefixErr + " " + err.Error()}
}

// IsError reports whether r is an error reply.
func (r Reply) IsError() bool {
	return r.Kind == ReplyError
}

// EntryReply renders a stream entry as [id, [field, value, ...]].
func EntryReply(e StreamEntry) Reply {
	kv := make([]Reply, 0, len(e.Fields)*2)
	for _, f := range e.Fields {
		kv = append(kv, Bulk(f.Name), Bulk(f.Value))
	}
	return Array(Bulk(e.ID.String()), Array(kv...))
}

// EntriesReply renders stream entries in order.
func EntriesReply(entries []StreamEntry) Reply {
	items := make([]Reply, len(entries))
	for i, e := range entries {
		items[i] = EntryReply(e)
	}
	return Array(items...)
}
