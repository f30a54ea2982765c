// Package domain defines the core domain models for keymesh.
package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/btree"
)

// streamDegree is the B-tree degree for stream indexes.
const streamDegree = 32

// EntryID identifies a stream entry. IDs order by (Ms, Seq) numerically.
type EntryID struct {
	Ms  uint64
	Seq uint64
}

// MaxEntryID is the largest representable entry ID.
var MaxEntryID = EntryID{Ms: math.MaxUint64, Seq: math.MaxUint64}

// ParseEntryID parses the strict "<millis>-<sequence>" form.
func ParseEntryID(s string) (EntryID, error) {
	msPart, seqPart, ok := strings.Cut(s, "-")
	if !ok {
		return EntryID{}, ErrStreamIDFormat
	}
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return EntryID{}, ErrStreamIDFormat
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return EntryID{}, ErrStreamIDFormat
	}
	return EntryID{Ms: ms, Seq: seq}, nil
}

// ParseRangeStart parses an XRANGE lower bound.
// "-" is the smallest ID and a bare millisecond value means "<ms>-0".
func ParseRangeStart(s string) (EntryID, error) {
	if s == "-" {
		return EntryID{}, nil
	}
	return parseRangeBound(s, 0)
}

// ParseRangeEnd parses an XRANGE upper bound.
// "+" is the largest ID and a bare millisecond value means "<ms>-<max>".
func ParseRangeEnd(s string) (EntryID, error) {
	if s == "+" {
		return MaxEntryID, nil
	}
	return parseRangeBound(s, math.MaxUint64)
}

func parseRangeBound(s string, defaultSeq uint64) (EntryID, error) {
	if strings.Contains(s, "-") {
		return ParseEntryID(s)
	}
	ms, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return EntryID{}, ErrStreamIDFormat
	}
	return EntryID{Ms: ms, Seq: defaultSeq}, nil
}

// String returns the "<millis>-<sequence>" form.
func (id EntryID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// IsZero reports whether id is 0-0.
func (id EntryID) IsZero() bool {
	return id.Ms == 0 && id.Seq == 0
}

// Compare returns -1, 0 or +1 depending on whether id sorts before,
// equal to or after other.
func (id EntryID) Compare(other EntryID) int {
	switch {
	case id.Ms < other.Ms:
		return -1
	case id.Ms > other.Ms:
		return 1
	case id.Seq < other.Seq:
		return -1
	case id.Seq > other.Seq:
		return 1
	default:
		return 0
	}
}

// Less reports whether id sorts before other.
func (id EntryID) Less(other EntryID) bool {
	return id.Compare(other) < 0
}

// Next returns the smallest ID greater than id. ok is false at MaxEntryID.
func (id EntryID) Next() (next EntryID, ok bool) {
	switch {
	case id.Seq < math.MaxUint64:
		return EntryID{Ms: id.Ms, Seq: id.Seq + 1}, true
	case id.Ms < math.MaxUint64:
		return EntryID{Ms: id.Ms + 1}, true
	default:
		return id, false
	}
}

// Field is one name/value pair of a stream entry.
type Field struct {
	Name  string
	Value string
}

// NewFields builds an entry field list from alternating name/value pairs.
// Names are unique: a repeated name keeps its first position and takes the
// last value. A trailing unpaired element is ignored.
func NewFields(pairs ...string) []Field {
	fields := make([]Field, 0, len(pairs)/2)
	index := make(map[string]int, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, value := pairs[i], pairs[i+1]
		if pos, ok := index[name]; ok {
			fields[pos].Value = value
			continue
		}
		index[name] = len(fields)
		fields = append(fields, Field{Name: name, Value: value})
	}
	return fields
}

// StreamEntry is a stored stream entry.
type StreamEntry struct {
	ID     EntryID
	Fields []Field
}

// Stream is an ordered collection of entries with strictly increasing IDs.
//
// Stream is not safe for concurrent use; the store serializes access per key.
type Stream struct {
	tree *btree.BTreeG[StreamEntry]
	last EntryID
}

func newStream() *Stream {
	return &Stream{
		tree: btree.NewG(streamDegree, func(a, b StreamEntry) bool {
			return a.ID.Less(b.ID)
		}),
	}
}

// Len returns the number of entries.
func (s *Stream) Len() int {
	return s.tree.Len()
}

// LastID returns the top entry ID, or 0-0 for an empty stream.
func (s *Stream) LastID() EntryID {
	return s.last
}

// Validate checks that id may be appended.
func (s *Stream) Validate(id EntryID) error {
	if id.IsZero() {
		return ErrStreamIDZero
	}
	if s.tree.Len() == 0 {
		return nil
	}
	switch id.Compare(s.last) {
	case 0:
		return ErrStreamIDDuplicate
	case -1:
		return ErrStreamIDOrder
	}
	return nil
}

// Add appends an entry. The ID must be strictly greater than LastID.
func (s *Stream) Add(id EntryID, fields []Field) error {
	if err := s.Validate(id); err != nil {
		return err
	}
	s.tree.ReplaceOrInsert(StreamEntry{ID: id, Fields: fields})
	s.last = id
	return nil
}

// Range returns entries with start <= ID <= end in ID order.
// A count <= 0 means no limit.
func (s *Stream) Range(start, end EntryID, count int) []StreamEntry {
	out := make([]StreamEntry, 0)
	if end.Less(start) {
		return out
	}
	s.tree.AscendGreaterOrEqual(StreamEntry{ID: start}, func(e StreamEntry) bool {
		if end.Less(e.ID) {
			return false
		}
		out = append(out, e)
		return count <= 0 || len(out) < count
	})
	return out
}

// After returns entries with ID strictly greater than id.
// A count <= 0 means no limit.
func (s *Stream) After(id EntryID, count int) []StreamEntry {
	next, ok := id.Next()
	if !ok {
		return []StreamEntry{}
	}
	return s.Range(next, MaxEntryID, count)
}

func (s *Stream) clone() *Stream {
	return &Stream{
		tree: s.tree.Clone(),
		last: s.last,
	}
}
