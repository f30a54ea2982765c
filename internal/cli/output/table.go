package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// TableFormatter renders array replies as aligned columns. Stream entries
// get ID and FIELDS columns, XREAD results an extra STREAM column, any
// other array an index column. Scalars print as a single line.
type TableFormatter struct {
	NoHeaders bool
}

// Format writes the reply as a table.
func (f *TableFormatter) Format(w io.Writer, reply domain.Reply) error {
	if reply.Kind != domain.ReplyArray || reply.Null || len(reply.Array) == 0 {
		_, err := fmt.Fprintln(w, inline(reply))
		return err
	}
	return toTable(reply).RenderWithOptions(w, f.NoHeaders)
}

func toTable(r domain.Reply) *Table {
	switch {
	case isStreamResult(r):
		t := &Table{Headers: []string{"STREAM", "ID", "FIELDS"}}
		for _, s := range r.Array {
			for _, e := range s.Array[1].Array {
				t.AddRow(s.Array[0].Str, e.Array[0].Str, fields(e.Array[1]))
			}
		}
		return t
	case isEntries(r):
		t := &Table{Headers: []string{"ID", "FIELDS"}}
		for _, e := range r.Array {
			t.AddRow(e.Array[0].Str, fields(e.Array[1]))
		}
		return t
	default:
		t := &Table{Headers: []string{"#", "VALUE"}}
		for i, item := range r.Array {
			t.AddRow(strconv.Itoa(i+1), inline(item))
		}
		return t
	}
}

// isEntry matches [id, [field, value, ...]].
func isEntry(r domain.Reply) bool {
	return r.Kind == domain.ReplyArray && len(r.Array) == 2 &&
		r.Array[0].Kind == domain.ReplyBulk &&
		r.Array[1].Kind == domain.ReplyArray && len(r.Array[1].Array)%2 == 0
}

func isEntries(r domain.Reply) bool {
	for _, e := range r.Array {
		if !isEntry(e) {
			return false
		}
	}
	return true
}

// isStreamResult matches [[key, [entry, ...]], ...] as returned by XREAD.
func isStreamResult(r domain.Reply) bool {
	for _, s := range r.Array {
		if s.Kind != domain.ReplyArray || len(s.Array) != 2 || s.Array[0].Kind != domain.ReplyBulk {
			return false
		}
		entries := s.Array[1]
		if entries.Kind != domain.ReplyArray || len(entries.Array) == 0 || !isEntries(entries) {
			return false
		}
	}
	return true
}

func fields(kv domain.Reply) string {
	parts := make([]string, 0, len(kv.Array)/2)
	for i := 0; i+1 < len(kv.Array); i += 2 {
		parts = append(parts, kv.Array[i].Str+"="+kv.Array[i+1].Str)
	}
	return strings.Join(parts, " ")
}

// inline renders a reply on one line.
func inline(r domain.Reply) string {
	if r.Null {
		return "(nil)"
	}
	switch r.Kind {
	case domain.ReplyInteger:
		return strconv.FormatInt(r.Int, 10)
	case domain.ReplyError:
		return "(error) " + r.Str
	case domain.ReplyArray:
		parts := make([]string, len(r.Array))
		for i, item := range r.Array {
			parts[i] = inline(item)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return r.Str
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table, optionally without the header row.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
