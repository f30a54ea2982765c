package output

import (
	"fmt"
	"io"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// Format represents the output format.
type Format string

const (
	FormatRaw   Format = "raw"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatRaw, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want raw, table, json or yaml)", s)
}

// Formatter writes one command reply.
type Formatter interface {
	Format(w io.Writer, reply domain.Reply) error
}

// NewFormatter creates a formatter for the given format. Unknown formats
// fall back to raw.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &RawFormatter{}
	}
}

// ToValue converts a reply into plain Go values for structured encoders:
// status and bulk become strings, integers int64, null nil, arrays []any
// and errors map[string]string{"error": msg}.
func ToValue(r domain.Reply) any {
	if r.Null {
		return nil
	}
	switch r.Kind {
	case domain.ReplyStatus, domain.ReplyBulk:
		return r.Str
	case domain.ReplyInteger:
		return r.Int
	case domain.ReplyError:
		return map[string]string{"error": r.Str}
	case domain.ReplyArray:
		items := make([]any, len(r.Array))
		for i, item := range r.Array {
			items[i] = ToValue(item)
		}
		return items
	default:
		return nil
	}
}
