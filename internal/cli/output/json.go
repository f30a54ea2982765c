package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// JSONFormatter formats replies as indented JSON.
type JSONFormatter struct{}

// Format writes ToValue(reply) as JSON.
func (f *JSONFormatter) Format(w io.Writer, reply domain.Reply) error {
	return EncodeJSON(w, ToValue(reply))
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
