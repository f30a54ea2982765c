package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// YAMLFormatter formats replies as YAML documents.
type YAMLFormatter struct{}

// Format writes ToValue(reply) as YAML.
func (f *YAMLFormatter) Format(w io.Writer, reply domain.Reply) error {
	return EncodeYAML(w, ToValue(reply))
}

// EncodeYAML writes v as a YAML document.
func EncodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
