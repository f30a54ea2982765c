package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// RawFormatter renders replies the way redis-cli does in a terminal:
// quoted bulk strings, "(integer) n", "(nil)", "(error) msg" and numbered
// array items, nested arrays indented under their index.
type RawFormatter struct{}

// Format writes the reply followed by a newline.
func (f *RawFormatter) Format(w io.Writer, reply domain.Reply) error {
	bw := bufio.NewWriter(w)
	writeRaw(bw, reply, 0)
	return bw.Flush()
}

func writeRaw(w *bufio.Writer, r domain.Reply, indent int) {
	if r.Null {
		w.WriteString("(nil)\n")
		return
	}
	switch r.Kind {
	case domain.ReplyStatus:
		w.WriteString(r.Str)
		w.WriteByte('\n')
	case domain.ReplyBulk:
		w.WriteString(strconv.Quote(r.Str))
		w.WriteByte('\n')
	case domain.ReplyInteger:
		fmt.Fprintf(w, "(integer) %d\n", r.Int)
	case domain.ReplyError:
		fmt.Fprintf(w, "(error) %s\n", r.Str)
	case domain.ReplyArray:
		if len(r.Array) == 0 {
			w.WriteString("(empty array)\n")
			return
		}
		width := len(strconv.Itoa(len(r.Array)))
		for i, item := range r.Array {
			if i > 0 {
				w.WriteString(strings.Repeat(" ", indent))
			}
			label := fmt.Sprintf("%*d) ", width, i+1)
			w.WriteString(label)
			writeRaw(w, item, indent+len(label))
		}
	}
}
