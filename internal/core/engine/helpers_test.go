package engine

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"testing"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/storage/memory"
)

func newTestEngine(opts ...Option) (*Engine, *memory.Store) {
	store := memory.New()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(store, opts...), store
}

func cmd(args ...string) domain.Command {
	tokens := make([][]byte, len(args))
	for i, a := range args {
		tokens[i] = []byte(a)
	}
	c, _ := domain.NewCommand(tokens)
	return c
}

// do runs one command through a fresh session.
func do(e *Engine, args ...string) domain.Reply {
	return e.NewSession("test").Dispatch(context.Background(), cmd(args...))
}

func assertReply(t *testing.T, got, want domain.Reply) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reply = %s, want %s", formatReply(got), formatReply(want))
	}
}

func assertError(t *testing.T, got domain.Reply, want string) {
	t.Helper()
	if !got.IsError() {
		t.Fatalf("reply = %s, want error %q", formatReply(got), want)
	}
	if got.Str != want {
		t.Errorf("error = %q, want %q", got.Str, want)
	}
}

func formatReply(r domain.Reply) string {
	switch r.Kind {
	case domain.ReplyStatus:
		return "+" + r.Str
	case domain.ReplyError:
		return "-" + r.Str
	case domain.ReplyInteger:
		return ":" + strconv.FormatInt(r.Int, 10)
	case domain.ReplyBulk:
		if r.Null {
			return "(nil)"
		}
		return `"` + r.Str + `"`
	case domain.ReplyArray:
		if r.Null {
			return "(nil array)"
		}
		out := "["
		for i, item := range r.Array {
			if i > 0 {
				out += " "
			}
			out += formatReply(item)
		}
		return out + "]"
	}
	return "?"
}

func bulks(values ...string) domain.Reply {
	return domain.BulkArray(values)
}
