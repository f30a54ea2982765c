package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// ============================================================
// ReadCommand Tests - Array Format
// ============================================================

func TestReadCommand_Array(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple PING command",
			input: "*1\r\n$4\r\nPING\r\n",
			want:  []string{"PING"},
		},
		{
			name:  "GET command",
			input: "*2\r\n$3\r\nGET\r\n$6\r\nmykey1\r\n",
			want:  []string{"GET", "mykey1"},
		},
		{
			name:  "XADD with fields",
			input: "*5\r\n$4\r\nXADD\r\n$1\r\ns\r\n$3\r\n1-1\r\n$1\r\nf\r\n$1\r\nv\r\n",
			want:  []string{"XADD", "s", "1-1", "f", "v"},
		},
		{
			name:  "binary safe value",
			input: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$4\r\na\r\nb\r\n",
			want:  []string{"SET", "k", "a\r\nb"},
		},
		{
			name:  "empty bulk",
			input: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n",
			want:  []string{"SET", "k", ""},
		},
		{
			name:  "empty array",
			input: "*0\r\n",
			want:  nil,
		},
		{
			name:  "null array",
			input: "*-1\r\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))
			got, err := ReadCommand(r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if string(got[i]) != want {
					t.Errorf("arg[%d] = %q, want %q", i, string(got[i]), want)
				}
			}
		})
	}
}

// ============================================================
// ReadCommand Tests - Inline Format
// ============================================================

func TestReadCommand_Inline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single word", "PING\r\n", []string{"PING"}},
		{"with args", "SET k v\r\n", []string{"SET", "k", "v"}},
		{"extra spaces", "  LPUSH   l  a \r\n", []string{"LPUSH", "l", "a"}},
		{"blank line", "\r\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCommand(bufio.NewReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if string(got[i]) != want {
					t.Errorf("arg[%d] = %q, want %q", i, string(got[i]), want)
				}
			}
		})
	}
}

func TestReadCommand_Pipeline(t *testing.T) {
	input := "*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\nECHO hi\r\n"
	r := bufio.NewReader(strings.NewReader(input))

	want := [][]string{{"PING"}, {"GET", "k"}, {"ECHO", "hi"}}
	for i, w := range want {
		got, err := ReadCommand(r)
		if err != nil {
			t.Fatalf("command %d: unexpected error: %v", i, err)
		}
		if len(got) != len(w) || string(got[0]) != w[0] {
			t.Errorf("command %d = %q, want %q", i, got, w)
		}
	}
}

func TestReadCommand_Limits(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array length", "*999999999\r\n"},
		{"bulk length", "*1\r\n$999999999\r\n"},
		{"inline length", strings.Repeat("A", MaxInlineLen+10) + "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCommand(bufio.NewReader(strings.NewReader(tt.input)))
			if !errors.Is(err, ErrLimitExceeded) {
				t.Errorf("error = %v, want ErrLimitExceeded", err)
			}
		})
	}
}

func TestReadCommand_InvalidProtocol(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad array length", "*abc\r\n"},
		{"missing bulk marker", "*1\r\n:1\r\n"},
		{"negative bulk length", "*1\r\n$-1\r\n"},
		{"missing bulk terminator", "*1\r\n$4\r\nPINGxx"},
		{"missing CRLF", "*1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCommand(bufio.NewReader(strings.NewReader(tt.input)))
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("error = %v, want ErrProtocol", err)
			}
		})
	}
}

// ============================================================
// Reply encoding
// ============================================================

func encode(t *testing.T, r domain.Reply) string {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := WriteReply(w, r); err != nil {
		t.Fatalf("WriteReply() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	return buf.String()
}

func TestWriteReply(t *testing.T) {
	tests := []struct {
		name  string
		reply domain.Reply
		want  string
	}{
		{"status", domain.ReplyOK, "+OK\r\n"},
		{"error", domain.ErrorReply(domain.ErrWrongType), "-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"},
		{"integer", domain.Integer(-42), ":-42\r\n"},
		{"bulk", domain.Bulk("hello"), "$5\r\nhello\r\n"},
		{"empty bulk", domain.Bulk(""), "$0\r\n\r\n"},
		{"null bulk", domain.NullBulk(), "$-1\r\n"},
		{"empty array", domain.Array(), "*0\r\n"},
		{"null array", domain.NullArray(), "*-1\r\n"},
		{
			name:  "nested array",
			reply: domain.Array(domain.Bulk("1-1"), domain.Array(domain.Bulk("f"), domain.Bulk("v"))),
			want:  "*2\r\n$3\r\n1-1\r\n*2\r\n$1\r\nf\r\n$1\r\nv\r\n",
		},
		{
			name:  "mixed array",
			reply: domain.Array(domain.ReplyOK, domain.Integer(1), domain.NullBulk()),
			want:  "*3\r\n+OK\r\n:1\r\n$-1\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.reply); got != tt.want {
				t.Errorf("WriteReply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteReply_UnknownKind(t *testing.T) {
	w := bufio.NewWriter(&bytes.Buffer{})
	if err := WriteReply(w, domain.Reply{}); !errors.Is(err, ErrProtocol) {
		t.Errorf("WriteReply() error = %v, want ErrProtocol", err)
	}
}

func TestWriteCommand(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := WriteCommand(w, []string{"SET", "k", "v"}); err != nil {
		t.Fatalf("WriteCommand() error = %v", err)
	}
	_ = w.Flush()

	want := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"
	if buf.String() != want {
		t.Errorf("WriteCommand() = %q, want %q", buf.String(), want)
	}

	// The server side must read back what the client side wrote.
	got, err := ReadCommand(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadCommand() error = %v", err)
	}
	if len(got) != 3 || string(got[2]) != "v" {
		t.Errorf("ReadCommand() = %q", got)
	}
}

func TestReadReply(t *testing.T) {
	replies := []domain.Reply{
		domain.ReplyPong,
		domain.ErrorReply(domain.ErrSyntax),
		domain.Integer(7),
		domain.Bulk("value"),
		domain.NullBulk(),
		domain.NullArray(),
		domain.Array(
			domain.Array(domain.Bulk("stream"), domain.EntriesReply([]domain.StreamEntry{
				{ID: domain.EntryID{Ms: 1, Seq: 2}, Fields: domain.NewFields("a", "b")},
			})),
		),
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, r := range replies {
		if err := WriteReply(w, r); err != nil {
			t.Fatalf("WriteReply() error = %v", err)
		}
	}
	_ = w.Flush()

	r := bufio.NewReader(&buf)
	for i, want := range replies {
		got, err := ReadReply(r)
		if err != nil {
			t.Fatalf("reply %d: ReadReply() error = %v", i, err)
		}
		if encode(t, got) != encode(t, want) {
			t.Errorf("reply %d = %q, want %q", i, encode(t, got), encode(t, want))
		}
	}
}

func TestReadReply_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type", "?x\r\n"},
		{"bad integer", ":abc\r\n"},
		{"empty line", "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadReply(bufio.NewReader(strings.NewReader(tt.input)))
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("ReadReply() error = %v, want ErrProtocol", err)
			}
		})
	}
}

func TestReadReply_DepthLimit(t *testing.T) {
	input := strings.Repeat("*1\r\n", maxReplyDepth+2) + ":1\r\n"
	_, err := ReadReply(bufio.NewReader(strings.NewReader(input)))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("ReadReply() error = %v, want ErrLimitExceeded", err)
	}
}
