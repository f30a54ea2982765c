package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of elements in a request array.
	// XADD with many fields is the widest command we accept.
	MaxArrayLen = 64 * 1024

	// MaxBulkLen limits the size of a single bulk string (8MB).
	MaxBulkLen = 8 * 1024 * 1024

	// MaxInlineLen limits inline command line length (64KB).
	MaxInlineLen = 64 * 1024

	// maxReplyDepth bounds nested arrays read by ReadReply.
	maxReplyDepth = 16
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReadCommand reads one request, either a RESP array of bulk strings or an
// inline command line. An empty request yields a nil slice and no error.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}

	if b[0] == '*' {
		return readArrayCommand(r)
	}

	// Inline command, as typed into telnet: "PING\r\n".
	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		out = append(out, []byte(p))
	}
	return out, nil
}

func readArrayCommand(r *bufio.Reader) ([][]byte, error) {
	n, err := readLength(r, '*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulkString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

// readLength reads a "<prefix><n>\r\n" header.
func readLength(r *bufio.Reader, prefix byte) (int, error) {
	line, err := readLine(r, 64)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c'", ErrProtocol, prefix)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length", ErrProtocol)
	}
	return n, nil
}

func readBulkString(r *bufio.Reader) ([]byte, error) {
	n, err := readLength(r, '$')
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	return readBulkBody(r, n)
}

func readBulkBody(r *bufio.Reader, n int) ([]byte, error) {
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return buf[:n], nil
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + s + "\r\n")
	return err
}

func WriteError(w *bufio.Writer, s string) error {
	_, err := w.WriteString("-" + s + "\r\n")
	return err
}

func WriteInteger(w *bufio.Writer, n int64) error {
	_, err := w.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteNullArray(w *bufio.Writer) error {
	_, err := w.WriteString("*-1\r\n")
	return err
}

func WriteBulkString(w *bufio.Writer, s string) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(s)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// WriteReply encodes r. The caller flushes w.
func WriteReply(w *bufio.Writer, r domain.Reply) error {
	switch r.Kind {
	case domain.ReplyStatus:
		return WriteSimpleString(w, r.Str)
	case domain.ReplyError:
		return WriteError(w, r.Str)
	case domain.ReplyInteger:
		return WriteInteger(w, r.Int)
	case domain.ReplyBulk:
		if r.Null {
			return WriteNullBulk(w)
		}
		return WriteBulkString(w, r.Str)
	case domain.ReplyArray:
		if r.Null {
			return WriteNullArray(w)
		}
		if err := WriteArrayHeader(w, len(r.Array)); err != nil {
			return err
		}
		for _, item := range r.Array {
			if err := WriteReply(w, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown reply kind %d", ErrProtocol, r.Kind)
	}
}

// WriteCommand encodes args as a RESP array of bulk strings.
func WriteCommand(w *bufio.Writer, args []string) error {
	if err := WriteArrayHeader(w, len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if err := WriteBulkString(w, a); err != nil {
			return err
		}
	}
	return nil
}

// ReadReply decodes one server reply.
func ReadReply(r *bufio.Reader) (domain.Reply, error) {
	return readReply(r, 0)
}

func readReply(r *bufio.Reader, depth int) (domain.Reply, error) {
	if depth > maxReplyDepth {
		return domain.Reply{}, fmt.Errorf("%w: reply nesting exceeds %d", ErrLimitExceeded, maxReplyDepth)
	}
	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return domain.Reply{}, err
	}
	if line == "" {
		return domain.Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	body := line[1:]
	switch line[0] {
	case '+':
		return domain.Status(body), nil
	case '-':
		return domain.Reply{Kind: domain.ReplyError, Str: body}, nil
	case ':':
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return domain.Reply{}, fmt.Errorf("%w: invalid integer", ErrProtocol)
		}
		return domain.Integer(n), nil
	case '$':
		n, err := strconv.Atoi(body)
		if err != nil {
			return domain.Reply{}, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
		}
		if n < 0 {
			return domain.NullBulk(), nil
		}
		b, err := readBulkBody(r, n)
		if err != nil {
			return domain.Reply{}, err
		}
		return domain.Bulk(string(b)), nil
	case '*':
		n, err := strconv.Atoi(body)
		if err != nil {
			return domain.Reply{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
		}
		if n < 0 {
			return domain.NullArray(), nil
		}
		if n > MaxArrayLen {
			return domain.Reply{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		items := make([]domain.Reply, 0, n)
		for i := 0; i < n; i++ {
			item, err := readReply(r, depth+1)
			if err != nil {
				return domain.Reply{}, err
			}
			items = append(items, item)
		}
		return domain.Array(items...), nil
	default:
		return domain.Reply{}, fmt.Errorf("%w: unexpected reply type %q", ErrProtocol, line[0])
	}
}
