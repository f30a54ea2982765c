package repl

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnbalancedQuotes is returned by Split for an unterminated quote.
var ErrUnbalancedQuotes = errors.New("unbalanced quotes")

// Split tokenizes a command line the way redis-cli does. Words are
// separated by whitespace. Double-quoted words understand the escapes
// \n \r \t \b \a \" \\ and \xHH; single-quoted words are literal except
// for \'. A closing quote must be followed by whitespace or the end of
// the line.
func Split(line string) ([]string, error) {
	var (
		args []string
		i    int
	)
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i == len(line) {
			return args, nil
		}

		var (
			word strings.Builder
			err  error
		)
		switch line[i] {
		case '"':
			i, err = readDouble(line, i+1, &word)
		case '\'':
			i, err = readSingle(line, i+1, &word)
		default:
			for i < len(line) && !isSpace(line[i]) {
				word.WriteByte(line[i])
				i++
			}
		}
		if err != nil {
			return nil, err
		}
		args = append(args, word.String())
	}
}

func readDouble(line string, i int, word *strings.Builder) (int, error) {
	for i < len(line) {
		c := line[i]
		switch {
		case c == '\\' && i+3 < len(line) && line[i+1] == 'x' && isHex(line[i+2]) && isHex(line[i+3]):
			b, _ := strconv.ParseUint(line[i+2:i+4], 16, 8)
			word.WriteByte(byte(b))
			i += 4
		case c == '\\' && i+1 < len(line):
			word.WriteByte(unescape(line[i+1]))
			i += 2
		case c == '"':
			return closeQuote(line, i+1)
		default:
			word.WriteByte(c)
			i++
		}
	}
	return 0, ErrUnbalancedQuotes
}

func readSingle(line string, i int, word *strings.Builder) (int, error) {
	for i < len(line) {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && line[i+1] == '\'':
			word.WriteByte('\'')
			i += 2
		case c == '\'':
			return closeQuote(line, i+1)
		default:
			word.WriteByte(c)
			i++
		}
	}
	return 0, ErrUnbalancedQuotes
}

func closeQuote(line string, i int) (int, error) {
	if i < len(line) && !isSpace(line[i]) {
		return 0, ErrUnbalancedQuotes
	}
	return i, nil
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'a':
		return '\a'
	default:
		return c
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
