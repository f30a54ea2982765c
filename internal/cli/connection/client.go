package connection

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/server/redisserver"
)

// DefaultTimeout bounds dialing and each request/reply exchange.
const DefaultTimeout = 5 * time.Second

// Client is a RESP connection to a keymesh server. It is not safe for
// concurrent use.
type Client struct {
	addr    string
	conn    net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	timeout time.Duration
}

// Network returns the dial network for addr: "unix" for paths (containing a
// slash or starting with "unix:"), "tcp" otherwise.
func Network(addr string) (network, address string) {
	if rest, ok := strings.CutPrefix(addr, "unix:"); ok {
		return "unix", rest
	}
	if strings.Contains(addr, "/") {
		return "unix", addr
	}
	return "tcp", addr
}

// DialOption configures Dial.
type DialOption func(*dialOptions)

type dialOptions struct {
	tls *tls.Config
}

// WithTLS performs a TLS handshake on TCP connections.
func WithTLS(cfg *tls.Config) DialOption {
	return func(o *dialOptions) { o.tls = cfg }
}

// Dial connects to addr. A zero timeout uses DefaultTimeout.
func Dial(ctx context.Context, addr string, timeout time.Duration, opts ...DialOption) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var o dialOptions
	for _, opt := range opts {
		opt(&o)
	}

	network, address := Network(addr)
	d := net.Dialer{Timeout: timeout}
	var conn net.Conn
	var err error
	if o.tls != nil && network == "tcp" {
		td := tls.Dialer{NetDialer: &d, Config: o.tls}
		conn, err = td.DialContext(ctx, network, address)
	} else {
		conn, err = d.DialContext(ctx, network, address)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &Client{
		addr:    addr,
		conn:    conn,
		br:      bufio.NewReader(conn),
		bw:      bufio.NewWriter(conn),
		timeout: timeout,
	}, nil
}

// Addr returns the address the client was dialed with.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one command and returns its reply. Server errors come back as a
// ReplyError reply, not as err; err reports transport failures.
//
// Blocking commands (BLPOP, XREAD BLOCK) get no read deadline other than
// the one carried by ctx.
func (c *Client) Do(ctx context.Context, args ...string) (domain.Reply, error) {
	if len(args) == 0 {
		return domain.Reply{}, errors.New("empty command")
	}

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return domain.Reply{}, err
	}
	if err := redisserver.WriteCommand(c.bw, args); err != nil {
		return domain.Reply{}, err
	}
	if err := c.bw.Flush(); err != nil {
		return domain.Reply{}, err
	}

	readDeadline := deadline
	if isBlocking(args) {
		readDeadline = time.Time{}
	}
	if d, ok := ctx.Deadline(); ok && (readDeadline.IsZero() || d.Before(readDeadline)) {
		readDeadline = d
	}
	if err := c.conn.SetReadDeadline(readDeadline); err != nil {
		return domain.Reply{}, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	reply, err := redisserver.ReadReply(c.br)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Reply{}, ctxErr
		}
		// The socket deadline can fire just before the context timer does.
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			return domain.Reply{}, context.DeadlineExceeded
		}
		return domain.Reply{}, err
	}
	return reply, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func isBlocking(args []string) bool {
	switch strings.ToUpper(args[0]) {
	case "BLPOP":
		return true
	case "XREAD":
		for _, a := range args[1:] {
			if strings.EqualFold(a, "BLOCK") {
				return true
			}
		}
	}
	return false
}
