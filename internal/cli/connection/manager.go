package connection

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
)

// Manager owns the CLI's current server connection.
type Manager struct {
	addr     string
	timeout  time.Duration
	dialOpts []DialOption
	client   *Client
}

// NewManager creates a manager for addr. Nothing is dialed until the first
// command.
func NewManager(addr string, timeout time.Duration, opts ...DialOption) *Manager {
	return &Manager{addr: addr, timeout: timeout, dialOpts: opts}
}

// Addr returns the server address commands are sent to.
func (m *Manager) Addr() string {
	return m.addr
}

// Connect switches to addr, closing any current connection.
func (m *Manager) Connect(ctx context.Context, addr string) error {
	c, err := Dial(ctx, addr, m.timeout, m.dialOpts...)
	if err != nil {
		return err
	}
	m.Close()
	m.addr = addr
	m.client = c
	return nil
}

// IsConnected reports whether a connection is open.
func (m *Manager) IsConnected() bool {
	return m.client != nil
}

// Do runs one command, dialing first if needed. A connection that broke
// since the last command is redialed once.
func (m *Manager) Do(ctx context.Context, args ...string) (domain.Reply, error) {
	if m.client == nil {
		if err := m.Connect(ctx, m.addr); err != nil {
			return domain.Reply{}, err
		}
	}

	reply, err := m.client.Do(ctx, args...)
	if err != nil && isBroken(err) && ctx.Err() == nil {
		m.Close()
		if err := m.Connect(ctx, m.addr); err != nil {
			return domain.Reply{}, err
		}
		return m.client.Do(ctx, args...)
	}
	if err != nil {
		// The stream position is unknown after a failed exchange.
		m.Close()
	}
	return reply, err
}

// Close closes the current connection, if any.
func (m *Manager) Close() {
	if m.client != nil {
		_ = m.client.Close()
		m.client = nil
	}
}

func isBroken(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && !opErr.Timeout()
}
