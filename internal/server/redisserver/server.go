package redisserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/internal/core/engine"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

// Config holds the RESP server configuration.
type Config struct {
	// Address is the TCP listen address. Empty disables the TCP listener.
	Address string
	// UnixSocket is an optional unix socket path.
	UnixSocket string
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections that send nothing for this long.
	// Clients parked in BLPOP or XREAD are not considered idle.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per client IP.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// MaxClients caps concurrent connections. Set to 0 for no limit.
	MaxClients int
	// TLS, when set, wraps the TCP listener.
	TLS *tls.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    0,
		MaxClients:   10000,
	}
}

// ConnObserver receives connection lifecycle events.
type ConnObserver interface {
	ClientConnected()
	ClientDisconnected()
	ClientRejected(reason string)
}

type nopConnObserver struct{}

func (nopConnObserver) ClientConnected()      {}
func (nopConnObserver) ClientDisconnected()   {}
func (nopConnObserver) ClientRejected(string) {}

// Option configures the Server.
type Option func(*Server)

// WithConnObserver sets the connection lifecycle observer.
func WithConnObserver(o ConnObserver) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// Server is the RESP protocol server.
type Server struct {
	cfg      *Config
	handler  *CommandHandler
	logger   *slog.Logger
	observer ConnObserver

	clients *xsync.MapOf[string, *Conn]

	mu        sync.Mutex
	listeners []net.Listener
	group     *errgroup.Group

	// connCtx is canceled on shutdown so parked clients return.
	connCtx    context.Context
	cancelConn context.CancelFunc

	running atomic.Bool
	conns   sync.WaitGroup
}

// Conn is a single client connection.
type Conn struct {
	id        string
	netConn   net.Conn
	br        *bufio.Reader
	bw        *bufio.Writer
	session   *engine.Session
	createdAt time.Time

	closed atomic.Bool
}

func newConn(id string, c net.Conn, eng *engine.Engine) *Conn {
	return &Conn{
		id:        id,
		netConn:   c,
		br:        bufio.NewReader(c),
		bw:        bufio.NewWriter(c),
		session:   eng.NewSession(id),
		createdAt: time.Now(),
	}
}

// ID returns the connection ID.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// remoteIP returns the host part of the remote address. Unix socket peers
// share the "unix" bucket.
func (c *Conn) remoteIP() string {
	addr := c.netConn.RemoteAddr()
	if addr == nil || addr.Network() == "unix" {
		return "unix"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// ClientInfo describes a live connection.
type ClientInfo struct {
	ID         string        `json:"id"`
	RemoteAddr string        `json:"remote_addr"`
	Age        time.Duration `json:"age"`
}

// New creates a RESP server executing commands on eng.
func New(cfg *Config, eng *engine.Engine, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		observer: nopConnObserver{},
		clients:  xsync.NewMapOf[string, *Conn](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.connCtx, s.cancelConn = context.WithCancel(context.Background())
	s.handler = NewCommandHandler(eng, cfg.RateLimit, logger)
	return s
}

// Start opens the configured listeners and serves them in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Address == "" && s.cfg.UnixSocket == "" {
		s.logger.Info("redis server disabled (no address configured)")
		return nil
	}

	var lns []net.Listener
	if s.cfg.Address != "" {
		ln, err := net.Listen("tcp", s.cfg.Address)
		if err != nil {
			return fmt.Errorf("listen tcp %s: %w", s.cfg.Address, err)
		}
		if s.cfg.TLS != nil {
			ln = tls.NewListener(ln, s.cfg.TLS)
		}
		lns = append(lns, ln)
	}
	if s.cfg.UnixSocket != "" {
		// A stale socket file from an unclean exit blocks Listen.
		_ = os.Remove(s.cfg.UnixSocket)
		ln, err := net.Listen("unix", s.cfg.UnixSocket)
		if err != nil {
			for _, l := range lns {
				_ = l.Close()
			}
			return fmt.Errorf("listen unix %s: %w", s.cfg.UnixSocket, err)
		}
		lns = append(lns, ln)
	}

	return s.Serve(ctx, lns...)
}

// Serve accepts connections on the given listeners in the background.
// The server takes ownership of the listeners.
func (s *Server) Serve(ctx context.Context, lns ...net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.group != nil {
		return errors.New("redis server already started")
	}

	s.running.Store(true)
	s.listeners = lns
	g, gctx := errgroup.WithContext(ctx)
	s.group = g
	for _, ln := range lns {
		s.logger.Info("redis server listening", "network", ln.Addr().Network(), "address", ln.Addr().String())
		g.Go(func() error {
			return s.acceptLoop(gctx, ln)
		})
	}
	return nil
}

// Addrs returns the addresses of the active listeners.
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		addrs = append(addrs, ln.Addr())
	}
	return addrs
}

// ClientCount returns the number of live connections.
func (s *Server) ClientCount() int {
	return s.clients.Size()
}

// Clients returns a snapshot of live connections.
func (s *Server) Clients() []ClientInfo {
	now := time.Now()
	out := make([]ClientInfo, 0, s.clients.Size())
	s.clients.Range(func(id string, c *Conn) bool {
		out = append(out, ClientInfo{
			ID:         id,
			RemoteAddr: c.RemoteAddr().String(),
			Age:        now.Sub(c.createdAt),
		})
		return true
	})
	return out
}

// Shutdown stops accepting, wakes parked clients and waits for every
// connection handler to return. Connections still open when ctx expires
// are closed forcibly.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	lns := s.listeners
	g := s.group
	s.mu.Unlock()

	var firstErr error
	for _, ln := range lns {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) && firstErr == nil {
			firstErr = err
		}
	}

	// Parked commands reply with a cancel error; idle readers are
	// interrupted and see the canceled context.
	s.cancelConn()
	s.clients.Range(func(_ string, c *Conn) bool {
		_ = c.netConn.SetReadDeadline(time.Now())
		return true
	})

	done := make(chan error, 1)
	go func() {
		var err error
		if g != nil {
			err = g.Wait()
		}
		s.conns.Wait()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil && firstErr == nil {
			firstErr = err
		}
	case <-ctx.Done():
		s.clients.Range(func(_ string, c *Conn) bool {
			_ = c.Close()
			return true
		})
		return ctx.Err()
	}

	if s.cfg.UnixSocket != "" {
		_ = os.Remove(s.cfg.UnixSocket)
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if s.cfg.MaxClients > 0 && s.clients.Size() >= s.cfg.MaxClients {
			s.reject(c, domain.ErrMaxClients)
			continue
		}

		id, err := domain.GenerateClientID()
		if err != nil {
			s.reject(c, err)
			continue
		}
		conn := newConn(id, c, s.handler.engine)
		s.clients.Store(id, conn)
		s.observer.ClientConnected()

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			defer func() {
				s.clients.Delete(id)
				s.observer.ClientDisconnected()
			}()
			s.serveConn(s.connCtx, conn)
		}()
	}
}

func (s *Server) reject(c net.Conn, err error) {
	s.logger.Warn("connection rejected", "remote", c.RemoteAddr(), "error", err)
	s.observer.ClientRejected(domain.GetErrorCode(err))
	bw := bufio.NewWriter(c)
	_ = c.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
	_ = WriteReply(bw, domain.ErrorReply(err))
	_ = bw.Flush()
	_ = c.Close()
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.WriteTimeout > 0 {
		return s.cfg.WriteTimeout
	}
	return 30 * time.Second
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.writeTimeout()
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	ctx = logger.WithConnID(logger.WithLogger(ctx, s.logger), c.id)
	log := logger.L(ctx)
	log.Debug("client connected", "remote", c.RemoteAddr())

	for {
		// Idle timeout applies while waiting for the next command.
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(log, err)
			return
		}

		// Once a command started, it must arrive within the read timeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, io.EOF) || isTimeout(err) {
				s.logReadError(log, err)
				return
			}
			if errors.Is(err, ErrLimitExceeded) {
				log.Warn("protocol limit exceeded", "remote", c.RemoteAddr(), "error", err)
				s.writeFinal(c, "ERR protocol limit exceeded", writeTimeout)
				return
			}
			s.writeFinal(c, "ERR Protocol error: "+err.Error(), writeTimeout)
			return
		}

		cmd, ok := domain.NewCommand(args)
		if !ok {
			// Empty requests are ignored.
			continue
		}

		// A parked command must not be cut off by the read deadline.
		_ = c.netConn.SetReadDeadline(time.Time{})

		var reply domain.Reply
		var quit bool
		if mayBlock(cmd) {
			cmdCtx, cancel := context.WithCancel(ctx)
			stop := c.watchPeer(cancel)
			reply, quit = s.handler.Handle(cmdCtx, c, cmd)
			stop()
			cancel()
		} else {
			reply, quit = s.handler.Handle(ctx, c, cmd)
		}
		if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := WriteReply(c.bw, reply); err != nil {
			return
		}
		if err := c.bw.Flush(); err != nil {
			return
		}
		if quit {
			log.Debug("client quit")
			return
		}
	}
}

// mayBlock reports whether cmd can park the connection.
func mayBlock(cmd domain.Command) bool {
	switch cmd.Name {
	case "BLPOP":
		return true
	case "XREAD":
		for _, a := range cmd.Args {
			if strings.EqualFold(a, "BLOCK") {
				return true
			}
		}
	}
	return false
}

// watchPeer cancels a parked command when the peer hangs up. Bytes the
// client pipelines meanwhile stay buffered for the next read. The returned
// stop func interrupts the watch and waits for it to exit.
func (c *Conn) watchPeer(cancel context.CancelFunc) (stop func()) {
	var stopping atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.br.Peek(1); err != nil && !stopping.Load() {
			cancel()
		}
	}()
	return func() {
		stopping.Store(true)
		_ = c.netConn.SetReadDeadline(time.Now())
		<-done
	}
}

func (s *Server) writeFinal(c *Conn, msg string, writeTimeout time.Duration) {
	_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = WriteError(c.bw, msg)
	_ = c.bw.Flush()
}

func (s *Server) logReadError(log *slog.Logger, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		log.Debug("client disconnected")
	case isTimeout(err):
		log.Debug("connection timed out")
	default:
		log.Debug("connection read error", "error", err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
