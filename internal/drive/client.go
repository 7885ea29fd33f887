// Package drive implements a remote file store on top of a single, lazily-established
// SFTP session.
package drive

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/internal/sftp"
	"github.com/charlesng35/sftpdrive/pkg/logger"
	"github.com/charlesng35/sftpdrive/pkg/metrics"
)

const (
	opConnect    = "connect"
	opDisconnect = "disconnect"
)

// Client performs file operations against one remote server.
//
// A Client owns at most one session. Every operation probes the session before use and
// dials a new one when the probe fails, since the transport may drop silently. The
// probe-then-connect sequence is serialized, so concurrent callers never race to dial.
// Operations themselves run concurrently over the shared session.
type Client struct {
	id     string
	config ConnectionConfig
	dialer sftp.Dialer
	log    *zap.Logger

	mu       sync.Mutex
	session  sftp.Session
	lastUsed time.Time
	inflight int
	now      func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithDialer replaces the SSH dialer used to open sessions.
func WithDialer(dialer sftp.Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithLogger sets the logger used for connection and failure events.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New validates cfg and returns a disconnected client.
func New(cfg ConnectionConfig, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		id:     uuid.NewString(),
		config: cfg,
		dialer: sftp.NewSSHDialer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.log == nil {
		c.log = logger.WithModule("drive")
	}
	c.log = c.log.With(zap.String("client_id", c.id), zap.String("addr", c.address()))

	return c, nil
}

// ID returns the identifier attached to this client's log entries.
func (c *Client) ID() string {
	return c.id
}

// Config returns the connection settings the client was built with.
func (c *Client) Config() ConnectionConfig {
	return c.config
}

// Connect opens a new session, replacing any session already held.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Disconnect closes the current session. It is a no-op when no session is open.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	if err := c.closeLocked(); err != nil {
		return newError(KindConnection, opDisconnect, c.address(), err)
	}
	c.log.Info("sftp session closed")
	return nil
}

// IsConnected probes the session with a round-trip request.
// It returns false when ctx is done, no session is held or the probe fails for any reason.
func (c *Client) IsConnected(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aliveLocked()
}

// CloseIdle closes the session when no operation is running and none has started for
// at least idle. It reports whether a session was closed.
func (c *Client) CloseIdle(idle time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.inflight > 0 {
		return false, nil
	}
	unused := c.now().Sub(c.lastUsed)
	if unused < idle {
		return false, nil
	}
	if err := c.closeLocked(); err != nil {
		return true, newError(KindConnection, opDisconnect, c.address(), err)
	}
	c.log.Info("sftp session closed after idle period", zap.Duration("idle", unused))
	return true, nil
}

// ensureConnected returns a live session, dialing a new one if the current one is gone.
// The caller must invoke release once it stops using the session.
func (c *Client) ensureConnected(ctx context.Context) (sftp.Session, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, newError(KindConnection, opConnect, c.address(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The context may have ended while waiting for the lock. The shared session must not
	// be replaced on its behalf.
	if err := ctx.Err(); err != nil {
		return nil, nil, newError(KindConnection, opConnect, c.address(), err)
	}

	if !c.aliveLocked() {
		if c.session != nil {
			c.log.Info("sftp session lost; reconnecting")
		}
		if err := c.connectLocked(ctx); err != nil {
			return nil, nil, err
		}
	}

	c.inflight++
	c.lastUsed = c.now()
	return c.session, c.release, nil
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.lastUsed = c.now()
}

func (c *Client) aliveLocked() bool {
	if c.session == nil {
		return false
	}
	_, err := c.session.Getwd()
	return err == nil
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.session != nil {
		if err := c.closeLocked(); err != nil {
			c.log.Debug("closing stale sftp session", zap.Error(err))
		}
	}

	session, err := c.dialer.Dial(ctx, c.config.dialOptions())
	if err != nil {
		metrics.DriveConnects.WithLabelValues("failure").Inc()
		c.log.Warn("sftp connect failed", zap.Error(err))
		return newError(KindConnection, opConnect, c.address(), err)
	}

	metrics.DriveConnects.WithLabelValues("success").Inc()
	metrics.ActiveSessions.Inc()
	c.session = session
	c.lastUsed = c.now()
	c.log.Info("sftp session established", zap.String("username", c.config.Username))
	return nil
}

func (c *Client) closeLocked() error {
	session := c.session
	c.session = nil
	metrics.ActiveSessions.Dec()
	return session.Close()
}

func (c *Client) address() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}
