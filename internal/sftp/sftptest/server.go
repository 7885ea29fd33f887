// Package sftptest provides an in-memory SFTP server for tests.
package sftptest

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	pkgsftp "github.com/pkg/sftp"

	"github.com/charlesng35/sftpdrive/internal/sftp"
)

// Server serves a single in-memory filesystem to every session dialed through it.
// It implements sftp.Dialer so it can stand in for a real SSH dialer.
type Server struct {
	handlers pkgsftp.Handlers

	mu      sync.Mutex
	conns   []net.Conn
	dialErr error

	dials atomic.Int64
}

// NewServer starts an empty in-memory filesystem and closes every live session on test cleanup.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{handlers: pkgsftp.InMemHandler()}
	tb.Cleanup(s.DropSessions)
	return s
}

// Dial opens a new session over an in-process pipe.
func (s *Server) Dial(ctx context.Context, _ sftp.Options) (sftp.Session, error) {
	s.dials.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	dialErr := s.dialErr
	s.mu.Unlock()
	if dialErr != nil {
		return nil, dialErr
	}

	serverConn, clientConn := net.Pipe()
	server := pkgsftp.NewRequestServer(serverConn, s.handlers)
	go func() {
		_ = server.Serve()
		_ = server.Close()
	}()

	client, err := pkgsftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		_ = clientConn.Close()
		_ = serverConn.Close()
		return nil, err
	}

	s.mu.Lock()
	s.conns = append(s.conns, serverConn)
	s.mu.Unlock()

	return sftp.NewSession(client, clientConn), nil
}

// Dials reports how many dial attempts were made.
func (s *Server) Dials() int {
	return int(s.dials.Load())
}

// FailDials makes subsequent dials return err. A nil err restores normal dialing.
func (s *Server) FailDials(err error) {
	s.mu.Lock()
	s.dialErr = err
	s.mu.Unlock()
}

// DropSessions severs every live session from the server side without notifying clients.
func (s *Server) DropSessions() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
