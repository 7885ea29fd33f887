package sftptest

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"

	pkgsftp "github.com/pkg/sftp"
	gossh "golang.org/x/crypto/ssh"
)

// Credentials configures which logins the SSH server accepts. Either field may be empty.
type Credentials struct {
	Username      string
	Password      string
	AuthorizedKey gossh.PublicKey
}

// SSHServer is a loopback SSH server exposing the sftp subsystem over an in-memory filesystem.
type SSHServer struct {
	Host    string
	Port    int
	HostKey gossh.PublicKey

	handlers pkgsftp.Handlers
	listener net.Listener

	mu    sync.Mutex
	conns []net.Conn
}

// StartSSHServer listens on 127.0.0.1 and stops on test cleanup.
func StartSSHServer(tb testing.TB, creds Credentials) *SSHServer {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("generate host key: %v", err)
	}
	signer, err := gossh.NewSignerFromKey(privateKey)
	if err != nil {
		tb.Fatalf("host key signer: %v", err)
	}

	config := &gossh.ServerConfig{}
	if creds.Password != "" {
		config.PasswordCallback = func(conn gossh.ConnMetadata, password []byte) (*gossh.Permissions, error) {
			if conn.User() == creds.Username && string(password) == creds.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("permission denied")
		}
	}
	if creds.AuthorizedKey != nil {
		authorized := creds.AuthorizedKey.Marshal()
		config.PublicKeyCallback = func(conn gossh.ConnMetadata, key gossh.PublicKey) (*gossh.Permissions, error) {
			if conn.User() == creds.Username && string(key.Marshal()) == string(authorized) {
				return nil, nil
			}
			return nil, fmt.Errorf("permission denied")
		}
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen: %v", err)
	}

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		tb.Fatalf("split listener address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		tb.Fatalf("parse listener port: %v", err)
	}

	s := &SSHServer{
		Host:     host,
		Port:     port,
		HostKey:  signer.PublicKey(),
		handlers: pkgsftp.InMemHandler(),
		listener: listener,
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			s.track(conn)
			go s.handle(conn, config)
		}
	}()

	tb.Cleanup(s.Close)
	return s
}

// Address returns the host:port the server listens on.
func (s *SSHServer) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Close stops accepting connections and severs every open one.
func (s *SSHServer) Close() {
	_ = s.listener.Close()
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (s *SSHServer) track(conn net.Conn) {
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()
}

func (s *SSHServer) handle(conn net.Conn, config *gossh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := gossh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer sshConn.Close()

	go gossh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(gossh.UnknownChannelType, "unsupported channel type")
			continue
		}

		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}

		go func(in <-chan *gossh.Request) {
			for req := range in {
				if req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp" {
					_ = req.Reply(true, nil)
					go func() {
						server := pkgsftp.NewRequestServer(channel, s.handlers)
						_ = server.Serve()
						_ = server.Close()
					}()
					continue
				}
				_ = req.Reply(false, nil)
			}
		}(requests)
	}
}
