package sftp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	pkgsftp "github.com/pkg/sftp"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	// DefaultPort is the standard SSH port.
	DefaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	maxPacketSize      = 1 << 15
)

// Options carries everything needed to open an SFTP session.
type Options struct {
	Host           string
	Port           int
	Username       string
	Password       string
	PrivateKey     []byte
	Passphrase     string
	Timeout        time.Duration
	KnownHostsFile string
}

// Address returns the host:port pair to dial.
func (o Options) Address() string {
	port := o.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// SSHDialer opens SFTP sessions over a fresh SSH connection per dial.
type SSHDialer struct{}

// NewSSHDialer returns a dialer speaking SSH over TCP.
func NewSSHDialer() *SSHDialer {
	return &SSHDialer{}
}

// Dial establishes the SSH connection, completes the handshake and starts the SFTP subsystem.
func (d *SSHDialer) Dial(ctx context.Context, opts Options) (Session, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, errors.New("sftp: host is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDialTimeout
	}

	clientConfig, err := BuildClientConfig(opts)
	if err != nil {
		return nil, err
	}

	addr := opts.Address()
	dialer := net.Dialer{Timeout: opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sftp: dial %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := gossh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sftp: client handshake: %w", err)
	}
	sshClient := gossh.NewClient(clientConn, chans, reqs)

	client, err := pkgsftp.NewClient(sshClient, pkgsftp.MaxPacket(maxPacketSize))
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("sftp: start subsystem: %w", err)
	}

	return NewSession(client, sshClient), nil
}

// BuildClientConfig assembles SSH authentication and host key verification from opts.
func BuildClientConfig(opts Options) (*gossh.ClientConfig, error) {
	if strings.TrimSpace(opts.Username) == "" {
		return nil, errors.New("sftp: username is required")
	}

	authMethods := []gossh.AuthMethod{}
	if len(opts.PrivateKey) > 0 {
		var signer gossh.Signer
		var err error
		if opts.Passphrase != "" {
			signer, err = gossh.ParsePrivateKeyWithPassphrase(opts.PrivateKey, []byte(opts.Passphrase))
		} else {
			signer, err = gossh.ParsePrivateKey(opts.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("sftp: parse private key: %w", err)
		}
		authMethods = append(authMethods, gossh.PublicKeys(signer))
	}
	if opts.Password != "" {
		authMethods = append(authMethods, gossh.Password(opts.Password))
	}
	if len(authMethods) == 0 {
		return nil, errors.New("sftp: no authentication methods configured")
	}

	hostKeyCallback := gossh.InsecureIgnoreHostKey()
	if path := strings.TrimSpace(opts.KnownHostsFile); path != "" {
		callback, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("sftp: load known hosts: %w", err)
		}
		hostKeyCallback = callback
	}

	return &gossh.ClientConfig{
		User:            opts.Username,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         opts.Timeout,
	}, nil
}
