package drive

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/internal/sftp"
	"github.com/charlesng35/sftpdrive/internal/sftp/sftptest"
)

func testConfig() ConnectionConfig {
	return ConnectionConfig{
		Host:     "sftp.example.test",
		Port:     2222,
		Username: "drive",
		Password: "secret",
	}
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *sftptest.Server) {
	t.Helper()
	server := sftptest.NewServer(t)
	opts = append([]Option{WithDialer(server), WithLogger(zap.NewNop())}, opts...)
	client, err := New(testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect() })
	return client, server
}

func newStubClient(t *testing.T, session *stubSession) *Client {
	t.Helper()
	dialer := sftp.DialerFunc(func(context.Context, sftp.Options) (sftp.Session, error) {
		return session, nil
	})
	client, err := New(testConfig(), WithDialer(dialer), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return client
}

// stubSession answers probes successfully and delegates everything else to optional hooks.
type stubSession struct {
	stat    func(string) (os.FileInfo, error)
	readDir func(string) ([]os.FileInfo, error)
	remove  func(string) error
	removed []string
}

func (s *stubSession) Getwd() (string, error) { return "/", nil }

func (s *stubSession) Stat(path string) (os.FileInfo, error) {
	if s.stat == nil {
		return nil, os.ErrNotExist
	}
	return s.stat(path)
}

func (s *stubSession) ReadDir(path string) ([]os.FileInfo, error) {
	if s.readDir == nil {
		return nil, nil
	}
	return s.readDir(path)
}

func (s *stubSession) Open(string) (sftp.ReadableFile, error) { return nil, os.ErrPermission }

func (s *stubSession) Create(string) (sftp.WritableFile, error) { return nil, os.ErrPermission }

func (s *stubSession) MkdirAll(string) error { return nil }

func (s *stubSession) Remove(path string) error {
	s.removed = append(s.removed, path)
	if s.remove == nil {
		return nil
	}
	return s.remove(path)
}

func (s *stubSession) RemoveDirectory(path string) error { return s.Remove(path) }

func (s *stubSession) Close() error { return nil }

type fileInfoStub struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (f fileInfoStub) Name() string       { return f.name }
func (f fileInfoStub) Size() int64        { return f.size }
func (f fileInfoStub) Mode() os.FileMode  { return f.mode }
func (f fileInfoStub) ModTime() time.Time { return f.modTime }
func (f fileInfoStub) IsDir() bool        { return f.mode.IsDir() }
func (f fileInfoStub) Sys() any           { return nil }
