package sftp

import (
	"errors"
	"io"
	"os"
	"sync"

	pkgsftp "github.com/pkg/sftp"
	"go.uber.org/multierr"
)

var errClientUnavailable = errors.New("sftp: client unavailable")

type clientSession struct {
	client  *pkgsftp.Client
	closers []io.Closer

	closeOnce sync.Once
	closeErr  error
}

// NewSession binds an established SFTP client to the transports it runs on.
// Closing the session closes the client first, then each closer in order.
func NewSession(client *pkgsftp.Client, closers ...io.Closer) Session {
	return &clientSession{client: client, closers: closers}
}

func (s *clientSession) Getwd() (string, error) {
	if s == nil || s.client == nil {
		return "", errClientUnavailable
	}
	return s.client.Getwd()
}

func (s *clientSession) Stat(path string) (os.FileInfo, error) {
	if s == nil || s.client == nil {
		return nil, errClientUnavailable
	}
	return s.client.Stat(path)
}

func (s *clientSession) ReadDir(path string) ([]os.FileInfo, error) {
	if s == nil || s.client == nil {
		return nil, errClientUnavailable
	}
	return s.client.ReadDir(path)
}

func (s *clientSession) Open(path string) (ReadableFile, error) {
	if s == nil || s.client == nil {
		return nil, errClientUnavailable
	}
	f, err := s.client.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *clientSession) Create(path string) (WritableFile, error) {
	if s == nil || s.client == nil {
		return nil, errClientUnavailable
	}
	f, err := s.client.Create(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *clientSession) MkdirAll(path string) error {
	if s == nil || s.client == nil {
		return errClientUnavailable
	}
	return s.client.MkdirAll(path)
}

func (s *clientSession) Remove(path string) error {
	if s == nil || s.client == nil {
		return errClientUnavailable
	}
	return s.client.Remove(path)
}

func (s *clientSession) RemoveDirectory(path string) error {
	if s == nil || s.client == nil {
		return errClientUnavailable
	}
	return s.client.RemoveDirectory(path)
}

// Close terminates the SFTP subsystem and the underlying transports.
func (s *clientSession) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if s.client != nil {
			s.closeErr = multierr.Append(s.closeErr, s.client.Close())
		}
		for _, c := range s.closers {
			if c == nil {
				continue
			}
			s.closeErr = multierr.Append(s.closeErr, c.Close())
		}
	})
	return s.closeErr
}
