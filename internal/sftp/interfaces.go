package sftp

import (
	"context"
	"io"
	"os"
)

// ReadableFile provides read access to remote files.
type ReadableFile interface {
	io.ReadCloser
}

// WritableFile exposes write access to remote files.
type WritableFile interface {
	io.WriteCloser
}

// Client exposes the subset of SFTP operations required by the drive.
type Client interface {
	Getwd() (string, error)
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	Open(path string) (ReadableFile, error)
	Create(path string) (WritableFile, error)
	MkdirAll(path string) error
	Remove(path string) error
	RemoveDirectory(path string) error
}

// Session is a live SFTP client bound to its underlying transport.
// Close releases the SFTP subsystem and the transport beneath it.
type Session interface {
	Client
	Close() error
}

// Dialer opens new sessions against a remote server.
type Dialer interface {
	Dial(ctx context.Context, opts Options) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, opts Options) (Session, error)

// Dial calls f(ctx, opts).
func (f DialerFunc) Dial(ctx context.Context, opts Options) (Session, error) {
	return f(ctx, opts)
}
