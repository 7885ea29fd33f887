package drive

import (
	"context"
	"io"
	"time"
)

// Driver is the storage contract a host application programs against.
type Driver interface {
	Read(ctx context.Context, location string) ([]byte, error)
	Exists(ctx context.Context, location string) (bool, error)
	Stat(ctx context.Context, location string) (FileStats, error)
	Write(ctx context.Context, location string, contents []byte) error
	WriteString(ctx context.Context, location, contents string) error
	Remove(ctx context.Context, location string) error
	Copy(ctx context.Context, source, destination string) error
	Move(ctx context.Context, source, destination string) error
	List(location string) *Listing

	ReadStream(ctx context.Context, location string) (io.ReadCloser, error)
	WriteStream(ctx context.Context, location string, r io.Reader) error
	URL(ctx context.Context, location string) (string, error)
	SignedURL(ctx context.Context, location string, expiresIn time.Duration) (string, error)
	Visibility(ctx context.Context, location string) (Visibility, error)
	SetVisibility(ctx context.Context, location string, visibility Visibility) error
}

var _ Driver = (*Client)(nil)
