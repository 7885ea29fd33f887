package drive

import (
	"context"
	"io"
	"time"
)

// Visibility is the access level of a stored file.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

const (
	opReadStream    = "getStream"
	opWriteStream   = "putStream"
	opURL           = "getUrl"
	opSignedURL     = "getSignedUrl"
	opVisibility    = "getVisibility"
	opSetVisibility = "setVisibility"
)

// The operations below exist to satisfy Driver. SFTP offers no streaming, URL or
// visibility semantics, so each one fails immediately without touching the connection.

// ReadStream is not supported.
func (c *Client) ReadStream(_ context.Context, location string) (io.ReadCloser, error) {
	return nil, c.reject(opReadStream, location)
}

// WriteStream is not supported.
func (c *Client) WriteStream(_ context.Context, location string, _ io.Reader) error {
	return c.reject(opWriteStream, location)
}

// URL is not supported.
func (c *Client) URL(_ context.Context, location string) (string, error) {
	return "", c.reject(opURL, location)
}

// SignedURL is not supported.
func (c *Client) SignedURL(_ context.Context, location string, _ time.Duration) (string, error) {
	return "", c.reject(opSignedURL, location)
}

// Visibility is not supported.
func (c *Client) Visibility(_ context.Context, location string) (Visibility, error) {
	return "", c.reject(opVisibility, location)
}

// SetVisibility is not supported.
func (c *Client) SetVisibility(_ context.Context, location string, _ Visibility) error {
	return c.reject(opSetVisibility, location)
}

func (c *Client) reject(op, location string) error {
	err := unsupported(op, location)
	c.observe(op, time.Now(), err)
	return err
}
