package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/internal/sftp"
)

const (
	opRead   = "read"
	opExists = "exists"
	opStat   = "stats"
	opWrite  = "write"
	opRemove = "delete"
	opCopy   = "copy"
	opMove   = "move"
	opList   = "list"
)

// FileStats describes a remote file. Directories are not modelled, so IsFile is always true.
type FileStats struct {
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
	IsFile   bool      `json:"is_file"`
}

// Read returns the full contents of the file at location.
func (c *Client) Read(ctx context.Context, location string) (data []byte, err error) {
	defer func(start time.Time) {
		c.observe(opRead, start, err, zap.String("path", location))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return nil, newError(KindRead, opRead, location, err)
	}
	defer release()

	data, err = readFile(session, location)
	if err != nil {
		return nil, newError(KindRead, opRead, location, err)
	}
	return data, nil
}

// Exists reports whether location exists. A missing path is not an error.
func (c *Client) Exists(ctx context.Context, location string) (exists bool, err error) {
	defer func(start time.Time) {
		c.observe(opExists, start, err, zap.String("path", location))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return false, newError(KindMetadata, opExists, location, err)
	}
	defer release()

	exists, err = existsOn(session, location)
	if err != nil {
		return false, newError(KindMetadata, opExists, location, err)
	}
	return exists, nil
}

// Stat returns the size and modification time of the file at location.
func (c *Client) Stat(ctx context.Context, location string) (stats FileStats, err error) {
	defer func(start time.Time) {
		c.observe(opStat, start, err, zap.String("path", location))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return FileStats{}, newError(KindMetadata, opStat, location, err)
	}
	defer release()

	info, err := session.Stat(location)
	if err != nil {
		return FileStats{}, newError(KindMetadata, opStat, location, err)
	}

	return FileStats{
		Modified: info.ModTime(),
		Size:     info.Size(),
		IsFile:   true,
	}, nil
}

// Write uploads contents to location, creating or truncating the destination and any
// missing parent directories.
func (c *Client) Write(ctx context.Context, location string, contents []byte) (err error) {
	defer func(start time.Time) {
		c.observe(opWrite, start, err, zap.String("path", location), zap.Int("bytes", len(contents)))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return newError(KindWrite, opWrite, location, err)
	}
	defer release()

	if err := writeFile(session, location, contents); err != nil {
		return newError(KindWrite, opWrite, location, err)
	}
	return nil
}

// WriteString uploads contents as the literal body of the file at location.
// The string is never interpreted as a local file path.
func (c *Client) WriteString(ctx context.Context, location, contents string) error {
	return c.Write(ctx, location, []byte(contents))
}

// Remove deletes location. Removing a path that does not exist, including one whose
// parent directory is missing, succeeds without doing anything.
func (c *Client) Remove(ctx context.Context, location string) (err error) {
	defer func(start time.Time) {
		c.observe(opRemove, start, err, zap.String("path", location))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return newError(KindDelete, opRemove, location, err)
	}
	defer release()

	exists, err := existsOn(session, location)
	if err != nil {
		return newError(KindDelete, opRemove, location, err)
	}
	if !exists {
		return nil
	}

	if err := session.Remove(location); err != nil && !sftp.IsNotExist(err) {
		return newError(KindDelete, opRemove, location, err)
	}
	return nil
}

// Copy duplicates source onto destination on the remote side. An existing destination file
// is deleted first. Directories are copied recursively and merged into an existing
// destination directory; copying a file onto a directory fails.
func (c *Client) Copy(ctx context.Context, source, destination string) (err error) {
	defer func(start time.Time) {
		c.observe(opCopy, start, err, zap.String("path", source), zap.String("destination", destination))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return newTransferError(KindCopy, opCopy, source, destination, err)
	}
	defer release()

	if err := copyOn(session, source, destination); err != nil {
		return newTransferError(KindCopy, opCopy, source, destination, err)
	}
	return nil
}

// Move copies source onto destination and then deletes source. It is not an atomic
// rename; when the copy fails the source is left untouched.
func (c *Client) Move(ctx context.Context, source, destination string) (err error) {
	defer func(start time.Time) {
		c.observe(opMove, start, err, zap.String("path", source), zap.String("destination", destination))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return newTransferError(KindMove, opMove, source, destination, err)
	}
	defer release()

	if samePath(source, destination) {
		if _, err := session.Stat(source); err != nil {
			return newTransferError(KindMove, opMove, source, destination, err)
		}
		return nil
	}

	if err := copyOn(session, source, destination); err != nil {
		return newTransferError(KindMove, opMove, source, destination, err)
	}
	if err := removeAll(session, source); err != nil {
		return newTransferError(KindMove, opMove, source, destination, err)
	}
	return nil
}

func readFile(client sftp.Client, location string) ([]byte, error) {
	f, err := client.Open(location)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err = multierr.Append(err, f.Close()); err != nil {
		return nil, err
	}
	return data, nil
}

func writeFile(client sftp.Client, location string, contents []byte) error {
	if err := ensureParent(client, location); err != nil {
		return err
	}
	f, err := client.Create(location)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, bytes.NewReader(contents))
	return multierr.Append(err, f.Close())
}

func existsOn(client sftp.Client, location string) (bool, error) {
	_, err := client.Stat(location)
	switch {
	case err == nil:
		return true, nil
	case sftp.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

func ensureParent(client sftp.Client, location string) error {
	dir := path.Dir(location)
	if dir == "." || dir == "/" {
		return nil
	}
	return client.MkdirAll(dir)
}

func copyOn(client sftp.Client, source, destination string) error {
	info, err := client.Stat(source)
	if err != nil {
		return err
	}
	if samePath(source, destination) {
		return nil
	}
	if info.IsDir() && within(destination, source) {
		return fmt.Errorf("cannot copy directory %q into itself", source)
	}

	// An existing file at destination is replaced. An existing directory is only merged
	// into by a directory source and is never deleted.
	target, err := client.Stat(destination)
	switch {
	case err == nil && target.IsDir():
		if !info.IsDir() {
			return fmt.Errorf("destination %q is a directory", destination)
		}
	case err == nil:
		if err := client.Remove(destination); err != nil && !sftp.IsNotExist(err) {
			return err
		}
	case !sftp.IsNotExist(err):
		return err
	}
	if err := ensureParent(client, destination); err != nil {
		return err
	}
	return copyTree(client, source, destination, info)
}

func copyTree(client sftp.Client, source, destination string, info os.FileInfo) error {
	if !info.IsDir() {
		return copyFile(client, source, destination)
	}

	if err := client.MkdirAll(destination); err != nil {
		return err
	}
	entries, err := client.ReadDir(source)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		name := entry.Name()
		if err := copyTree(client, path.Join(source, name), path.Join(destination, name), entry); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(client sftp.Client, source, destination string) error {
	in, err := client.Open(source)
	if err != nil {
		return err
	}
	out, err := client.Create(destination)
	if err != nil {
		return multierr.Append(err, in.Close())
	}
	_, err = io.Copy(out, in)
	return multierr.Combine(err, out.Close(), in.Close())
}

func removeAll(client sftp.Client, location string) error {
	info, err := client.Stat(location)
	if err != nil {
		if sftp.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return client.Remove(location)
	}

	entries, err := client.ReadDir(location)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if err := removeAll(client, path.Join(location, entry.Name())); err != nil {
			return err
		}
	}
	return client.RemoveDirectory(location)
}

func samePath(a, b string) bool {
	return path.Clean(a) == path.Clean(b)
}

// within reports whether child lies strictly below parent.
func within(child, parent string) bool {
	parent = path.Clean(parent)
	child = path.Clean(child)
	if parent == "/" {
		return child != "/" && strings.HasPrefix(child, "/")
	}
	return strings.HasPrefix(child, parent+"/")
}
