package drive

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"
)

// ListEntry is a single item of a directory listing.
type ListEntry struct {
	IsFile   bool
	Location string
	// Original is the metadata reported by the server.
	Original os.FileInfo
}

// Listing is a deferred directory listing. Nothing is sent to the server until
// Entries is called. Obtain one from Client.List; the zero value cannot list.
type Listing struct {
	client   *Client
	location string
}

// List prepares a listing of the directory at location.
func (c *Client) List(location string) *Listing {
	return &Listing{client: c, location: location}
}

// Location returns the directory the listing refers to.
func (l *Listing) Location() string {
	return l.location
}

// Entries performs the remote listing. Each entry's Location is the listed directory
// joined to the entry name with a single slash.
func (l *Listing) Entries(ctx context.Context) (entries []ListEntry, err error) {
	if l == nil || l.client == nil {
		return nil, newError(KindList, opList, "", errors.New("listing was not created by Client.List"))
	}
	c := l.client
	defer func(start time.Time) {
		c.observe(opList, start, err, zap.String("path", l.location), zap.Int("entries", len(entries)))
	}(time.Now())

	session, release, err := c.ensureConnected(ctx)
	if err != nil {
		return nil, newError(KindList, opList, l.location, err)
	}
	defer release()

	infos, err := session.ReadDir(l.location)
	if err != nil {
		return nil, newError(KindList, opList, l.location, err)
	}

	entries = make([]ListEntry, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		entries = append(entries, ListEntry{
			IsFile:   !info.IsDir(),
			Location: l.location + "/" + info.Name(),
			Original: info,
		})
	}
	return entries, nil
}
