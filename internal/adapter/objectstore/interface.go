// Package objectstore provides the object storage backends used by the file relay.
package objectstore

import "context"

// Store writes objects and resolves their public URLs.
type Store interface {
	// Put writes data under key. Keys use forward slashes.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// PublicURL returns the URL under which key is publicly readable.
	PublicURL(key string) string
}

// Ensure backends implement Store.
var (
	_ Store = (*DiskStore)(nil)
	_ Store = (*BucketStore)(nil)
)
