// Package blob defines the binary-asset store abstraction and its drivers.
package blob

import (
	"context"
	"io"
)

// Handle names a successfully uploaded asset. It is only ever produced by
// Upload and is resolved to a retrievable URL before being attached to any
// document.
type Handle struct {
	Path string
}

// File is a binary asset selected for upload but not yet uploaded.
type File struct {
	Name    string
	Content []byte
}

// Store is the facade over the remote blob store. Drivers perform no retries;
// failures propagate unchanged.
type Store interface {
	// Upload durably stores the content under path and returns its handle.
	Upload(ctx context.Context, path string, r io.Reader, size int64) (Handle, error)
	// ResolveURL maps a handle to the durable URL serving the asset.
	ResolveURL(h Handle) (string, error)
}
