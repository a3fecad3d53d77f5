// Package storage is where rendered beds end up: a local directory or an
// S3-compatible bucket behind one Store interface.
//
// Keys are forward-slash separated and relative to the store root.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Read when the key does not exist. It wraps
// os.ErrNotExist semantics for both backends.
var ErrNotFound = errors.New("storage: not found")

// ContentTypeWAV is the content type of rendered files.
const ContentTypeWAV = "audio/wav"

// Meta describes an object being written.
type Meta struct {
	// ContentType, e.g. ContentTypeWAV.
	ContentType string

	// Size is the exact object size in bytes, or -1 if unknown. Renders
	// know their size up front, which lets S3 skip chunked uploads.
	Size int64

	// Metadata is attached to S3 objects as user metadata.
	Metadata map[string]string
}

// Store reads and writes objects. Implementations must be safe for
// concurrent use.
type Store interface {
	// Read opens the object for reading. Missing keys return an error
	// wrapping ErrNotFound.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Write opens the object for writing. The object becomes visible only
	// after Close returns nil.
	Write(ctx context.Context, key string, meta Meta) (io.WriteCloser, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Location returns a human-readable address for the key, such as an
	// absolute path or an s3:// URL.
	Location(key string) string
}

// Abort discards a writer returned by Store.Write without publishing the
// object. Writers from other sources are closed.
func Abort(w io.WriteCloser, cause error) error {
	if a, ok := w.(interface{ abort(error) error }); ok {
		return a.abort(cause)
	}
	return w.Close()
}
