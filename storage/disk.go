package storage

import (
	"context"
	"errors"
	"io"
)

// Disk names used in configuration and persisted on image/file rows.
const (
	DiskPublic = "public"
	DiskS3     = "s3"
)

// ErrBlobNotFound is returned by Open when the path holds no blob.
var ErrBlobNotFound = errors.New("blob not found")

// Disk is one named blob backend.
type Disk interface {
	Name() string

	// Put writes data at path, replacing anything already there.
	Put(ctx context.Context, path string, data []byte, mimeType string) error

	// Open streams the blob at path. The caller closes the reader.
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)

	// Delete removes the blob at path; a missing blob is not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public locator for path, absolute or root-relative.
	URL(path string) string
}
