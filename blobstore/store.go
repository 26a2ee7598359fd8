package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for empty names or names that escape the store root.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// Store reads and writes named blobs.
type Store interface {
	// Open opens a blob for streaming reads.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Get reads a whole blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// CleanName normalises a blob name and rejects names that are empty or
// escape the store root.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", ErrInvalidName
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", ErrInvalidName
	}
	return clean, nil
}
