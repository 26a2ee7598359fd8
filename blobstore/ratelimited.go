package blobstore

import (
	"context"
	"io"

	"github.com/hupe1980/fps/resource"
)

// RateLimited paces reads from a Store through a resource.Controller's IO
// budget. Writes, deletes and listings pass through unthrottled.
type RateLimited struct {
	Store
	rc *resource.Controller
}

// NewRateLimited wraps s. A nil controller disables pacing.
func NewRateLimited(s Store, rc *resource.Controller) *RateLimited {
	return &RateLimited{Store: s, rc: rc}
}

// Open returns a reader charged against the IO budget as it is consumed.
func (r *RateLimited) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := r.Store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &limitedReadCloser{
		Reader: resource.NewRateLimitedReader(ctx, rc, r.rc),
		Closer: rc,
	}, nil
}

// Get reads the whole blob through Open.
func (r *RateLimited) Get(ctx context.Context, name string) ([]byte, error) {
	rc, err := r.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
