package minio

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/fps/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "/clouds/")
	key, err := s.key("scan/0001.fpst")
	require.NoError(t, err)
	assert.Equal(t, "clouds/scan/0001.fpst", key)

	_, err = s.key("../outside")
	assert.ErrorIs(t, err, blobstore.ErrInvalidName)

	bare := NewStore(nil, "bucket", "")
	key, err = bare.key("/a.fpst")
	require.NoError(t, err)
	assert.Equal(t, "a.fpst", key)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
}

// TestStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}

	bucket := "test-fps"
	store, err := Dial(Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, bucket, fmt.Sprintf("run-%d", time.Now().UnixNano()))
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, bucket)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.fpst", data))

	got, err := store.Get(ctx, "test.fpst")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"test.fpst"}, names)

	require.NoError(t, store.Delete(ctx, "test.fpst"))
	_, err = store.Get(ctx, "test.fpst")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
