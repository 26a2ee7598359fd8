// Package blobstore provides storage for point clouds, distance matrices and
// sampled indices.
//
// Store is the interface for reading and writing named blobs. Names use
// forward slashes regardless of backend. Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through a read-only memory mapping
//   - MemoryStore: in-process map, for tests
//   - minio.Store: MinIO and other S3-compatible services
//   - s3.Store: Amazon S3 with multipart uploads
//
// Wrap any store with NewRateLimited to pace reads through a
// resource.Controller.
package blobstore
