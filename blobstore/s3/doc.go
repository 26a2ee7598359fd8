// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("clouds/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Uploads go through the SDK's multipart upload manager, so large distance
// matrices are split into parts and sent concurrently.
package s3
