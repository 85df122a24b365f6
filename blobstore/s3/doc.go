// Package s3 archives vecrow segments and manifests in Amazon S3.
//
//	store, err := s3.NewFromConfig(ctx, "my-bucket", "vecrow/", "us-east-1")
//
// Segment files stream through multipart uploads; manifests are single puts.
// Wrap the store in a DDBCommitStore when several writers share one prefix.
package s3
