// Package minio archives vecrow segments in MinIO or another S3-compatible
// server through minio-go, without the AWS SDK.
//
//	store, err := minio.Dial(ctx, "localhost:9000", "minioadmin", "minioadmin", false, "vecrow", "archive/")
package minio
