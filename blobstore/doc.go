// Package blobstore is where flushed segments and manifests are archived.
//
// Four stores ship with vecrow: LocalStore (a directory), MemoryStore (tests),
// s3.Store and minio.Store. Segment files are streamed with Create so large
// segments never sit in memory; manifests are small and use Put and Get.
package blobstore
