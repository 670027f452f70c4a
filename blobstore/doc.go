// Package blobstore abstracts where voxel files live.
//
// The storage layer reads voxel containers through the Store/Blob
// interfaces, so the same reader works against a local directory, an
// in-memory map (tests), or S3-compatible object storage (see the minio
// and s3 subpackages).
package blobstore
