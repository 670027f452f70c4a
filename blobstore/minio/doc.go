// Package minio implements blobstore.Store for MinIO and other
// S3-compatible object storage using the MinIO Go client.
//
// Voxel containers are read with ranged GETs, so a remote grid can be
// traversed row by row without downloading the whole file.
package minio
