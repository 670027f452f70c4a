// Package s3 implements blobstore.Store for Amazon S3 using the AWS SDK
// for Go v2. Reads use ranged GETs; writes go through the s3 upload
// manager so large voxel containers stream in parts.
//
// Client construction (credentials, region, endpoint) is left to the
// caller.
package s3
