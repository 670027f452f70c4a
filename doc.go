// Package voxgo provides read-oriented access to voxel datasets: 3-D
// grids of scalar values with spatial geometry, stored as a single
// binary container plus an XML metadata sidecar.
//
// A Voxset is opened by name, addressed by grid indices or a linear
// index, and iterated in storage order with a single cached row between
// reads. Values come back as float64 with missing cells translated to a
// defined/undefined flag, regardless of the stored scalar type.
//
// Datasets live in a blobstore.Store; the default is the local
// filesystem, with in-memory, MinIO, and S3 backends available.
package voxgo
