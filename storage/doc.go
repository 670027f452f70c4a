// Package storage implements the voxel container format and the narrow
// storage handle the accessor layer is built on: open, read the header,
// fetch the location arrays, read one row of one plane, close.
//
// A container is a single self-describing blob (little-endian):
//
//	magic/version/dtype/compression
//	dimensions, origin, spacing, extent
//	codec name + encoded coordinate-system block
//	location arrays for all three axes
//	row directory (offset/length/CRC per row)
//	row blocks (raw or per-row compressed)
//
// Rows are the unit of IO: one row holds the nx values sharing a
// (y, z) position. Every section and every row block carries a CRC32 so
// corruption is detected at read time, not interpreted as data.
package storage
