// Package dtype defines the scalar value types a voxel grid can carry,
// the per-type dummy sentinels that encode "no data", and a reusable
// typed row buffer for bulk storage reads.
package dtype
