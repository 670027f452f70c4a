// Package testutil provides testing utilities for Voxgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random number generator and helpers for
// generating voxel grids with missing-value holes.
//
// # Random Grid Generation
//
//	rng := testutil.NewRNG(seed)
//	values := rng.GridValues(nx, ny, nz, 0.1) // 10% missing cells
//
// # Deterministic Grids
//
//	values := testutil.LinearValues(nx, ny, nz) // cell i holds float64(i+1)
package testutil
