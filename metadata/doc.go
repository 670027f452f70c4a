// Package metadata persists free-form key/value annotations for a voxel
// file in an XML sidecar (`<path>.xml`).
//
// The sidecar is only written when the mapping was mutated during an
// open session; pure-read sessions never touch disk.
package metadata
