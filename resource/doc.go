// Package resource provides instance-level resource diagnostics and
// limits for the voxel accessor: a Tracker that observes open/close
// pairs (leak diagnostics without hidden global state) and a Controller
// that bounds row-buffer memory and storage read throughput.
package resource
