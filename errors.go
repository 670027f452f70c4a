package voxgo

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by any operation on a closed voxset.
	// Closed voxsets fail fast instead of touching released resources.
	ErrClosed = errors.New("voxset is closed")

	// ErrReadOnly is returned when mutating a voxset opened in ModeRead.
	ErrReadOnly = errors.New("voxset is read-only")
)

// OpenError indicates the backing storage could not be opened or is not
// a valid voxel dataset. No partial voxset is returned alongside it.
//
// The underlying error can be accessed via errors.Unwrap.
type OpenError struct {
	Name  string
	cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open voxset %q: %v", e.Name, e.cause)
}

func (e *OpenError) Unwrap() error { return e.cause }

// IndexError indicates an axis or linear index outside its valid range.
type IndexError struct {
	Axis  string // "x", "y", "z" or "linear"
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Axis, e.Index, e.Size)
}

// MetadataWriteError indicates the metadata sidecar could not be
// written at close time. The close sequence still releases all
// resources; the error reports the lost flush.
//
// The underlying error can be accessed via errors.Unwrap.
type MetadataWriteError struct {
	Path  string
	cause error
}

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("failed to write metadata sidecar %q: %v", e.Path, e.cause)
}

func (e *MetadataWriteError) Unwrap() error { return e.cause }
