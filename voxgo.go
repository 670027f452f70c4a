package voxgo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/voxgo/blobstore"
	"github.com/hupe1980/voxgo/cs"
	"github.com/hupe1980/voxgo/dtype"
	"github.com/hupe1980/voxgo/metadata"
	"github.com/hupe1980/voxgo/resource"
	"github.com/hupe1980/voxgo/storage"
)

// Extension is the canonical voxel file extension. Open and Create
// append it when the given name does not already carry it.
const Extension = ".vox"

// SidecarExtension is appended to the full file name for the metadata
// sidecar (`<path>.xml`).
const SidecarExtension = ".xml"

// Mode selects what an open voxset permits.
type Mode int

const (
	// ModeRead opens the voxset read-only; properties cannot change.
	ModeRead Mode = iota
	// ModeReadWrite keeps the data as is but allows properties
	// (metadata) to change; mutations are flushed at close.
	ModeReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeReadWrite:
		return "readwrite"
	default:
		return fmt.Sprintf("voxgo.Mode(%d)", int(m))
	}
}

// Definition describes a voxset to be created. See storage.Definition.
type Definition = storage.Definition

// Cell is one grid point: its spatial location and value. Defined is
// false for a missing (dummy) cell, in which case Value is zero.
type Cell struct {
	X, Y, Z float64
	Value   float64
	Defined bool
}

// FileName resolves a voxset name to its file name, appending the
// canonical extension when missing.
func FileName(name string) string {
	if strings.ToLower(filepath.Ext(name)) != Extension {
		return name + Extension
	}
	return name
}

func voxsetName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Voxset is a read-oriented accessor over a 3-D grid of scalar values
// backed by a storage handle.
//
// Cells are addressed by (ix, iy, iz) indices or by a single linear
// index i = iz*nx*ny + iy*nx + ix, where X varies fastest, then Y,
// then Z, planes stacked bottom to top. The most recently read (plane, row)
// pair is cached, so an X-major sweep costs one storage read per row
// instead of one per cell.
//
// A Voxset holds a single iteration cursor and a single row cache; it
// is not safe for concurrent use.
type Voxset struct {
	name     string
	fileName string
	mode     Mode

	store   blobstore.Store
	reader  *storage.Reader
	logger  *Logger
	tracker resource.Tracker
	tracked resource.Handle

	typ     dtype.Type
	isInt   bool
	nx      int
	ny      int
	nz      int
	origin  [3]float64
	spacing [3]float64
	maxIter int

	// lazy caches
	xloc, yloc, zloc []float64
	csCache          *cs.CoordinateSystem

	// single-slot row cache, valid only for (bufferedPlane, bufferedRow)
	row           *dtype.Buffer
	bufferedPlane int
	bufferedRow   int

	cursor  int
	iterErr error

	meta        metadata.Map
	metaChanged bool

	closed bool
}

// Open opens an existing voxset.
//
// The header (value type, dimensions, origin, spacing, extent) is read
// eagerly; location arrays, the coordinate system, and cell data are
// fetched lazily. The voxset must be closed to release its storage
// handle; see Using for scoped acquisition.
func Open(name string, optFns ...Option) (*Voxset, error) {
	o := applyOptions(optFns)
	ctx := context.Background()
	fn := FileName(name)

	r, err := storage.Open(ctx, o.store, fn, func(so *storage.Options) {
		so.Controller = o.controller
	})
	if err != nil {
		err = &OpenError{Name: fn, cause: err}
		o.logger.LogOpen(fn, o.mode, 0, 0, 0, err)
		return nil, err
	}

	meta, err := readSidecar(ctx, o.store, fn+SidecarExtension)
	if err != nil {
		r.Close()
		err = &OpenError{Name: fn, cause: err}
		o.logger.LogOpen(fn, o.mode, 0, 0, 0, err)
		return nil, err
	}

	hdr := r.Header()
	v := &Voxset{
		name:          voxsetName(fn),
		fileName:      fn,
		mode:          o.mode,
		store:         o.store,
		reader:        r,
		logger:        o.logger,
		tracker:       o.tracker,
		typ:           hdr.Type,
		isInt:         hdr.Type.IsInteger(),
		nx:            hdr.NX,
		ny:            hdr.NY,
		nz:            hdr.NZ,
		origin:        hdr.Origin,
		spacing:       hdr.Spacing,
		maxIter:       hdr.Cells(),
		bufferedPlane: -1,
		bufferedRow:   -1,
		meta:          meta,
	}
	v.tracked = v.tracker.Track("Voxset", v.name)
	v.logger.LogOpen(fn, o.mode, v.nx, v.ny, v.nz, nil)
	return v, nil
}

// Create writes a new voxset from a linear value slice and opens it in
// ModeReadWrite.
//
// values holds nx*ny*nz cells in linear order (X fastest, then Y, then
// Z); NaN entries are stored as the type's dummy sentinel. A nil slice
// creates an all-dummy voxset.
func Create(name string, def Definition, values []float64, optFns ...Option) (*Voxset, error) {
	o := applyOptions(optFns)
	ctx := context.Background()
	fn := FileName(name)

	w, err := storage.NewWriter(def)
	if err != nil {
		return nil, fmt.Errorf("invalid voxset definition: %w", err)
	}

	cells := def.NX * def.NY * def.NZ
	if values != nil {
		if len(values) != cells {
			return nil, fmt.Errorf("got %d values, grid has %d cells", len(values), cells)
		}
		buf := dtype.NewBuffer(def.Type, def.NX)
		for iz := 0; iz < def.NZ; iz++ {
			for iy := 0; iy < def.NY; iy++ {
				base := iz*def.NX*def.NY + iy*def.NX
				for ix := 0; ix < def.NX; ix++ {
					buf.SetFloat64(ix, values[base+ix])
				}
				if err := w.SetRow(iz, iy, buf); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := w.Flush(ctx, o.store, fn); err != nil {
		return nil, err
	}

	return Open(name, append(append([]Option(nil), optFns...), WithMode(ModeReadWrite))...)
}

// Using opens the named voxset, runs fn, and closes it on every exit
// path, including a panic inside fn. The close error is returned when
// fn itself succeeds.
func Using(name string, fn func(*Voxset) error, optFns ...Option) (err error) {
	v, openErr := Open(name, optFns...)
	if openErr != nil {
		return openErr
	}
	defer func() {
		if cerr := v.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(v)
}

// DeleteFiles removes the voxset file and its metadata sidecar,
// silently ignoring either being absent.
func DeleteFiles(name string, optFns ...Option) error {
	o := applyOptions(optFns)
	ctx := context.Background()
	fn := FileName(name)

	if err := o.store.Delete(ctx, fn); err != nil {
		return err
	}
	return o.store.Delete(ctx, fn+SidecarExtension)
}

func readSidecar(ctx context.Context, store blobstore.Store, name string) (metadata.Map, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return metadata.Map{}, nil
		}
		return nil, fmt.Errorf("failed to open metadata sidecar: %w", err)
	}
	defer blob.Close()

	data := make([]byte, blob.Size())
	if len(data) > 0 {
		if _, err := blob.ReadAt(ctx, data, 0); err != nil {
			return nil, fmt.Errorf("failed to read metadata sidecar: %w", err)
		}
	}
	return metadata.Decode(data)
}

// Name returns the voxset name (file name without path or extension).
func (v *Voxset) Name() string { return v.name }

// FileName returns the resolved voxset file name.
func (v *Voxset) FileName() string { return v.fileName }

// Mode returns the open mode.
func (v *Voxset) Mode() Mode { return v.mode }

func (v *Voxset) String() string { return v.name }

// Dimensions returns the grid point counts along each axis.
func (v *Voxset) Dimensions() (nx, ny, nz int) { return v.nx, v.ny, v.nz }

// Origin returns the coordinate of grid point (0, 0, 0).
func (v *Voxset) Origin() (x0, y0, z0 float64) {
	return v.origin[0], v.origin[1], v.origin[2]
}

func (v *Voxset) spacingAxis(i int) (float64, bool) {
	if v.spacing[i] == dtype.DummyFloat64 {
		return 0, false
	}
	return v.spacing[i], true
}

// SpacingX returns the constant X point separation. The second return
// is false when the axis is non-uniform; use XLocations instead.
func (v *Voxset) SpacingX() (float64, bool) { return v.spacingAxis(0) }

// SpacingY returns the constant Y point separation, if uniform.
func (v *Voxset) SpacingY() (float64, bool) { return v.spacingAxis(1) }

// SpacingZ returns the constant Z point separation, if uniform.
func (v *Voxset) SpacingZ() (float64, bool) { return v.spacingAxis(2) }

// UniformX reports whether X point separation is constant.
func (v *Voxset) UniformX() bool { _, ok := v.spacingAxis(0); return ok }

// UniformY reports whether Y point separation is constant.
func (v *Voxset) UniformY() bool { _, ok := v.spacingAxis(1); return ok }

// UniformZ reports whether Z point separation is constant.
func (v *Voxset) UniformZ() bool { _, ok := v.spacingAxis(2); return ok }

// Type returns the scalar type of the grid, fixed at open.
func (v *Voxset) Type() dtype.Type { return v.typ }

// Extent returns the spatial bounding box. It is queried from the
// storage handle on every call; the handle owns it and it is cheap.
func (v *Voxset) Extent() (storage.Extent, error) {
	if v.closed {
		return storage.Extent{}, ErrClosed
	}
	return v.reader.Extent(), nil
}

// Extent2D returns the horizontal projection of Extent.
func (v *Voxset) Extent2D() (xmin, ymin, xmax, ymax float64, err error) {
	e, err := v.Extent()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return e.XMin, e.YMin, e.XMax, e.YMax, nil
}

// CoordinateSystem returns the grid's coordinate system, fetched from
// storage once and cached for the voxset's lifetime.
func (v *Voxset) CoordinateSystem() (*cs.CoordinateSystem, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if v.csCache == nil {
		c, err := v.reader.CoordinateSystem()
		if err != nil {
			return nil, err
		}
		v.csCache = c
	}
	return v.csCache, nil
}

// locationArrays fetches all three axis coordinate arrays in one
// storage call; the backing call returns them together, so per-axis
// accessors are free afterwards.
func (v *Voxset) locationArrays() error {
	if v.xloc != nil {
		return nil
	}
	xs, ys, zs, err := v.reader.LocationArrays(context.Background())
	if err != nil {
		return err
	}
	v.xloc, v.yloc, v.zloc = xs, ys, zs
	return nil
}

// XLocations returns the X coordinate of every grid point, length nx.
// The returned slice is cached; callers must not modify it.
func (v *Voxset) XLocations() ([]float64, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if err := v.locationArrays(); err != nil {
		return nil, err
	}
	return v.xloc, nil
}

// YLocations returns the Y coordinate of every grid point, length ny.
// The returned slice is cached; callers must not modify it.
func (v *Voxset) YLocations() ([]float64, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if err := v.locationArrays(); err != nil {
		return nil, err
	}
	return v.yloc, nil
}

// ZLocations returns the Z coordinate of every grid point, length nz.
// The returned slice is cached; callers must not modify it.
func (v *Voxset) ZLocations() ([]float64, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if err := v.locationArrays(); err != nil {
		return nil, err
	}
	return v.zloc, nil
}

func (v *Voxset) checkIndex(axis string, idx, size int) error {
	if idx < 0 || idx >= size {
		return &IndexError{Axis: axis, Index: idx, Size: size}
	}
	return nil
}

// XYZ returns the spatial location of grid point (ix, iy, iz).
func (v *Voxset) XYZ(ix, iy, iz int) (x, y, z float64, err error) {
	if v.closed {
		return 0, 0, 0, ErrClosed
	}
	if err := v.checkIndex("x", ix, v.nx); err != nil {
		return 0, 0, 0, err
	}
	if err := v.checkIndex("y", iy, v.ny); err != nil {
		return 0, 0, 0, err
	}
	if err := v.checkIndex("z", iz, v.nz); err != nil {
		return 0, 0, 0, err
	}
	if err := v.locationArrays(); err != nil {
		return 0, 0, 0, err
	}
	return v.xloc[ix], v.yloc[iy], v.zloc[iz], nil
}

// Get returns the cell at (ix, iy, iz).
//
// The row holding the cell is fetched from storage only when it differs
// from the cached (plane, row) pair; every cell of a cached row is
// served from memory.
func (v *Voxset) Get(ix, iy, iz int) (Cell, error) {
	x, y, z, err := v.XYZ(ix, iy, iz)
	if err != nil {
		return Cell{}, err
	}

	if v.bufferedPlane != iz || v.bufferedRow != iy {
		if v.row == nil {
			v.row = dtype.NewBuffer(v.typ, v.nx)
		}
		if err := v.reader.ReadRow(context.Background(), iz, iy, v.row); err != nil {
			// A failed read leaves the buffer undefined.
			v.bufferedPlane, v.bufferedRow = -1, -1
			v.logger.LogRowRead(v.name, iz, iy, err)
			return Cell{}, err
		}
		if !v.isInt {
			v.row.DummyToNaN()
		}
		v.bufferedPlane, v.bufferedRow = iz, iy
		v.logger.LogRowRead(v.name, iz, iy, nil)
	}

	val, defined := v.row.Value(ix)
	return Cell{X: x, Y: y, Z: z, Value: val, Defined: defined}, nil
}

// GetLinear returns the cell at linear index i = iz*nx*ny + iy*nx + ix.
func (v *Voxset) GetLinear(i int) (Cell, error) {
	if v.closed {
		return Cell{}, ErrClosed
	}
	if i < 0 || i >= v.maxIter {
		return Cell{}, &IndexError{Axis: "linear", Index: i, Size: v.maxIter}
	}
	iz := i / (v.nx * v.ny)
	r := i % (v.nx * v.ny)
	ix := r % v.nx
	iy := r / v.nx
	return v.Get(ix, iy, iz)
}

// Metadata returns a copy of the voxset's metadata mapping.
// Mutations must go through SetMetadata so the dirty flag is kept.
func (v *Voxset) Metadata() metadata.Map {
	return v.meta.Clone()
}

// SetMetadata sets one metadata key. The mapping is flushed to the XML
// sidecar when the voxset is closed, and only then.
func (v *Voxset) SetMetadata(key, value string) error {
	if v.closed {
		return ErrClosed
	}
	if v.mode != ModeReadWrite {
		return ErrReadOnly
	}
	if v.meta == nil {
		v.meta = metadata.Map{}
	}
	v.meta[key] = value
	v.metaChanged = true
	return nil
}

// Close releases the storage handle, row buffer, and cached geometry,
// and flushes metadata if it was mutated. It is idempotent; operations
// after Close fail with ErrClosed.
//
// A failed metadata flush is reported in the returned error but never
// prevents resource release.
func (v *Voxset) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true

	var firstErr error
	if v.metaChanged {
		path := v.fileName + SidecarExtension
		data, err := metadata.Encode(v.meta)
		if err == nil {
			err = v.store.Put(context.Background(), path, data)
		}
		v.logger.LogMetadataFlush(path, err)
		if err != nil {
			firstErr = &MetadataWriteError{Path: path, cause: err}
		}
	}

	if err := v.reader.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	v.row = nil
	v.xloc, v.yloc, v.zloc = nil, nil, nil
	v.csCache = nil
	v.bufferedPlane, v.bufferedRow = -1, -1

	v.tracker.Pop(v.tracked)
	v.logger.LogClose(v.name, firstErr)
	return firstErr
}
