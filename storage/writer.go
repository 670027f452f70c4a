package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/voxgo/blobstore"
	"github.com/hupe1980/voxgo/codec"
	"github.com/hupe1980/voxgo/cs"
	"github.com/hupe1980/voxgo/dtype"
)

// Definition describes a container to be written.
type Definition struct {
	Type       dtype.Type
	NX, NY, NZ int

	// Origin is the coordinate of grid point (0, 0, 0).
	Origin [3]float64

	// Spacing per axis. Zero means 1. Set an axis to dtype.DummyFloat64
	// and provide the matching location array for non-uniform spacing.
	Spacing [3]float64

	XLocations []float64
	YLocations []float64
	ZLocations []float64

	CoordinateSystem *cs.CoordinateSystem
	Compression      Compression

	// Codec encodes the coordinate-system block. Nil means codec.Default.
	Codec codec.Codec
}

// Writer assembles a voxel container in memory and stores it as one
// blob. Rows may be supplied in any order; rows never supplied are
// written as all-dummy.
type Writer struct {
	hdr  Header
	cdc  codec.Codec
	locs [3][]float64

	rows [][]byte
	crcs []uint32
}

// NewWriter validates the definition and derives the grid geometry.
func NewWriter(def Definition) (*Writer, error) {
	hdr := Header{
		Type:        def.Type,
		Compression: def.Compression,
		NX:          def.NX,
		NY:          def.NY,
		NZ:          def.NZ,
		Origin:      def.Origin,
		Spacing:     def.Spacing,
	}
	if err := hdr.validate(); err != nil {
		return nil, err
	}

	w := &Writer{hdr: hdr, cdc: def.Codec}
	if w.cdc == nil {
		w.cdc = codec.Default
	}

	given := [3][]float64{def.XLocations, def.YLocations, def.ZLocations}
	dims := [3]int{def.NX, def.NY, def.NZ}
	axes := [3]string{"x", "y", "z"}
	for i := 0; i < 3; i++ {
		if def.Spacing[i] == dtype.DummyFloat64 {
			if len(given[i]) != dims[i] {
				return nil, fmt.Errorf("non-uniform %s axis needs %d locations, got %d",
					axes[i], dims[i], len(given[i]))
			}
			w.locs[i] = append([]float64(nil), given[i]...)
			continue
		}

		sp := def.Spacing[i]
		if sp == 0 {
			sp = 1
			w.hdr.Spacing[i] = 1
		}
		locs := make([]float64, dims[i])
		for j := range locs {
			locs[j] = def.Origin[i] + float64(j)*sp
		}
		w.locs[i] = locs
	}

	w.hdr.Extent = extentOf(w.locs)

	if def.CoordinateSystem != nil && !def.CoordinateSystem.IsUnknown() {
		blob, err := w.cdc.Marshal(def.CoordinateSystem)
		if err != nil {
			return nil, fmt.Errorf("failed to encode coordinate system: %w", err)
		}
		w.hdr.CSBlob = blob
	}
	w.hdr.CodecName = w.cdc.Name()

	w.rows = make([][]byte, hdr.Rows())
	w.crcs = make([]uint32, hdr.Rows())
	return w, nil
}

func extentOf(locs [3][]float64) Extent {
	minMax := func(v []float64) (float64, float64) {
		lo, hi := v[0], v[0]
		for _, x := range v[1:] {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		return lo, hi
	}
	var e Extent
	e.XMin, e.XMax = minMax(locs[0])
	e.YMin, e.YMax = minMax(locs[1])
	e.ZMin, e.ZMax = minMax(locs[2])
	return e
}

// Header returns the header as it will be written.
func (w *Writer) Header() Header { return w.hdr }

// SetRow stores the row at plane iz, row iy. buf must hold exactly NX
// elements of the container's type; its contents are captured at call
// time.
func (w *Writer) SetRow(iz, iy int, buf *dtype.Buffer) error {
	if iz < 0 || iz >= w.hdr.NZ {
		return fmt.Errorf("plane index %d out of range [0, %d)", iz, w.hdr.NZ)
	}
	if iy < 0 || iy >= w.hdr.NY {
		return fmt.Errorf("row index %d out of range [0, %d)", iy, w.hdr.NY)
	}
	if buf.Type() != w.hdr.Type || buf.Len() != w.hdr.NX {
		return fmt.Errorf("row buffer is %d×%s, container needs %d×%s",
			buf.Len(), buf.Type(), w.hdr.NX, w.hdr.Type)
	}

	stored, err := compressRow(w.hdr.Compression, buf.Raw())
	if err != nil {
		return err
	}
	// compressRow may alias the caller's buffer; keep our own copy.
	stored = append([]byte(nil), stored...)

	idx := iz*w.hdr.NY + iy
	w.rows[idx] = stored
	w.crcs[idx] = checksum(stored)
	return nil
}

// dummyRow encodes an all-dummy row block.
func (w *Writer) dummyRow() ([]byte, uint32, error) {
	buf := dtype.NewBuffer(w.hdr.Type, w.hdr.NX)
	for i := 0; i < w.hdr.NX; i++ {
		buf.SetFloat64(i, w.hdr.Type.Dummy())
	}
	stored, err := compressRow(w.hdr.Compression, buf.Raw())
	if err != nil {
		return nil, 0, err
	}
	return stored, checksum(stored), nil
}

// Encode assembles the container bytes.
func (w *Writer) Encode() ([]byte, error) {
	header, err := encodeHeader(w.hdr)
	if err != nil {
		return nil, err
	}

	// Rows never supplied share one all-dummy block.
	var dummy []byte
	var dummyCRC uint32
	for idx, row := range w.rows {
		if row != nil {
			continue
		}
		if dummy == nil {
			if dummy, dummyCRC, err = w.dummyRow(); err != nil {
				return nil, err
			}
		}
		w.rows[idx] = dummy
		w.crcs[idx] = dummyCRC
	}

	locLen := (w.hdr.NX + w.hdr.NY + w.hdr.NZ) * 8
	dirLen := len(w.rows)*dirEntryLen + 4

	total := len(header) + locLen + 4 + dirLen
	for _, row := range w.rows {
		total += len(row)
	}

	out := make([]byte, 0, total)
	out = append(out, header...)

	// Location arrays, one section, one CRC.
	locStart := len(out)
	var scratch [8]byte
	for axis := 0; axis < 3; axis++ {
		for _, v := range w.locs[axis] {
			putFloat64(scratch[:], v)
			out = append(out, scratch[:]...)
		}
	}
	binary.LittleEndian.PutUint32(scratch[:4], checksum(out[locStart:]))
	out = append(out, scratch[:4]...)

	// Row directory with absolute offsets, then the blocks themselves.
	rowsOff := uint64(len(out) + len(w.rows)*dirEntryLen + 4)
	dirStart := len(out)
	off := rowsOff
	for i, row := range w.rows {
		var e [dirEntryLen]byte
		binary.LittleEndian.PutUint64(e[0:8], off)
		binary.LittleEndian.PutUint32(e[8:12], uint32(len(row)))
		binary.LittleEndian.PutUint32(e[12:16], w.crcs[i])
		out = append(out, e[:]...)
		off += uint64(len(row))
	}
	binary.LittleEndian.PutUint32(scratch[:4], checksum(out[dirStart:]))
	out = append(out, scratch[:4]...)

	for _, row := range w.rows {
		out = append(out, row...)
	}
	return out, nil
}

// Flush encodes the container and writes it to the store as one blob.
func (w *Writer) Flush(ctx context.Context, store blobstore.Store, name string) error {
	data, err := w.Encode()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to store container %q: %w", name, err)
	}
	return nil
}
