package voxgo

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/voxgo/dtype"
)

// DefinedCells returns a bitmap of the defined (non-dummy) cells of
// plane iz, keyed by iy*nx + ix. The bitmap is built from a scratch
// buffer, so the row cache and iteration cursor are untouched.
func (v *Voxset) DefinedCells(iz int) (*roaring.Bitmap, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if err := v.checkIndex("z", iz, v.nz); err != nil {
		return nil, err
	}

	bm := roaring.New()
	buf := dtype.NewBuffer(v.typ, v.nx)
	ctx := context.Background()

	for iy := 0; iy < v.ny; iy++ {
		if err := v.reader.ReadRow(ctx, iz, iy, buf); err != nil {
			return nil, err
		}
		for ix := 0; ix < v.nx; ix++ {
			if _, defined := buf.Value(ix); defined {
				bm.Add(uint32(iy*v.nx + ix))
			}
		}
	}
	return bm, nil
}
