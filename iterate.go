package voxgo

import "iter"

// Next advances the voxset's iteration cursor and returns the next
// cell in linear order (X fastest, then Y, then Z). It returns false
// when the grid is exhausted or a read fails; Err distinguishes the
// two. After exhaustion the cursor rewinds, so the next Next call
// starts a fresh pass.
//
// Because consecutive cells share rows, a full pass costs one storage
// read per row, not per cell.
func (v *Voxset) Next() (Cell, bool) {
	if v.closed {
		v.iterErr = ErrClosed
		return Cell{}, false
	}
	if v.cursor >= v.maxIter {
		v.cursor = 0
		return Cell{}, false
	}

	c, err := v.GetLinear(v.cursor)
	if err != nil {
		v.iterErr = err
		return Cell{}, false
	}
	v.cursor++
	return c, true
}

// Err returns the error that stopped the last iteration, or nil if it
// ran to completion.
func (v *Voxset) Err() error { return v.iterErr }

// Reset rewinds the iteration cursor to the first cell and clears any
// iteration error.
func (v *Voxset) Reset() {
	v.cursor = 0
	v.iterErr = nil
}

// Cells returns an iterator over every cell in linear order. Iteration
// always starts at the first cell regardless of the cursor position,
// and a read failure is yielded once as a non-nil error, terminating
// the sequence.
func (v *Voxset) Cells() iter.Seq2[Cell, error] {
	return func(yield func(Cell, error) bool) {
		v.Reset()
		for {
			c, ok := v.Next()
			if !ok {
				if v.iterErr != nil {
					yield(Cell{}, v.iterErr)
				}
				return
			}
			if !yield(c, nil) {
				v.Reset()
				return
			}
		}
	}
}
