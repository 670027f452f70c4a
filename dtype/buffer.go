package dtype

import (
	"encoding/binary"
	"math"
)

// Buffer is a reusable typed row buffer.
//
// Storage reads fill the raw byte view in bulk; callers then decode
// single elements through Value. A Buffer is sized once and overwritten
// by every fetch, so one allocation serves an entire traversal.
//
// Not safe for concurrent use.
type Buffer struct {
	typ Type
	n   int
	raw []byte
}

// NewBuffer allocates a buffer holding n elements of type t.
func NewBuffer(t Type, n int) *Buffer {
	return &Buffer{
		typ: t,
		n:   n,
		raw: make([]byte, n*t.Size()),
	}
}

// Type returns the element type.
func (b *Buffer) Type() Type { return b.typ }

// Len returns the number of elements.
func (b *Buffer) Len() int { return b.n }

// Raw returns the backing byte slice in little-endian element order.
// Storage reads write directly into it.
func (b *Buffer) Raw() []byte { return b.raw }

// Float64 decodes element i widened to float64, with no dummy handling.
func (b *Buffer) Float64(i int) float64 {
	switch b.typ {
	case Int8:
		return float64(int8(b.raw[i]))
	case Uint8:
		return float64(b.raw[i])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b.raw[i*2:])))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b.raw[i*2:]))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b.raw[i*4:])))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b.raw[i*4:]))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b.raw[i*4:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b.raw[i*8:]))
	default:
		return math.NaN()
	}
}

// Value decodes element i and translates the dummy sentinel.
// The second return is false for a missing cell.
//
// Integer rows keep their raw sentinel, so the comparison happens here.
// Float rows may already have been rewritten to NaN by DummyToNaN; both
// the NaN and the raw sentinel forms are recognized.
func (b *Buffer) Value(i int) (float64, bool) {
	v := b.Float64(i)
	if b.typ.IsInteger() {
		if v == b.typ.Dummy() {
			return 0, false
		}
		return v, true
	}
	if math.IsNaN(v) || v == b.typ.Dummy() {
		return 0, false
	}
	return v, true
}

// SetFloat64 encodes v into element i. NaN is stored as the type's dummy
// sentinel; out-of-range integer values are not range-checked.
func (b *Buffer) SetFloat64(i int, v float64) {
	if math.IsNaN(v) {
		v = b.typ.Dummy()
	}
	switch b.typ {
	case Int8:
		b.raw[i] = byte(int8(v))
	case Uint8:
		b.raw[i] = byte(uint8(v))
	case Int16:
		binary.LittleEndian.PutUint16(b.raw[i*2:], uint16(int16(v)))
	case Uint16:
		binary.LittleEndian.PutUint16(b.raw[i*2:], uint16(v))
	case Int32:
		binary.LittleEndian.PutUint32(b.raw[i*4:], uint32(int32(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(b.raw[i*4:], uint32(v))
	case Float32:
		binary.LittleEndian.PutUint32(b.raw[i*4:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(b.raw[i*8:], math.Float64bits(v))
	}
}

// DummyToNaN rewrites float dummy sentinels to NaN in place.
// It is a no-op for integer buffers and runs once per row fetch, not per
// cell.
func (b *Buffer) DummyToNaN() {
	switch b.typ {
	case Float32:
		nan := math.Float32bits(float32(math.NaN()))
		dummy := math.Float32bits(DummyFloat32)
		for i := 0; i < b.n; i++ {
			if binary.LittleEndian.Uint32(b.raw[i*4:]) == dummy {
				binary.LittleEndian.PutUint32(b.raw[i*4:], nan)
			}
		}
	case Float64:
		nan := math.Float64bits(math.NaN())
		dummy := math.Float64bits(DummyFloat64)
		for i := 0; i < b.n; i++ {
			if binary.LittleEndian.Uint64(b.raw[i*8:]) == dummy {
				binary.LittleEndian.PutUint64(b.raw[i*8:], nan)
			}
		}
	}
}
