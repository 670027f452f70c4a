package dtype

import "fmt"

// Type identifies the scalar type of a voxel grid.
type Type uint8

const (
	// Invalid is the zero value. It is not a usable grid type.
	Invalid Type = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// DummyFloat64 is the reserved "no data" value for float64 grids.
//
// It is also the out-of-band marker the storage header uses for
// non-uniform axis spacing: a spacing field equal to DummyFloat64 means
// "consult the location arrays". The storage layer deliberately does not
// use NaN for this, so the sentinel survives equality comparison.
const DummyFloat64 = -1.0e32

// DummyFloat32 is the reserved "no data" value for float32 grids.
const DummyFloat32 = float32(-1.0e32)

// Integer dummy sentinels per width.
const (
	DummyInt8   = int8(-127)
	DummyUint8  = uint8(255)
	DummyInt16  = int16(-32767)
	DummyUint16 = uint16(65535)
	DummyInt32  = int32(-2147483647)
	DummyUint32 = uint32(4294967294)
)

var typeNames = map[Type]string{
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Float32: "float32",
	Float64: "float64",
}

// String returns the canonical name of the type.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("dtype.Type(%d)", uint8(t))
}

// Valid reports whether t is one of the defined grid types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Size returns the encoded size of one element in bytes.
func (t Type) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether t is an integer type. Integer grids keep the
// raw dummy sentinel in row buffers and translate it per cell; float
// grids are converted to NaN once per row fetch.
func (t Type) IsInteger() bool {
	switch t {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32:
		return true
	default:
		return false
	}
}

// Dummy returns the type's "no data" sentinel widened to float64.
//
// The widened value compares exactly against decoded elements for every
// supported type: integer sentinels are well inside the float64 integer
// range, and both float sentinels are exact binary fractions.
func (t Type) Dummy() float64 {
	switch t {
	case Int8:
		return float64(DummyInt8)
	case Uint8:
		return float64(DummyUint8)
	case Int16:
		return float64(DummyInt16)
	case Uint16:
		return float64(DummyUint16)
	case Int32:
		return float64(DummyInt32)
	case Uint32:
		return float64(DummyUint32)
	case Float32:
		return float64(DummyFloat32)
	case Float64:
		return DummyFloat64
	default:
		return DummyFloat64
	}
}
