package dtype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Strings(t *testing.T) {
	assert.Equal(t, "int16", Int16.String())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, "dtype.Type(0)", Invalid.String())
	assert.Equal(t, "dtype.Type(99)", Type(99).String())
}

func TestType_Valid(t *testing.T) {
	assert.True(t, Uint32.Valid())
	assert.False(t, Invalid.Valid())
	assert.False(t, Type(42).Valid())
}

func TestType_Size(t *testing.T) {
	assert.Equal(t, 1, Int8.Size())
	assert.Equal(t, 1, Uint8.Size())
	assert.Equal(t, 2, Int16.Size())
	assert.Equal(t, 2, Uint16.Size())
	assert.Equal(t, 4, Int32.Size())
	assert.Equal(t, 4, Uint32.Size())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 0, Invalid.Size())
}

func TestType_Dummy(t *testing.T) {
	assert.Equal(t, -127.0, Int8.Dummy())
	assert.Equal(t, 255.0, Uint8.Dummy())
	assert.Equal(t, -32767.0, Int16.Dummy())
	assert.Equal(t, 65535.0, Uint16.Dummy())
	assert.Equal(t, -2147483647.0, Int32.Dummy())
	assert.Equal(t, 4294967294.0, Uint32.Dummy())
	assert.Equal(t, float64(DummyFloat32), Float32.Dummy())
	assert.Equal(t, DummyFloat64, Float64.Dummy())
}

func TestBuffer_RoundTrip(t *testing.T) {
	types := []Type{Int8, Uint8, Int16, Uint16, Int32, Uint32, Float32, Float64}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			b := NewBuffer(typ, 4)
			assert.Equal(t, typ, b.Type())
			assert.Equal(t, 4, b.Len())
			assert.Equal(t, 4*typ.Size(), len(b.Raw()))

			b.SetFloat64(0, 0)
			b.SetFloat64(1, 42)
			b.SetFloat64(2, math.NaN())
			b.SetFloat64(3, 100)

			v, ok := b.Value(0)
			require.True(t, ok)
			assert.Equal(t, 0.0, v)

			v, ok = b.Value(1)
			require.True(t, ok)
			assert.Equal(t, 42.0, v)

			v, ok = b.Value(2)
			assert.False(t, ok, "NaN must round-trip as undefined")
			assert.Zero(t, v)

			v, ok = b.Value(3)
			require.True(t, ok)
			assert.Equal(t, 100.0, v)
		})
	}
}

func TestBuffer_NegativeValues(t *testing.T) {
	for _, typ := range []Type{Int8, Int16, Int32, Float32, Float64} {
		t.Run(typ.String(), func(t *testing.T) {
			b := NewBuffer(typ, 1)
			b.SetFloat64(0, -42)

			v, ok := b.Value(0)
			require.True(t, ok)
			assert.Equal(t, -42.0, v)
		})
	}
}

func TestBuffer_IntegerSentinel(t *testing.T) {
	b := NewBuffer(Uint8, 2)
	b.SetFloat64(0, 254)
	b.SetFloat64(1, float64(DummyUint8))

	v, ok := b.Value(0)
	require.True(t, ok)
	assert.Equal(t, 254.0, v)

	// Writing the raw sentinel value is the same as writing NaN.
	_, ok = b.Value(1)
	assert.False(t, ok)
}

func TestBuffer_DummyToNaN(t *testing.T) {
	t.Run("float64", func(t *testing.T) {
		b := NewBuffer(Float64, 3)
		b.SetFloat64(0, 1.5)
		b.SetFloat64(1, math.NaN())
		b.SetFloat64(2, 2.5)

		b.DummyToNaN()

		assert.Equal(t, 1.5, b.Float64(0))
		assert.True(t, math.IsNaN(b.Float64(1)))
		assert.Equal(t, 2.5, b.Float64(2))
	})

	t.Run("float32", func(t *testing.T) {
		b := NewBuffer(Float32, 2)
		b.SetFloat64(0, math.NaN())
		b.SetFloat64(1, 7)

		b.DummyToNaN()

		assert.True(t, math.IsNaN(b.Float64(0)))
		assert.Equal(t, 7.0, b.Float64(1))
	})

	t.Run("integer is a no-op", func(t *testing.T) {
		b := NewBuffer(Int16, 2)
		b.SetFloat64(0, math.NaN())
		b.SetFloat64(1, 3)

		b.DummyToNaN()

		// The raw sentinel stays in place for integer buffers.
		assert.Equal(t, float64(DummyInt16), b.Float64(0))
		_, ok := b.Value(0)
		assert.False(t, ok)
	})
}
