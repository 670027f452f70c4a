package storage

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxgo/blobstore"
	"github.com/hupe1980/voxgo/cs"
	"github.com/hupe1980/voxgo/dtype"
	"github.com/hupe1980/voxgo/resource"
)

func writeContainer(t *testing.T, store blobstore.Store, name string, def Definition, fill func(iz, iy int, buf *dtype.Buffer)) {
	t.Helper()

	w, err := NewWriter(def)
	require.NoError(t, err)

	if fill != nil {
		buf := dtype.NewBuffer(def.Type, def.NX)
		for iz := 0; iz < def.NZ; iz++ {
			for iy := 0; iy < def.NY; iy++ {
				fill(iz, iy, buf)
				require.NoError(t, w.SetRow(iz, iy, buf))
			}
		}
	}
	require.NoError(t, w.Flush(context.Background(), store, name))
}

func TestRoundTrip(t *testing.T) {
	types := []dtype.Type{
		dtype.Int8, dtype.Uint8, dtype.Int16, dtype.Uint16,
		dtype.Int32, dtype.Uint32, dtype.Float32, dtype.Float64,
	}
	compressions := []Compression{CompressionNone, CompressionLZ4, CompressionZstd}

	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	for _, typ := range types {
		for _, comp := range compressions {
			t.Run(typ.String()+"/"+comp.String(), func(t *testing.T) {
				def := Definition{
					Type: typ, NX: 7, NY: 3, NZ: 2,
					Origin:      [3]float64{1, 2, 3},
					Spacing:     [3]float64{1, 1, 1},
					Compression: comp,
				}
				name := "rt-" + typ.String() + "-" + comp.String()
				writeContainer(t, store, name, def, func(iz, iy int, buf *dtype.Buffer) {
					for ix := 0; ix < def.NX; ix++ {
						if ix == 2 {
							buf.SetFloat64(ix, math.NaN())
							continue
						}
						buf.SetFloat64(ix, float64(iz*100+iy*10+ix))
					}
				})

				r, err := Open(ctx, store, name)
				require.NoError(t, err)
				defer r.Close()

				hdr := r.Header()
				assert.Equal(t, typ, hdr.Type)
				assert.Equal(t, comp, hdr.Compression)
				assert.Equal(t, 7, hdr.NX)

				buf := dtype.NewBuffer(typ, def.NX)
				for iz := 0; iz < def.NZ; iz++ {
					for iy := 0; iy < def.NY; iy++ {
						require.NoError(t, r.ReadRow(ctx, iz, iy, buf))
						for ix := 0; ix < def.NX; ix++ {
							v, ok := buf.Value(ix)
							if ix == 2 {
								assert.False(t, ok)
								continue
							}
							require.True(t, ok)
							assert.Equal(t, float64(iz*100+iy*10+ix), v)
						}
					}
				}
			})
		}
	}
}

func TestHeaderGeometry(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	t.Run("uniform spacing derives extent", func(t *testing.T) {
		def := Definition{
			Type: dtype.Float64, NX: 3, NY: 2, NZ: 4,
			Origin:  [3]float64{10, 20, 30},
			Spacing: [3]float64{1, 2, 0}, // zero spacing means 1
		}
		writeContainer(t, store, "uniform", def, nil)

		r, err := Open(ctx, store, "uniform")
		require.NoError(t, err)
		defer r.Close()

		assert.Equal(t, [3]float64{1, 2, 1}, r.Header().Spacing)
		assert.Equal(t, Extent{
			XMin: 10, YMin: 20, ZMin: 30,
			XMax: 12, YMax: 22, ZMax: 33,
		}, r.Extent())
	})

	t.Run("non-uniform axis uses locations", func(t *testing.T) {
		def := Definition{
			Type: dtype.Float64, NX: 2, NY: 2, NZ: 3,
			Spacing:    [3]float64{1, 1, dtype.DummyFloat64},
			ZLocations: []float64{-5, 0, 12},
		}
		writeContainer(t, store, "nonuniform", def, nil)

		r, err := Open(ctx, store, "nonuniform")
		require.NoError(t, err)
		defer r.Close()

		assert.Equal(t, dtype.DummyFloat64, r.Header().Spacing[2])

		_, _, zs, err := r.LocationArrays(ctx)
		require.NoError(t, err)
		assert.Equal(t, []float64{-5, 0, 12}, zs)
		assert.Equal(t, -5.0, r.Extent().ZMin)
		assert.Equal(t, 12.0, r.Extent().ZMax)
	})

	t.Run("non-uniform axis without locations fails", func(t *testing.T) {
		_, err := NewWriter(Definition{
			Type: dtype.Float64, NX: 2, NY: 2, NZ: 3,
			Spacing: [3]float64{1, 1, dtype.DummyFloat64},
		})
		assert.Error(t, err)
	})

	t.Run("invalid definitions", func(t *testing.T) {
		_, err := NewWriter(Definition{Type: dtype.Invalid, NX: 1, NY: 1, NZ: 1})
		assert.Error(t, err)

		_, err = NewWriter(Definition{Type: dtype.Float64, NX: 0, NY: 1, NZ: 1})
		assert.Error(t, err)
	})
}

func TestLocationArrays(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	def := Definition{
		Type: dtype.Float32, NX: 4, NY: 3, NZ: 2,
		Origin:  [3]float64{0, 0, 100},
		Spacing: [3]float64{0.5, 2, 10},
	}
	writeContainer(t, store, "locs", def, nil)

	r, err := Open(ctx, store, "locs")
	require.NoError(t, err)
	defer r.Close()

	xs, ys, zs, err := r.LocationArrays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, xs)
	assert.Equal(t, []float64{0, 2, 4}, ys)
	assert.Equal(t, []float64{100, 110}, zs)
}

func TestCoordinateSystem(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	t.Run("absent decodes to unknown", func(t *testing.T) {
		def := Definition{Type: dtype.Float64, NX: 1, NY: 1, NZ: 1}
		writeContainer(t, store, "nocs", def, nil)

		r, err := Open(ctx, store, "nocs")
		require.NoError(t, err)
		defer r.Close()

		c, err := r.CoordinateSystem()
		require.NoError(t, err)
		assert.True(t, c.IsUnknown())
	})

	t.Run("round-trips through the codec", func(t *testing.T) {
		def := Definition{
			Type: dtype.Float64, NX: 1, NY: 1, NZ: 1,
			CoordinateSystem: &cs.CoordinateSystem{
				Name:  "NAD83 / UTM 15N",
				Datum: "NAD83",
				Units: "m",
			},
		}
		writeContainer(t, store, "withcs", def, nil)

		r, err := Open(ctx, store, "withcs")
		require.NoError(t, err)
		defer r.Close()

		c, err := r.CoordinateSystem()
		require.NoError(t, err)
		assert.Equal(t, "NAD83 / UTM 15N", c.Name)
		assert.Equal(t, "NAD83", c.Datum)
	})
}

func TestUnsuppliedRowsAreDummy(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	def := Definition{Type: dtype.Int32, NX: 3, NY: 2, NZ: 2}

	w, err := NewWriter(def)
	require.NoError(t, err)

	buf := dtype.NewBuffer(dtype.Int32, 3)
	for ix := 0; ix < 3; ix++ {
		buf.SetFloat64(ix, float64(ix))
	}
	require.NoError(t, w.SetRow(1, 0, buf))
	require.NoError(t, w.Flush(ctx, store, "sparse"))

	r, err := Open(ctx, store, "sparse")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.ReadRow(ctx, 0, 0, buf))
	for ix := 0; ix < 3; ix++ {
		_, ok := buf.Value(ix)
		assert.False(t, ok)
	}

	require.NoError(t, r.ReadRow(ctx, 1, 0, buf))
	v, ok := buf.Value(2)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestOpenRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	t.Run("missing blob", func(t *testing.T) {
		_, err := Open(ctx, store, "absent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("short blob", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "short", []byte("tiny")))
		_, err := Open(ctx, store, "short")
		assert.ErrorIs(t, err, ErrNotVoxel)
	})

	t.Run("bad magic", func(t *testing.T) {
		junk := make([]byte, 4096)
		copy(junk, "JUNK")
		require.NoError(t, store.Put(ctx, "junk", junk))
		_, err := Open(ctx, store, "junk")
		assert.ErrorIs(t, err, ErrNotVoxel)
	})
}

func TestChecksumDetection(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	def := Definition{Type: dtype.Float64, NX: 4, NY: 2, NZ: 1}

	w, err := NewWriter(def)
	require.NoError(t, err)
	data, err := w.Encode()
	require.NoError(t, err)

	t.Run("corrupt header", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[30] ^= 0xff
		require.NoError(t, store.Put(ctx, "badheader", bad))

		_, err := Open(ctx, store, "badheader")
		assert.True(t, IsChecksumMismatch(err), "got %v", err)
	})

	t.Run("corrupt row block", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0xff
		require.NoError(t, store.Put(ctx, "badrow", bad))

		r, err := Open(ctx, store, "badrow")
		require.NoError(t, err)
		defer r.Close()

		buf := dtype.NewBuffer(dtype.Float64, 4)
		err = r.ReadRow(ctx, 0, 1, buf)
		assert.True(t, IsChecksumMismatch(err), "got %v", err)

		var cme *ChecksumMismatchError
		require.ErrorAs(t, err, &cme)
		assert.Equal(t, "row (0, 1)", cme.Section)
	})
}

func TestReadRowValidation(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	def := Definition{Type: dtype.Float64, NX: 4, NY: 2, NZ: 2}
	writeContainer(t, store, "validate", def, nil)

	r, err := Open(ctx, store, "validate")
	require.NoError(t, err)
	defer r.Close()

	buf := dtype.NewBuffer(dtype.Float64, 4)
	assert.Error(t, r.ReadRow(ctx, 2, 0, buf))
	assert.Error(t, r.ReadRow(ctx, 0, -1, buf))
	assert.Error(t, r.ReadRow(ctx, 0, 0, dtype.NewBuffer(dtype.Float64, 3)))
	assert.Error(t, r.ReadRow(ctx, 0, 0, dtype.NewBuffer(dtype.Float32, 4)))
}

func TestReaderClose(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	def := Definition{Type: dtype.Float64, NX: 2, NY: 1, NZ: 1}
	writeContainer(t, store, "close", def, nil)

	r, err := Open(ctx, store, "close")
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	buf := dtype.NewBuffer(dtype.Float64, 2)
	assert.ErrorIs(t, r.ReadRow(ctx, 0, 0, buf), ErrClosed)
	_, _, _, err = r.LocationArrays(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.CoordinateSystem()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReaderWithController(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	def := Definition{Type: dtype.Float64, NX: 16, NY: 4, NZ: 2}
	writeContainer(t, store, "governed", def, func(iz, iy int, buf *dtype.Buffer) {
		for ix := 0; ix < def.NX; ix++ {
			buf.SetFloat64(ix, float64(ix))
		}
	})

	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	r, err := Open(ctx, store, "governed", func(o *Options) {
		o.Controller = ctrl
	})
	require.NoError(t, err)

	buf := dtype.NewBuffer(dtype.Float64, 16)
	for iz := 0; iz < 2; iz++ {
		for iy := 0; iy < 4; iy++ {
			require.NoError(t, r.ReadRow(ctx, iz, iy, buf))
		}
	}
	assert.Greater(t, ctrl.MemoryUsage(), int64(0))

	require.NoError(t, r.Close())
	assert.Equal(t, int64(0), ctrl.MemoryUsage(), "close must release scratch accounting")
}

func TestCompressionRoundTrip(t *testing.T) {
	raw := make([]byte, 1024)
	for i := range raw {
		raw[i] = byte(i / 64) // compressible
	}

	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(comp.String(), func(t *testing.T) {
			stored, err := compressRow(comp, raw)
			require.NoError(t, err)
			if comp != CompressionNone {
				assert.Less(t, len(stored), len(raw))
			}

			dst := make([]byte, len(raw))
			require.NoError(t, decompressRow(comp, stored, dst))
			assert.Equal(t, raw, dst)
		})
	}

	t.Run("incompressible data is stored raw", func(t *testing.T) {
		noise := make([]byte, 64)
		for i := range noise {
			noise[i] = byte(i*131 + 17)
		}
		stored, err := compressRow(CompressionLZ4, noise)
		require.NoError(t, err)
		assert.Equal(t, len(noise), len(stored))

		dst := make([]byte, len(noise))
		require.NoError(t, decompressRow(CompressionLZ4, stored, dst))
		assert.Equal(t, noise, dst)
	})
}
