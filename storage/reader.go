package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/voxgo/blobstore"
	"github.com/hupe1980/voxgo/codec"
	"github.com/hupe1980/voxgo/cs"
	"github.com/hupe1980/voxgo/dtype"
	"github.com/hupe1980/voxgo/resource"
)

// ErrClosed is returned when reading from a closed Reader.
var ErrClosed = errors.New("storage: reader is closed")

// Options configures a Reader.
type Options struct {
	// Controller, when set, rate-limits row reads and accounts scratch
	// memory. Nil means unrestricted.
	Controller *resource.Controller
}

// Reader is an open voxel container. It is the storage handle the
// accessor layer consumes: header queries are free after open, row
// reads are one blob read each.
//
// Not safe for concurrent use.
type Reader struct {
	blob   blobstore.Blob
	hdr    Header
	locOff int64
	dir    []dirEntry
	ctrl   *resource.Controller

	scratch []byte // stored-row staging, grown on demand
	closed  bool
}

// Open opens the named container in the store and reads its header and
// row directory. Row data stays on storage until requested.
func Open(ctx context.Context, store blobstore.Store, name string, optFns ...func(*Options)) (*Reader, error) {
	var opts Options
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open container %q: %w", name, err)
	}

	hdr, locOff, err := decodeHeader(ctx, blob)
	if err != nil {
		blob.Close()
		return nil, err
	}

	r := &Reader{
		blob:   blob,
		hdr:    hdr,
		locOff: locOff,
		ctrl:   opts.Controller,
	}

	if err := r.readDirectory(ctx); err != nil {
		blob.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) locLen() int64 {
	return int64(r.hdr.NX+r.hdr.NY+r.hdr.NZ) * 8
}

func (r *Reader) readDirectory(ctx context.Context) error {
	nrows := r.hdr.Rows()
	dirOff := r.locOff + r.locLen() + 4

	raw := make([]byte, nrows*dirEntryLen+4)
	if _, err := r.blob.ReadAt(ctx, raw, dirOff); err != nil {
		return fmt.Errorf("%w: truncated row directory: %v", ErrNotVoxel, err)
	}

	body := raw[:nrows*dirEntryLen]
	want := binary.LittleEndian.Uint32(raw[len(body):])
	if got := checksum(body); got != want {
		return &ChecksumMismatchError{Section: "row directory", Expected: want, Actual: got}
	}

	r.dir = make([]dirEntry, nrows)
	for i := range r.dir {
		e := body[i*dirEntryLen:]
		r.dir[i] = dirEntry{
			off:    binary.LittleEndian.Uint64(e[0:8]),
			length: binary.LittleEndian.Uint32(e[8:12]),
			crc:    binary.LittleEndian.Uint32(e[12:16]),
		}
	}
	return nil
}

// Header returns the container header.
func (r *Reader) Header() Header { return r.hdr }

// Extent returns the spatial bounding box recorded in the header.
func (r *Reader) Extent() Extent { return r.hdr.Extent }

// CoordinateSystem decodes the coordinate-system block. An empty block
// decodes to the unknown coordinate system.
func (r *Reader) CoordinateSystem() (*cs.CoordinateSystem, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if len(r.hdr.CSBlob) == 0 {
		return cs.Unknown(), nil
	}

	c, ok := codec.ByName(r.hdr.CodecName)
	if !ok {
		return nil, fmt.Errorf("container uses unknown codec %q", r.hdr.CodecName)
	}

	out := &cs.CoordinateSystem{}
	if err := c.Unmarshal(r.hdr.CSBlob, out); err != nil {
		return nil, fmt.Errorf("failed to decode coordinate system: %w", err)
	}
	return out, nil
}

// LocationArrays reads the per-axis coordinate arrays. All three come
// back from a single storage read; the accessor caches them.
func (r *Reader) LocationArrays(ctx context.Context) (xs, ys, zs []float64, err error) {
	if r.closed {
		return nil, nil, nil, ErrClosed
	}

	n := int(r.locLen())
	raw := make([]byte, n+4)
	if _, err := r.blob.ReadAt(ctx, raw, r.locOff); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read location arrays: %w", err)
	}

	want := binary.LittleEndian.Uint32(raw[n:])
	if got := checksum(raw[:n]); got != want {
		return nil, nil, nil, &ChecksumMismatchError{Section: "location arrays", Expected: want, Actual: got}
	}

	decode := func(off, count int) []float64 {
		out := make([]float64, count)
		for i := range out {
			out[i] = getFloat64(raw[off+i*8:])
		}
		return out
	}

	xs = decode(0, r.hdr.NX)
	ys = decode(r.hdr.NX*8, r.hdr.NY)
	zs = decode((r.hdr.NX+r.hdr.NY)*8, r.hdr.NZ)
	return xs, ys, zs, nil
}

// ReadRow reads the row at plane iz, row iy into buf, overwriting its
// contents. buf must hold exactly NX elements of the container's type.
func (r *Reader) ReadRow(ctx context.Context, iz, iy int, buf *dtype.Buffer) error {
	if r.closed {
		return ErrClosed
	}
	if iz < 0 || iz >= r.hdr.NZ {
		return fmt.Errorf("plane index %d out of range [0, %d)", iz, r.hdr.NZ)
	}
	if iy < 0 || iy >= r.hdr.NY {
		return fmt.Errorf("row index %d out of range [0, %d)", iy, r.hdr.NY)
	}
	if buf.Type() != r.hdr.Type || buf.Len() != r.hdr.NX {
		return fmt.Errorf("row buffer is %d×%s, container needs %d×%s",
			buf.Len(), buf.Type(), r.hdr.NX, r.hdr.Type)
	}

	e := r.dir[iz*r.hdr.NY+iy]

	if err := r.ctrl.AcquireIO(ctx, int(e.length)); err != nil {
		return err
	}

	if cap(r.scratch) < int(e.length) {
		old := int64(cap(r.scratch))
		if err := r.ctrl.AcquireMemory(ctx, int64(e.length)-old); err != nil {
			return err
		}
		r.scratch = make([]byte, e.length)
	}
	stored := r.scratch[:e.length]

	if _, err := r.blob.ReadAt(ctx, stored, int64(e.off)); err != nil {
		return fmt.Errorf("failed to read row (%d, %d): %w", iz, iy, err)
	}
	if got := checksum(stored); got != e.crc {
		return &ChecksumMismatchError{
			Section:  fmt.Sprintf("row (%d, %d)", iz, iy),
			Expected: e.crc,
			Actual:   got,
		}
	}

	return decompressRow(r.hdr.Compression, stored, buf.Raw())
}

// Close releases the underlying blob. It is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.ctrl.ReleaseMemory(int64(cap(r.scratch)))
	r.scratch = nil
	return r.blob.Close()
}
