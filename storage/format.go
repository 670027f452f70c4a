package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/voxgo/blobstore"
	"github.com/hupe1980/voxgo/dtype"
)

var containerMagic = [4]byte{'V', 'O', 'X', '1'}

const (
	containerVersion = uint16(1)

	// magic(4) version(2) flags(2) dtype(1) compression(1) reserved(6)
	// dims(12) origin(24) spacing(24) extent(48)
	fixedHeaderLen = 124

	dirEntryLen = 16 // offset(8) length(4) crc(4)
)

// ErrNotVoxel is returned when a blob is not a voxel container.
var ErrNotVoxel = errors.New("storage: not a voxel container")

// Extent is the spatial bounding box of a grid.
type Extent struct {
	XMin, YMin, ZMin float64
	XMax, YMax, ZMax float64
}

// Header describes an open container.
type Header struct {
	Type        dtype.Type
	Compression Compression
	NX, NY, NZ  int
	Origin      [3]float64
	// Spacing per axis; dtype.DummyFloat64 marks a non-uniform axis
	// whose geometry lives in the location arrays instead.
	Spacing   [3]float64
	Extent    Extent
	CodecName string
	CSBlob    []byte
}

// Rows returns the number of row blocks in the container.
func (h Header) Rows() int { return h.NY * h.NZ }

// RowSize returns the raw byte size of one row block.
func (h Header) RowSize() int { return h.NX * h.Type.Size() }

// Cells returns the total number of grid cells.
func (h Header) Cells() int { return h.NX * h.NY * h.NZ }

func (h Header) validate() error {
	if !h.Type.Valid() {
		return fmt.Errorf("invalid value type: %s", h.Type)
	}
	if !h.Compression.Valid() {
		return fmt.Errorf("invalid compression: %d", uint8(h.Compression))
	}
	if h.NX <= 0 || h.NY <= 0 || h.NZ <= 0 {
		return fmt.Errorf("invalid dimensions (%d, %d, %d)", h.NX, h.NY, h.NZ)
	}
	return nil
}

type dirEntry struct {
	off    uint64
	length uint32
	crc    uint32
}

func putFloat64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

func getFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// encodeHeader serializes h including the trailing header CRC.
func encodeHeader(h Header) ([]byte, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if len(h.CodecName) > math.MaxUint16 {
		return nil, fmt.Errorf("codec name too long: %d bytes", len(h.CodecName))
	}

	buf := make([]byte, fixedHeaderLen, fixedHeaderLen+2+len(h.CodecName)+4+len(h.CSBlob)+4)
	copy(buf[0:4], containerMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], containerVersion)
	// buf[6:8] flags, reserved
	buf[8] = byte(h.Type)
	buf[9] = byte(h.Compression)
	// buf[10:16] reserved
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.NX))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(h.NY))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.NZ))
	for i := 0; i < 3; i++ {
		putFloat64(buf[28+i*8:], h.Origin[i])
		putFloat64(buf[52+i*8:], h.Spacing[i])
	}
	putFloat64(buf[76:], h.Extent.XMin)
	putFloat64(buf[84:], h.Extent.YMin)
	putFloat64(buf[92:], h.Extent.ZMin)
	putFloat64(buf[100:], h.Extent.XMax)
	putFloat64(buf[108:], h.Extent.YMax)
	putFloat64(buf[116:], h.Extent.ZMax)

	var lenBytes [4]byte
	binary.LittleEndian.PutUint16(lenBytes[:2], uint16(len(h.CodecName)))
	buf = append(buf, lenBytes[:2]...)
	buf = append(buf, h.CodecName...)
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(h.CSBlob)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, h.CSBlob...)

	binary.LittleEndian.PutUint32(lenBytes[:], checksum(buf))
	buf = append(buf, lenBytes[:]...)
	return buf, nil
}

// decodeHeader reads and verifies the header from the start of a blob.
// It returns the header and the file offset of the first byte after it.
func decodeHeader(ctx context.Context, blob blobstore.Blob) (Header, int64, error) {
	var h Header

	prefix := make([]byte, fixedHeaderLen+2)
	if _, err := blob.ReadAt(ctx, prefix, 0); err != nil {
		return h, 0, fmt.Errorf("%w: short read: %v", ErrNotVoxel, err)
	}
	if [4]byte(prefix[0:4]) != containerMagic {
		return h, 0, fmt.Errorf("%w: bad magic", ErrNotVoxel)
	}
	if v := binary.LittleEndian.Uint16(prefix[4:6]); v != containerVersion {
		return h, 0, fmt.Errorf("%w: unsupported version %d", ErrNotVoxel, v)
	}

	nameLen := int(binary.LittleEndian.Uint16(prefix[fixedHeaderLen:]))

	// Second probe to learn the CS blob length, then one full read of
	// the header region so the CRC covers contiguous bytes.
	probe := make([]byte, 4)
	csLenOff := int64(fixedHeaderLen + 2 + nameLen)
	if _, err := blob.ReadAt(ctx, probe, csLenOff); err != nil {
		return h, 0, fmt.Errorf("%w: truncated header: %v", ErrNotVoxel, err)
	}
	csLen := int(binary.LittleEndian.Uint32(probe))

	headerLen := fixedHeaderLen + 2 + nameLen + 4 + csLen
	full := make([]byte, headerLen+4)
	if _, err := blob.ReadAt(ctx, full, 0); err != nil {
		return h, 0, fmt.Errorf("%w: truncated header: %v", ErrNotVoxel, err)
	}

	want := binary.LittleEndian.Uint32(full[headerLen:])
	if got := checksum(full[:headerLen]); got != want {
		return h, 0, &ChecksumMismatchError{Section: "header", Expected: want, Actual: got}
	}

	h.Type = dtype.Type(full[8])
	h.Compression = Compression(full[9])
	h.NX = int(binary.LittleEndian.Uint32(full[16:20]))
	h.NY = int(binary.LittleEndian.Uint32(full[20:24]))
	h.NZ = int(binary.LittleEndian.Uint32(full[24:28]))
	for i := 0; i < 3; i++ {
		h.Origin[i] = getFloat64(full[28+i*8:])
		h.Spacing[i] = getFloat64(full[52+i*8:])
	}
	h.Extent = Extent{
		XMin: getFloat64(full[76:]),
		YMin: getFloat64(full[84:]),
		ZMin: getFloat64(full[92:]),
		XMax: getFloat64(full[100:]),
		YMax: getFloat64(full[108:]),
		ZMax: getFloat64(full[116:]),
	}
	h.CodecName = string(full[fixedHeaderLen+2 : fixedHeaderLen+2+nameLen])
	h.CSBlob = append([]byte(nil), full[fixedHeaderLen+2+nameLen+4:headerLen]...)

	if err := h.validate(); err != nil {
		return h, 0, fmt.Errorf("%w: %v", ErrNotVoxel, err)
	}
	return h, int64(headerLen + 4), nil
}
