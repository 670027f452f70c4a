package storage

import (
	"fmt"
	"hash/crc32"
)

// CRC32 (IEEE) guards every section and row block. It detects storage
// corruption; it is not tamper-proof.

func checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// ChecksumMismatchError is returned when a section or row block fails
// CRC verification.
type ChecksumMismatchError struct {
	Section  string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("storage: %s checksum mismatch: expected 0x%08x, got 0x%08x",
		e.Section, e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	_, ok := err.(*ChecksumMismatchError)
	return ok
}
