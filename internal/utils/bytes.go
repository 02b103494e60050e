package utils

import (
	"encoding/binary"
	"fmt"
)

// ReadU16 decodes a little-endian uint16 at off. The caller ensures
// off+2 <= len(buf).
func ReadU16(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off:])
}

// ReadU32 decodes a little-endian uint32 at off. The caller ensures
// off+4 <= len(buf).
func ReadU32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

// PutU16 encodes v little-endian at off.
func PutU16(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:], v)
}

// PutU32 encodes v little-endian at off.
func PutU32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

// AlignUp returns the smallest multiple of align that is >= v.
// align must be a power of two.
func AlignUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

// FormatSize renders a byte count as a short human-readable string.
func FormatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	}
}
