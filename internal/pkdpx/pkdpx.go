// Package pkdpx implements the PKDPX compressed container and the raw PX
// codec it wraps. PX is a nibble-packed LZ77 variant: the opcode stream
// mixes literals, two-byte four-nibble expansions selected by a per-file
// control-flag alphabet, and back-references into a 4096-byte window.
package pkdpx

import (
	"bytes"
	"fmt"

	"github.com/hailam/packfile/internal/utils"
)

// Magic identifies a PKDPX container.
var Magic = []byte("PKDPX")

const (
	headerSize = 20

	offContainerLen    = 5
	offFlags           = 7
	offUncompressedLen = 16
)

// Compress wraps data in a full PKDPX container.
func Compress(data []byte) []byte {
	flags, payload := compress(data)

	out := make([]byte, headerSize+len(payload))
	copy(out, Magic)
	utils.PutU16(out, offContainerLen, uint16(headerSize+len(payload)))
	copy(out[offFlags:], flags[:])
	utils.PutU32(out, offUncompressedLen, uint32(len(data)))
	copy(out[headerSize:], payload)
	return out
}

// Decompress expands a full PKDPX container back to the original bytes.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, ErrBadMagic
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrSizeMismatch, len(data))
	}

	containerLen := int(utils.ReadU16(data, offContainerLen))
	if containerLen < headerSize || containerLen > len(data) {
		return nil, fmt.Errorf("%w: container length %d outside buffer of %d",
			ErrSizeMismatch, containerLen, len(data))
	}
	flags := data[offFlags : offFlags+numCtrlFlags]
	uncompressedLen := int(utils.ReadU32(data, offUncompressedLen))

	out, err := decode(data[headerSize:containerLen], flags)
	if err != nil {
		return nil, err
	}
	if len(out) != uncompressedLen {
		return nil, fmt.Errorf("%w: got %d bytes, header says %d",
			ErrSizeMismatch, len(out), uncompressedLen)
	}
	return out, nil
}
