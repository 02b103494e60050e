package pkdpx

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic means the container does not start with "PKDPX".
	ErrBadMagic = errors.New("bad PKDPX magic")
	// ErrBadOffset means a back-reference points before the start of the
	// output produced so far.
	ErrBadOffset = errors.New("back-reference offset out of range")
	// ErrSizeMismatch means the decompressed payload does not match the
	// length the container header declares.
	ErrSizeMismatch = errors.New("decompressed size mismatch")
)

// decode expands a raw PX opcode stream. flags is the 9-byte control-flag
// alphabet from the container header. The stream is a sequence of command
// groups: a control byte whose bits are consumed MSB-first, one command
// per bit. A set bit copies one literal byte; a clear bit reads an operand
// whose high nibble either selects a four-nibble expansion (when it appears
// in flags) or, together with the low nibble and one more byte, encodes a
// back-reference into the output window.
func decode(compressed []byte, flags []byte) ([]byte, error) {
	out := make([]byte, 0, len(compressed)*2)
	pos := 0

	for pos < len(compressed) {
		ctrl := compressed[pos]
		pos++
		for bit := 7; bit >= 0; bit-- {
			if pos >= len(compressed) {
				// Stream ended mid-group; remaining bits are padding.
				return out, nil
			}
			if ctrl&(1<<uint(bit)) != 0 {
				out = append(out, compressed[pos])
				pos++
				continue
			}

			x := compressed[pos]
			pos++
			high := x >> 4
			low := x & 0xF

			if idx := flagIndex(flags, high); idx >= 0 {
				a, b := expandNibbles(idx, low)
				out = append(out, a, b)
				continue
			}

			if pos >= len(compressed) {
				return out, nil
			}
			y := compressed[pos]
			pos++
			offset := (int(low)<<8 | int(y)) - 0x1000
			src := len(out) + offset
			if src < 0 {
				return nil, fmt.Errorf("%w: %d at output position %d", ErrBadOffset, offset, len(out))
			}
			run := int(high) + 3
			// Byte-wise copy so an overlapping run re-reads bytes written
			// earlier in the same run.
			for k := 0; k < run; k++ {
				out = append(out, out[src+k])
			}
		}
	}
	return out, nil
}

// flagIndex returns the first index in flags holding v, or -1.
func flagIndex(flags []byte, v byte) int {
	for i, f := range flags {
		if f == v {
			return i
		}
	}
	return -1
}

// expandNibbles produces the two bytes a control-flag operand stands for.
// Index 0 repeats low four times. Indices 1-4 fill with a base value and
// decrement the nibble at position idx-1; indices 5-8 fill and increment
// the nibble at position idx-5. The base is low±1 only when the adjusted
// position is 0, mirroring the encoder's asymmetry.
func expandNibbles(idx int, low byte) (byte, byte) {
	var n [4]byte
	switch {
	case idx == 0:
		n[0], n[1], n[2], n[3] = low, low, low, low
	case idx <= 4:
		p := idx - 1
		base := low
		if p == 0 {
			base = low + 1
		}
		for i := range n {
			n[i] = base
		}
		n[p] = base - 1
	default:
		p := idx - 5
		base := low
		if p == 0 {
			base = low - 1
		}
		for i := range n {
			n[i] = base
		}
		n[p] = base + 1
	}
	for i := range n {
		n[i] &= 0xF
	}
	return n[0]<<4 | n[1], n[2]<<4 | n[3]
}
