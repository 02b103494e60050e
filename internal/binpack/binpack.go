// Package binpack implements the BinPack container format.
//
// Layout:
//
//	Header (8 bytes):
//	    4 bytes padding (0x00), 4 bytes entry count (u32le)
//	TOC (8 bytes per entry + 8-byte null terminator):
//	    4 bytes offset, 4 bytes length (both u32le)
//	Data: 16-byte aligned, 0xFF padded.
package binpack

import (
	"errors"
	"fmt"

	"github.com/hailam/packfile/internal/utils"
)

const (
	// Alignment is the boundary every data region starts on.
	Alignment = 16

	headerSize        = 8
	tocEntrySize      = 8
	tocTerminatorSize = 8

	// MaxEntries is the gate bound on the declared entry count.
	MaxEntries = 10000
)

var (
	// ErrTooSmall means the buffer cannot hold even an empty container.
	ErrTooSmall = errors.New("buffer too small for a pack")
	// ErrInvalidPack means the gate validation rejected the buffer.
	ErrInvalidPack = errors.New("invalid pack")
	// ErrEmptyEntry means serialization found an empty pack or entry.
	ErrEmptyEntry = errors.New("empty entry")
)

// BinPack is an ordered sequence of entry blobs plus the header length
// observed at parse time, kept so a rewrite preserves oversized headers.
type BinPack struct {
	files     [][]byte
	headerLen int // 0 when no header length was recorded
}

// New returns an empty pack.
func New() *BinPack {
	return &BinPack{}
}

// Parse reads a pack from data. Beyond the minimum length check it trusts
// the TOC; callers handing over untrusted buffers run ValidateHeader first.
func Parse(data []byte) (*BinPack, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
	}
	p := &BinPack{}
	numFiles := int(utils.ReadU32(data, 4))
	if numFiles > 0 {
		// The first TOC offset doubles as the original header length.
		p.headerLen = int(utils.ReadU32(data, headerSize))
	}
	for i := 0; i < numFiles; i++ {
		toc := headerSize + i*tocEntrySize
		if toc+tocEntrySize > len(data) {
			break
		}
		ptr := int(utils.ReadU32(data, toc))
		length := int(utils.ReadU32(data, toc+4))
		start, end := clampRange(ptr, ptr+length, len(data))
		p.files = append(p.files, append([]byte(nil), data[start:end]...))
	}
	return p, nil
}

// clampRange confines [start, end) to [0, max).
func clampRange(start, end, max int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > max {
		start = max
	}
	if end < start {
		end = start
	}
	if end > max {
		end = max
	}
	return start, end
}

// ValidateHeader is the gate applied to bytes claimed to be a pack file.
func ValidateHeader(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("%w: file too small (%d bytes)", ErrInvalidPack, len(data))
	}
	if data[0] != 0 || data[1] != 0 || data[2] != 0 || data[3] != 0 {
		return fmt.Errorf("%w: bad leading padding", ErrInvalidPack)
	}
	count := utils.ReadU32(data, 4)
	if count == 0 || count > MaxEntries {
		return fmt.Errorf("%w: unreasonable entry count (%d)", ErrInvalidPack, count)
	}
	return nil
}

// Len returns the number of entries.
func (p *BinPack) Len() int { return len(p.files) }

// HeaderLen reports the header length recorded at parse time, 0 if none.
func (p *BinPack) HeaderLen() int { return p.headerLen }

// Get returns the entry at i. The caller must not mutate the result.
func (p *BinPack) Get(i int) []byte { return p.files[i] }

// Set replaces the entry at i.
func (p *BinPack) Set(i int, data []byte) { p.files[i] = data }

// Insert places data at index i, shifting later entries up. Indices outside
// [0, Len] clamp to the nearest end.
func (p *BinPack) Insert(i int, data []byte) {
	if i < 0 {
		i = 0
	}
	if i > len(p.files) {
		i = len(p.files)
	}
	p.files = append(p.files, nil)
	copy(p.files[i+1:], p.files[i:])
	p.files[i] = data
}

// Append adds data as the last entry.
func (p *BinPack) Append(data []byte) { p.files = append(p.files, data) }

// Remove deletes the entry at i.
func (p *BinPack) Remove(i int) {
	p.files = append(p.files[:i], p.files[i+1:]...)
}

// Clear removes all entries.
func (p *BinPack) Clear() { p.files = p.files[:0] }

// Extend appends every blob in items.
func (p *BinPack) Extend(items [][]byte) { p.files = append(p.files, items...) }

// Entries returns a read-only view of the entry sequence. The slice is a
// copy; the blobs are shared.
func (p *BinPack) Entries() [][]byte {
	out := make([][]byte, len(p.files))
	copy(out, p.files)
	return out
}

func (p *BinPack) validate() error {
	if len(p.files) == 0 {
		return fmt.Errorf("%w: pack has no entries", ErrEmptyEntry)
	}
	for i, f := range p.files {
		if len(f) == 0 {
			return fmt.Errorf("%w: entry %d", ErrEmptyEntry, i)
		}
	}
	return nil
}

func (p *BinPack) calcHeaderLen() int {
	min := utils.AlignUp(headerSize+len(p.files)*tocEntrySize+tocTerminatorSize, Alignment)
	if p.headerLen >= min {
		return p.headerLen
	}
	return min
}

// Bytes serializes the pack. Every data region starts on a 16-byte
// boundary and all padding is 0xFF.
func (p *BinPack) Bytes() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	headerLen := p.calcHeaderLen()
	total := headerLen
	for _, f := range p.files {
		total += utils.AlignUp(len(f), Alignment)
	}

	out := make([]byte, total)
	for i := range out {
		out[i] = 0xFF
	}

	utils.PutU32(out, 0, 0)
	utils.PutU32(out, 4, uint32(len(p.files)))

	dataCursor := headerLen
	tocCursor := headerSize
	for _, f := range p.files {
		utils.PutU32(out, tocCursor, uint32(dataCursor))
		utils.PutU32(out, tocCursor+4, uint32(len(f)))
		copy(out[dataCursor:], f)
		dataCursor = utils.AlignUp(dataCursor+len(f), Alignment)
		tocCursor += tocEntrySize
	}

	// TOC null terminator.
	utils.PutU32(out, tocCursor, 0)
	utils.PutU32(out, tocCursor+4, 0)

	return out, nil
}
