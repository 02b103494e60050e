// Package sniff classifies entry blobs by scanning leading bytes and the
// pointers SIR0 headers carry. Detection is heuristic and order-sensitive:
// probes run first-match, and a probe that would read out of bounds simply
// fails over to the next one.
package sniff

import (
	"bytes"

	"github.com/hailam/packfile/internal/ports"
	"github.com/hailam/packfile/internal/utils"
)

// Detect classifies data into one of the EntryKind tags.
func Detect(data []byte) ports.EntryKind {
	if len(data) < 16 {
		return ports.KindUnknown
	}

	if bytes.Equal(data[0:4], []byte("SIR0")) {
		return detectSIR0(data)
	}

	if len(data) >= 5 {
		switch {
		case bytes.Equal(data[0:5], []byte("AT4PX")):
			return ports.KindAT4PX
		case bytes.Equal(data[0:5], []byte("PKDPX")):
			return ports.KindPKDPX
		case bytes.Equal(data[0:4], []byte("WTU\x00")):
			return ports.KindWTU
		}
	}

	if len(data) >= 32 && utils.ReadU32(data, 0) == 32 {
		palLen := utils.ReadU32(data, 4)
		if palLen > 0 && palLen%16 == 0 {
			return ports.KindBGP
		}
	}

	if isDPL(data) {
		return ports.KindDPL
	}

	if utils.ReadU32(data, 0) == 2 {
		return ports.KindWBA
	}

	if len(data) == 24576 || len(data) == 1604 {
		return ports.KindRaw4BPP
	}

	return ports.KindUnknown
}

func detectSIR0(data []byte) ports.EntryKind {
	size := len(data)
	sp := int(utils.ReadU32(data, 4))

	if sp >= 0 && sp+32 <= size {
		pad1 := utils.ReadU32(data, sp+0x18)
		pad2 := utils.ReadU32(data, sp+0x1C)
		if pad1 == 0xAAAAAAAA && pad2 == 0xAAAAAAAA {
			imgPtr := int(utils.ReadU32(data, sp+0x0C))
			palPtr := int(utils.ReadU32(data, sp+0x10))
			if imgPtr > 0 && imgPtr < size && palPtr > 0 && palPtr < size {
				return ports.KindScreen
			}
		}

		spriteType := utils.ReadU16(data, sp+8)
		animPtr := int(utils.ReadU32(data, sp))
		imgPtr := int(utils.ReadU32(data, sp+4))
		if animPtr < size && imgPtr < size {
			switch spriteType {
			case 0, 1, 2:
				return ports.KindWAN
			case 3:
				return ports.KindWAT
			}
		}
	}

	if sp >= 0 && sp+16 <= size {
		switch {
		case bytes.Equal(data[sp:sp+5], []byte("AT4PX")):
			return ports.KindSIR0AT4PX
		case bytes.Equal(data[sp:sp+5], []byte("PKDPX")):
			return ports.KindSIR0PKDPX
		case bytes.Equal(data[sp:sp+4], []byte("WTE\x00")):
			return ports.KindWTE
		}

		if k, ok := probeDPLA(data, sp); ok {
			return k
		}
		if k, ok := probeCOLVEC(data, sp); ok {
			return k
		}
		if k, ok := probeZMAPPAT(data, sp); ok {
			return k
		}
		if k, ok := probeIMG(data, sp); ok {
			return k
		}
	}

	return ports.KindSIR0
}

// probeDPLA checks whether the subheader's first pointer lands on a DPLA
// animation block: either a color count in (0, 256] followed by the 0x80
// frame marker, or a zero count with the 0x04 mode byte.
func probeDPLA(data []byte, sp int) (ports.EntryKind, bool) {
	first := int(utils.ReadU32(data, sp))
	if first < 0 || first >= len(data) || first+8 > len(data) {
		return "", false
	}
	nbColors := int(utils.ReadU16(data, first))
	if nbColors > 0 && nbColors <= 256 {
		if data[first+7] == 0x80 {
			return ports.KindSIR0DPLA, true
		}
	} else if nbColors == 0 {
		if data[first+2] == 0x04 {
			return ports.KindSIR0DPLA, true
		}
	}
	return "", false
}

// probeCOLVEC checks the 0xFF markers on the first few 4-byte lanes.
func probeCOLVEC(data []byte, sp int) (ports.EntryKind, bool) {
	if data[sp+3] != 0xFF {
		return "", false
	}
	lanes := (len(data) - sp) / 4
	if lanes > 4 {
		lanes = 4
	}
	for i := 0; i < lanes; i++ {
		if data[sp+i*4+3] != 0xFF {
			return "", false
		}
	}
	return ports.KindSIR0COLVEC, true
}

// probeZMAPPAT looks for the fixed 3072-byte tile block preceding the
// palette pointer.
func probeZMAPPAT(data []byte, sp int) (ports.EntryKind, bool) {
	tiles := int(utils.ReadU32(data, sp))
	pal := int(utils.ReadU32(data, sp+4))
	if tiles > 0 && tiles < len(data) && pal > 0 && pal < len(data) &&
		tiles < pal && pal-tiles == 3072 {
		return ports.KindSIR0ZMAPPAT, true
	}
	return "", false
}

func probeIMG(data []byte, sp int) (ports.EntryKind, bool) {
	spr := int(utils.ReadU32(data, sp+4))
	pal := int(utils.ReadU32(data, sp+8))
	if spr > 0 && spr < len(data) && pal > 0 && pal < len(data) {
		return ports.KindSIR0IMG, true
	}
	return "", false
}

func isDPL(data []byte) bool {
	if len(data) < 16 || len(data)%4 != 0 {
		return false
	}
	limit := len(data)
	if limit > 64 {
		limit = 64
	}
	for i := 3; i < limit; i += 4 {
		if data[i] != 0x80 {
			return false
		}
	}
	return true
}
