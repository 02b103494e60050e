package ports

// EntryKind is the identifier for each recognized entry format.
type EntryKind string

const (
	KindSIR0        EntryKind = "SIR0"
	KindSIR0AT4PX   EntryKind = "SIR0(AT4PX)"
	KindSIR0PKDPX   EntryKind = "SIR0(PKDPX)"
	KindSIR0DPLA    EntryKind = "SIR0(DPLA)"
	KindSIR0IMG     EntryKind = "SIR0(IMG)"
	KindSIR0COLVEC  EntryKind = "SIR0(COLVEC)"
	KindSIR0ZMAPPAT EntryKind = "SIR0(ZMAPPAT)"
	KindWAN         EntryKind = "WAN"
	KindWAT         EntryKind = "WAT"
	KindScreen      EntryKind = "Screen"
	KindWTE         EntryKind = "WTE"
	KindAT4PX       EntryKind = "AT4PX"
	KindPKDPX       EntryKind = "PKDPX"
	KindWTU         EntryKind = "WTU"
	KindBGP         EntryKind = "BGP"
	KindDPL         EntryKind = "DPL"
	KindWBA         EntryKind = "WBA"
	KindRaw4BPP     EntryKind = "RAW_4BPP"
	KindUnknown     EntryKind = "Unknown"
)

// Ext returns the file extension used when exporting an entry of this kind.
func (k EntryKind) Ext() string {
	switch k {
	case KindWAN:
		return ".wan"
	case KindWAT:
		return ".wat"
	case KindScreen:
		return ".screen"
	case KindWBA:
		return ".wba"
	case KindAT4PX, KindSIR0AT4PX:
		return ".at4px"
	case KindPKDPX, KindSIR0PKDPX:
		return ".pkdpx"
	case KindWTE:
		return ".wte"
	case KindWTU:
		return ".wtu"
	case KindSIR0DPLA:
		return ".dpla"
	case KindSIR0IMG, KindRaw4BPP:
		return ".img"
	case KindSIR0COLVEC:
		return ".colvec"
	case KindSIR0ZMAPPAT:
		return ".zmappat"
	case KindBGP:
		return ".bgp"
	case KindDPL:
		return ".dpl"
	default:
		// SIR0 and Unknown both export as plain binary.
		return ".bin"
	}
}
