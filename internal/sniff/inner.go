package sniff

import (
	"github.com/hailam/packfile/internal/pkdpx"
	"github.com/hailam/packfile/internal/ports"
)

// DetectInner classifies data, looking through a PKDPX wrapper when one is
// present: the payload is decompressed and the inner bytes classified
// instead. Entries of any other kind report their outer kind unchanged.
func DetectInner(data []byte) (ports.EntryKind, error) {
	kind := Detect(data)
	if kind != ports.KindPKDPX {
		return kind, nil
	}
	inner, err := pkdpx.Decompress(data)
	if err != nil {
		return kind, err
	}
	return Detect(inner), nil
}
