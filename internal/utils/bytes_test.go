package utils

import "testing"

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, align, want int
	}{
		{0, 16, 0},
		{1, 16, 16},
		{15, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{24, 16, 32},
		{32, 16, 32},
		{5, 4, 8},
		{4096, 16, 4096},
	}
	for _, tc := range tests {
		if got := AlignUp(tc.v, tc.align); got != tc.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tc.v, tc.align, got, tc.want)
		}
	}
}

func TestReadWriteRoundtrip(t *testing.T) {
	buf := make([]byte, 8)
	PutU32(buf, 0, 0xDEADBEEF)
	PutU16(buf, 4, 0x1234)
	if got := ReadU32(buf, 0); got != 0xDEADBEEF {
		t.Errorf("ReadU32 = %#x, want 0xDEADBEEF", got)
	}
	if got := ReadU16(buf, 4); got != 0x1234 {
		t.Errorf("ReadU16 = %#x, want 0x1234", got)
	}
	// Little-endian byte order on the wire.
	want := []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x34, 0x12, 0x00, 0x00}
	for i, b := range want {
		if buf[i] != b {
			t.Errorf("buf[%d] = %#x, want %#x", i, buf[i], b)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tc := range tests {
		if got := FormatSize(tc.n); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
