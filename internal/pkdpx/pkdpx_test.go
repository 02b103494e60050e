package pkdpx

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandNibbles(t *testing.T) {
	tests := []struct {
		idx  int
		low  byte
		want [2]byte
	}{
		{0, 0x5, [2]byte{0x55, 0x55}},
		{0, 0x0, [2]byte{0x00, 0x00}},
		// Min cases: index 1 carries the position-0 asymmetry.
		{1, 0x4, [2]byte{0x45, 0x55}},
		{2, 0x5, [2]byte{0x54, 0x55}},
		{3, 0x5, [2]byte{0x55, 0x45}},
		{4, 0x5, [2]byte{0x55, 0x54}},
		// Max cases: index 5 carries it.
		{5, 0x5, [2]byte{0x54, 0x44}},
		{6, 0x4, [2]byte{0x45, 0x44}},
		{7, 0x4, [2]byte{0x44, 0x54}},
		{8, 0x4, [2]byte{0x44, 0x45}},
	}
	for _, tc := range tests {
		a, b := expandNibbles(tc.idx, tc.low)
		if a != tc.want[0] || b != tc.want[1] {
			t.Errorf("expandNibbles(%d, %#x) = %#x %#x, want %#x %#x",
				tc.idx, tc.low, a, b, tc.want[0], tc.want[1])
		}
	}
}

// Every byte pair the encoder claims it can express as a four-nibble
// operation must expand back to itself.
func TestNibbleEncodingExhaustive(t *testing.T) {
	covered := 0
	for b0 := 0; b0 < 256; b0++ {
		for b1 := 0; b1 < 256; b1++ {
			op, ok := pickNibbles(byte(b0), byte(b1))
			if !ok {
				continue
			}
			covered++
			a, b := expandNibbles(op.idx, op.low)
			if a != byte(b0) || b != byte(b1) {
				t.Fatalf("pair %#x %#x encoded as (idx=%d low=%#x), decodes to %#x %#x",
					b0, b1, op.idx, op.low, a, b)
			}
		}
	}
	if covered == 0 {
		t.Fatal("no byte pair was nibble-encodable")
	}
}

func TestPickNibblesAsymmetry(t *testing.T) {
	// Odd nibble at position 0 encodes its own value; elsewhere it is
	// offset by one toward the majority.
	op, ok := pickNibbles(0x45, 0x55)
	require.True(t, ok)
	assert.Equal(t, 1, op.idx)
	assert.Equal(t, byte(0x4), op.low)

	op, ok = pickNibbles(0x54, 0x55)
	require.True(t, ok)
	assert.Equal(t, 2, op.idx)
	assert.Equal(t, byte(0x5), op.low)

	op, ok = pickNibbles(0x54, 0x44)
	require.True(t, ok)
	assert.Equal(t, 5, op.idx)
	assert.Equal(t, byte(0x5), op.low)

	op, ok = pickNibbles(0x45, 0x44)
	require.True(t, ok)
	assert.Equal(t, 6, op.idx)
	assert.Equal(t, byte(0x4), op.low)

	// Two-and-two splits are not encodable.
	_, ok = pickNibbles(0x44, 0x55)
	assert.False(t, ok)
	// Nibbles more than one apart are not encodable.
	_, ok = pickNibbles(0x46, 0x44)
	assert.False(t, ok)
}

func roundtrip(t *testing.T, data []byte) {
	t.Helper()
	container := Compress(data)
	out, err := Decompress(container)
	require.NoError(t, err, "input length %d", len(data))
	require.True(t, bytes.Equal(data, out), "round-trip mismatch at length %d", len(data))
}

func TestRoundtripLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 3, 4, 8, 17, 18, 19, 4096} {
		data := make([]byte, n)
		rng.Read(data)
		roundtrip(t, data)
	}
}

func TestRoundtripRandom(t *testing.T) {
	// Incompressible input grows by up to 9/8 plus the header, and the
	// 16-bit container length bounds the whole frame; stay inside it.
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 8; i++ {
		data := make([]byte, rng.Intn(56*1024))
		rng.Read(data)
		roundtrip(t, data)
	}
}

// A small alphabet forces dense short matches, including length-3 ones the
// encoder must either extend, truncate, or decline.
func TestRoundtripSmallAlphabet(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 8; i++ {
		data := make([]byte, 8192)
		for j := range data {
			data[j] = byte(rng.Intn(4))
		}
		roundtrip(t, data)
	}
}

func TestRoundtripStructured(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"zeros", make([]byte, 4096)},
		{"repeating ABC", bytes.Repeat([]byte("ABC"), 1000)},
		{"nibble runs", bytes.Repeat([]byte{0x11, 0x12, 0x21, 0x22}, 512)},
		{"ramp", rampData(1 << 14)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			roundtrip(t, tc.data)
		})
	}
}

func rampData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestCompressRepetitive(t *testing.T) {
	data := []byte("ABCABCABCABCABCABC")
	container := Compress(data)
	assert.Less(t, len(container), 20+len(data)*2,
		"repetitive input must compress below the all-literal bound")

	out, err := Decompress(container)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCompressZeros(t *testing.T) {
	data := make([]byte, 4096)
	container := Compress(data)
	out, err := Decompress(container)
	require.NoError(t, err)
	require.Len(t, out, 4096)
	assert.Equal(t, data, out)
}

func TestFlagsLayout(t *testing.T) {
	for _, data := range [][]byte{nil, make([]byte, 4096), bytes.Repeat([]byte("xyz"), 100)} {
		container := Compress(data)
		flags := container[7:16]
		assert.Zero(t, flags[8], "final flag slot is reserved zero")
		seen := map[byte]bool{}
		for _, f := range flags[:8] {
			assert.NotZero(t, f, "zero is always an allowed length, never a flag")
			assert.False(t, seen[f], "duplicate flag %#x", f)
			seen[f] = true
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	data := []byte("ABCABCABCABCABCABC")
	container := Compress(data)

	assert.Equal(t, []byte("PKDPX"), container[0:5])
	assert.Equal(t, len(container), int(container[5])|int(container[6])<<8)
	assert.Equal(t, uint32(len(data)),
		uint32(container[16])|uint32(container[17])<<8|
			uint32(container[18])<<16|uint32(container[19])<<24)
}

func TestDecompressBadMagic(t *testing.T) {
	_, err := Decompress([]byte("NOTPX\x00\x00\x00"))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Decompress([]byte("PK"))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecompressSizeMismatch(t *testing.T) {
	container := Compress([]byte("hello pack world"))
	container[16]++ // lie about the uncompressed length
	_, err := Decompress(container)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecompressTruncatedHeader(t *testing.T) {
	_, err := Decompress([]byte("PKDPX\x00\x00"))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecompressBadOffset(t *testing.T) {
	// A back-reference as the very first command reaches before the
	// start of the output.
	container := make([]byte, 23)
	copy(container, "PKDPX")
	container[5] = 23 // container length
	for i := 0; i < 9; i++ {
		container[7+i] = byte(2 + i) // flags 2..10: high nibble 1 stays a sequence
	}
	container[20] = 0x00 // control byte: all sequence bits
	container[21] = 0x10 // high 1, low 0
	container[22] = 0x00 // offset byte: 0x000 - 0x1000 = -4096
	_, err := Decompress(container)
	assert.ErrorIs(t, err, ErrBadOffset)
}

// Walk a compressed payload and check the window and run-length bounds of
// every back-reference the encoder emitted.
func TestSequenceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	inputs := [][]byte{
		make([]byte, 4096),
		bytes.Repeat([]byte("ABCABD"), 2048),
		rampData(1 << 13),
	}
	large := make([]byte, 1<<15)
	for i := range large {
		large[i] = byte(rng.Intn(8))
	}
	inputs = append(inputs, large)

	for _, data := range inputs {
		container := Compress(data)
		flags := container[7:16]
		payload := container[20:]

		outLen := 0
		pos := 0
		for pos < len(payload) {
			ctrl := payload[pos]
			pos++
			for bit := 7; bit >= 0 && pos < len(payload); bit-- {
				if ctrl&(1<<uint(bit)) != 0 {
					pos++
					outLen++
					continue
				}
				x := payload[pos]
				pos++
				high := x >> 4
				if flagIndex(flags, high) >= 0 {
					outLen += 2
					continue
				}
				require.Less(t, pos, len(payload))
				y := payload[pos]
				pos++
				offset := (int(x&0xF)<<8 | int(y)) - 0x1000
				run := int(high) + 3
				assert.GreaterOrEqual(t, offset, -4096)
				assert.LessOrEqual(t, offset, -1)
				assert.GreaterOrEqual(t, outLen+offset, 0, "reference before output start")
				assert.GreaterOrEqual(t, run, 3)
				assert.LessOrEqual(t, run, 18)
				outLen += run
			}
		}
		require.Equal(t, len(data), outLen)
	}
}

func TestDecodeIgnoresTrailingBits(t *testing.T) {
	// One literal, then the group runs out of input: the remaining
	// control bits are padding.
	flags := []byte{1, 2, 3, 4, 5, 6, 7, 8, 0}
	out, err := decode([]byte{0x80, 0x41}, flags)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41}, out)
}

func TestDecodeOverlappingCopy(t *testing.T) {
	// Literal 0xAB, then a run of 5 copying from offset -1: the copy must
	// see its own output as it goes.
	flags := []byte{1, 3, 4, 5, 6, 7, 8, 9, 0}
	payload := []byte{
		0x80,       // first command literal, second sequence
		0xAB,       // the literal
		0x2F, 0xFF, // run = 2+3 = 5, offset 0xFFF - 0x1000 = -1
	}
	out, err := decode(payload, flags)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 6), out)
}
