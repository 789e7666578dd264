package oodle

import (
	"bytes"
	"math/bits"
	"testing"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/require"
)

// bitField is a value written MSB-first in n bits.
type bitField struct {
	v uint64
	n uint8
}

// packBits writes fields MSB-first and pads the last byte with zeros.
func packBits(t testing.TB, fields ...bitField) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, w.WriteBits(f.v, f.n))
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// gammaField codes v >= 2 in 2*bits.Len(v)-2 bits; the leading zeros give the
// field width.
func gammaField(v uint64) bitField {
	return bitField{v, uint8(2*bits.Len64(v) - 2)}
}

// repeatField returns n copies of f.
func repeatField(f bitField, n int) []bitField {
	out := make([]bitField, n)
	for i := range out {
		out[i] = f
	}

	return out
}

func concatFields(parts ...[]bitField) []bitField {
	var out []bitField
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// krakenStream wraps payload in a Kraken stream header and one block header.
func krakenStream(payload []byte) []byte {
	n := len(payload) - 1

	return concat([]byte{0x0C, byte(Kraken), byte(n >> 16), byte(n >> 8), byte(n)}, payload)
}

// sparseTwoSymbolLengths codes 'a' and 'b' with 1-bit codes: old format, sparse
// list, two symbols, zero-width lengths.
func sparseTwoSymbolLengths(t testing.TB) []byte {
	return packBits(t,
		bitField{0, 1},
		bitField{0, 1},
		bitField{2, 8},
		bitField{0, 3},
		bitField{'a', 8},
		bitField{'b', 8},
	)
}

// golombTwoSymbolLengths codes symbols 0 and 1 with 1-bit codes in the
// Golomb-Rice format with two forced bits: deltas 13 and 9 split as unary 3 and 2
// with low bits 01 and 01.
func golombTwoSymbolLengths(t testing.TB) []byte {
	return packBits(t,
		bitField{1, 1},
		bitField{0, 1},
		bitField{2, 2},
		bitField{1, 8},
		bitField{0, 2},
		bitField{0b0001, 4},
		bitField{0b001, 3},
		bitField{0b01, 2},
		bitField{0b01, 2},
	)
}

// threeStreams holds streams A (0x0F), C (0x00) and B (0x55) behind a split of one
// byte. Decoded with 1-bit codes they give abcStreamsOut.
var threeStreams = []byte{0x01, 0x00, 0x0F, 0x00, 0x55}

const abcStreamsOut = "bbabaabbabaaabaaaaabaaaa"

// mapSymbols rewrites 'a' and 'b' of s as the bytes lo and hi.
func mapSymbols(s string, lo, hi byte) []byte {
	out := make([]byte, len(s))
	for i := range s {
		if s[i] == 'a' {
			out[i] = lo
		} else {
			out[i] = hi
		}
	}

	return out
}

// lzPayload is an LZ segment of 42 bytes: seed "ABCDEFGH", four matches of 8 at
// the initial recent offset -8, trailing literals litA and litB.
func lzPayload(litA, litB byte) []byte {
	return concat(
		[]byte("ABCDEFGH"),
		[]byte{0x00, 0x00, 0x02, litA, litB},
		[]byte{0x00, 0x00, 0x04, 0x18, 0x18, 0x18, 0x18},
		[]byte{0x00, 0x00, 0x00},
		[]byte{0x00, 0x00, 0x00},
		[]byte{0x80},
	)
}

// gammaFullAlphabetLengths codes all 256 symbols with length 8: gamma format, no
// forced bits, skip flag, one run of 256 and zero deltas against the average.
func gammaFullAlphabetLengths(t testing.TB) []byte {
	fields := []bitField{{0, 1}, {1, 1}, {0, 2}, {1, 1}, gammaField(257)}
	fields = append(fields, repeatField(bitField{1, 1}, 256)...)

	return packBits(t, fields...)
}
