package oodle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitReaderForward(t *testing.T) {
	br := newBitReader([]byte{0xA5, 0x0F})
	assert.Equal(t, 0, br.forwardPos())

	assert.Equal(t, uint32(0xA), br.readBits(4))
	assert.Equal(t, uint32(0x5), br.readBits(4))
	assert.Equal(t, uint32(0), br.readBits(0))
	assert.Equal(t, 1, br.forwardPos())

	br.refill()
	assert.Equal(t, uint32(0x0F), br.readBits(8))
	assert.Equal(t, 2, br.forwardPos())

	// Past the end reads zero.
	br.refill()
	assert.Equal(t, uint32(0), br.readBits(16))
}

func TestBitReaderPartialByteCountsAsConsumed(t *testing.T) {
	br := newBitReader([]byte{0x80, 0x00})
	assert.Equal(t, uint32(1), br.readBit())
	assert.Equal(t, 1, br.forwardPos())
}

func TestBitReaderBackward(t *testing.T) {
	br := newBackwardBitReader([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, 3, br.backwardPos())

	assert.Equal(t, uint32(0x03), br.readBits(8))
	assert.Equal(t, uint32(0x02), br.readBits(8))
	assert.Equal(t, 1, br.backwardPos())

	br.refillBackwards()
	assert.Equal(t, uint32(0x01), br.readBits(8))
	assert.Equal(t, 0, br.backwardPos())
}

func TestBitReaderRefillKeepsWindow(t *testing.T) {
	src := make([]byte, 64)
	for i := range src {
		src[i] = byte(i*37 + 11)
	}

	for n := 0; n <= 24; n++ {
		fwd := newBitReader(src)
		back := newBackwardBitReader(src)
		for i := 0; i < 8; i++ {
			fwd.readBits(n)
			fwd.refill()
			require.LessOrEqual(t, fwd.bitpos, 0, "forward, %d bits", n)
			require.Greater(t, fwd.bitpos, -8, "forward, %d bits", n)

			back.readBits(n)
			back.refillBackwards()
			require.LessOrEqual(t, back.bitpos, 0, "backward, %d bits", n)
			require.Greater(t, back.bitpos, -8, "backward, %d bits", n)
		}
	}
}

func TestBitReaderReadGamma(t *testing.T) {
	// "11" then "0101".
	br := newBitReader([]byte{0xD4})
	assert.Equal(t, 1, br.readGamma())
	assert.Equal(t, 3, br.readGamma())
}

func TestBitReaderReadGammaX(t *testing.T) {
	br := newBitReader([]byte{0xE0})
	assert.Equal(t, 3, br.readGammaX(2))
	assert.Equal(t, 3, br.bitpos)

	br = newBitReader([]byte{0x70})
	assert.Equal(t, 7, br.readGammaX(2))
	assert.Equal(t, 4, br.bitpos)

	br = newBitReader(nil)
	assert.Equal(t, 0, br.readGammaX(2))
}

func TestBitReaderReadDistance(t *testing.T) {
	src := []byte{0xAB, 0xCD, 0xEF, 0x12}

	br := newBitReader(src)
	assert.Equal(t, uint32(171), br.readDistance(0x03, false))
	assert.Equal(t, uint32(0xB), br.readBits(4))

	br = newBitReader(src)
	assert.Equal(t, uint32(0x80AACD), br.readDistance(0xF0, false))
	assert.Equal(t, uint32(0xE), br.readBits(4))
}

func TestBitReaderReadDistanceBackward(t *testing.T) {
	br := newBackwardBitReader([]byte{0x12, 0xEF, 0xCD, 0xAB})
	assert.Equal(t, uint32(171), br.readDistance(0x03, true))
	assert.Equal(t, uint32(0xB), br.readBits(4))
}

func TestBitReaderReadLength(t *testing.T) {
	br := newBitReader([]byte{0xC0})
	v, ok := br.readLength(false)
	require.True(t, ok)
	assert.Equal(t, uint32(32), v)

	br = newBitReader([]byte{0x5F, 0xC0})
	v, ok = br.readLength(false)
	require.True(t, ok)
	assert.Equal(t, uint32(127), v)

	br = newBitReader([]byte{0x00, 0x01})
	_, ok = br.readLength(false)
	assert.False(t, ok)
}

func TestBitReaderReadMoreThan24Bits(t *testing.T) {
	br := newBitReader([]byte{0x12, 0x34, 0x56, 0x78, 0x9A})
	assert.Equal(t, uint32(0x1234567), br.readMoreThan24Bits(28, false))
	assert.Equal(t, uint32(0x8), br.readBits(4))

	br = newBitReader([]byte{0x12, 0x34})
	assert.Equal(t, uint32(0x123), br.readMoreThan24Bits(12, false))
}

func TestBitReaderReadFluff(t *testing.T) {
	tests := []struct {
		name       string
		src        []byte
		numSymbols int
		want       int
		consumed   int
	}{
		{name: "full alphabet", src: []byte{0xFF}, numSymbols: 256, want: 0, consumed: 0},
		{name: "two values", src: []byte{0xC0}, numSymbols: 255, want: 3, consumed: 2},
		{name: "short code", src: []byte{0x40}, numSymbols: 3, want: 1, consumed: 2},
		{name: "long code", src: []byte{0xC0}, numSymbols: 3, want: 4, consumed: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := newBitReader(tt.src)
			assert.Equal(t, tt.want, br.readFluff(tt.numSymbols))
			assert.Equal(t, tt.consumed, br.bitpos)
		})
	}
}
