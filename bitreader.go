package oodle

import "math/bits"

// bitReader is a 32-bit MSB-first window over src.
//
// bitpos counts the window bits that still have to be loaded; after a refill it
// lies in (-8, 0], so the window holds 24 to 31 valid bits and the low bit is never
// data. A forward reader loads src[p] and increments p. A backward reader walks from
// the end toward the start and decrements p before each load. Bytes outside src
// read as zero; callers validate positions afterwards.
type bitReader struct {
	src    []byte
	p      int
	bits   uint32
	bitpos int
}

func newBitReader(src []byte) *bitReader {
	br := &bitReader{src: src, bitpos: 24}
	br.refill()

	return br
}

func newBackwardBitReader(src []byte) *bitReader {
	br := &bitReader{src: src, p: len(src), bitpos: 24}
	br.refillBackwards()

	return br
}

func (br *bitReader) refill() {
	for br.bitpos > 0 {
		if br.p >= 0 && br.p < len(br.src) {
			br.bits |= uint32(br.src[br.p]) << uint(br.bitpos)
		}
		br.bitpos -= 8
		br.p++
	}
}

func (br *bitReader) refillBackwards() {
	for br.bitpos > 0 {
		br.p--
		if br.p >= 0 && br.p < len(br.src) {
			br.bits |= uint32(br.src[br.p]) << uint(br.bitpos)
		}
		br.bitpos -= 8
	}
}

// fill refills in the reader's direction.
func (br *bitReader) fill(backwards bool) {
	if backwards {
		br.refillBackwards()
	} else {
		br.refill()
	}
}

// readBit consumes one bit without refilling.
func (br *bitReader) readBit() uint32 {
	r := br.bits >> 31
	br.bits <<= 1
	br.bitpos++

	return r
}

// readBits consumes the top n bits without refilling. n may be zero.
func (br *bitReader) readBits(n int) uint32 {
	r := br.bits >> uint(32-n)
	br.bits <<= uint(n)
	br.bitpos += n

	return r
}

// readMoreThan24Bits reads up to 32 bits, refilling in between.
func (br *bitReader) readMoreThan24Bits(n int, backwards bool) uint32 {
	var r uint32
	if n <= 24 {
		r = br.readBits(n)
	} else {
		r = br.readBits(24) << uint(n-24)
		br.fill(backwards)
		r += br.readBits(n - 24)
	}
	br.fill(backwards)

	return r
}

// readGamma reads an Elias-gamma style value: z zero bits select a 2z+2 bit field
// whose value minus 2 is returned. z is capped so the field stays within 24 bits.
func (br *bitReader) readGamma() int {
	z := 32
	if br.bits != 0 {
		z = bits.LeadingZeros32(br.bits)
	}
	if z > 11 {
		z = 11
	}
	n := 2*z + 2
	r := br.bits >> uint(32-n)
	br.bits <<= uint(n)
	br.bitpos += n

	return int(r) - 2
}

// readGammaX reads a gamma value extended with forced low bits.
func (br *bitReader) readGammaX(forced int) int {
	if br.bits == 0 {
		return 0
	}
	z := bits.LeadingZeros32(br.bits)
	if z > 23 {
		z = 23
	}
	r := int(br.bits>>uint(31-z-forced)) + ((z - 1) << uint(forced))
	n := z + forced + 1
	br.bits <<= uint(n)
	br.bitpos += n

	return r
}

// readDistance decodes an LZ offset whose bit width is selected by the packed
// offset byte v.
func (br *bitReader) readDistance(v uint32, backwards bool) uint32 {
	var r uint32
	if v < 0xF0 {
		n := int(v>>4) + 4
		w := bits.RotateLeft32(br.bits|1, n)
		br.bitpos += n
		m := uint32(2)<<uint(n) - 1
		br.bits = w &^ m
		r = ((w & m) << 4) + (v & 0xF) - 248
	} else {
		n := int(v-0xF0) + 4
		w := bits.RotateLeft32(br.bits|1, n)
		br.bitpos += n
		m := uint32(2)<<uint(n) - 1
		br.bits = w &^ m
		r = 0x7EFF00 + ((w & m) << 12)
		br.fill(backwards)
		r += br.bits >> 20
		br.bitpos += 12
		br.bits <<= 12
	}
	br.fill(backwards)

	return r
}

// readLength decodes an overflow length. More than 12 leading zero bits is not a
// valid code and reports false.
func (br *bitReader) readLength(backwards bool) (uint32, bool) {
	n := bits.LeadingZeros32(br.bits)
	if n > 12 {
		return 0, false
	}
	br.bitpos += n
	br.bits <<= uint(n)
	br.fill(backwards)

	n += 7
	br.bitpos += n
	r := (br.bits >> uint(32-n)) - 64
	br.bits <<= uint(n)
	br.fill(backwards)

	return r, true
}

// readFluff reads the truncated-binary count of Golomb-Rice range lengths that
// follow the code lengths of numSymbols symbols.
func (br *bitReader) readFluff(numSymbols int) int {
	if numSymbols == 256 {
		return 0
	}

	x := 257 - numSymbols
	if x > numSymbols {
		x = numSymbols
	}
	x *= 2

	y := bits.Len32(uint32(x - 1))
	v := br.bits >> uint(32-y)
	z := uint32(1)<<uint(y) - uint32(x)

	if v>>1 >= z {
		br.bits <<= uint(y)
		br.bitpos += y
		return int(v - z)
	}

	br.bits <<= uint(y - 1)
	br.bitpos += y - 1

	return int(v >> 1)
}

// forwardPos returns the index of the first byte not yet touched by reads.
func (br *bitReader) forwardPos() int {
	return br.p - (24-br.bitpos)>>3
}

// backwardPos returns the index one past the lowest byte touched by reads.
func (br *bitReader) backwardPos() int {
	return br.p + (24-br.bitpos)>>3
}
