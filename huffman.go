package oodle

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// codePrefixOrg is the first symbol slot of each code length in codeTable.syms.
var codePrefixOrg = [12]uint32{0x0, 0x0, 0x2, 0x6, 0xE, 0x1E, 0x3E, 0x7E, 0xFE, 0x1FE, 0x2FE, 0x3FE}

// codeTable collects symbols grouped by code length in canonical order.
type codeTable struct {
	syms       [1280]byte
	codePrefix [12]uint32 // Next free slot per code length.
}

func newCodeTable() *codeTable {
	return &codeTable{codePrefix: codePrefixOrg}
}

// add appends sym to the symbols of code length l (1..11).
func (t *codeTable) add(sym byte, l int) {
	t.syms[t.codePrefix[l]] = sym
	t.codePrefix[l]++
}

// huffLut maps the next 11 input bits, least significant first, to a code length
// and symbol.
type huffLut struct {
	bits2len [2048]uint8
	bits2sym [2048]uint8
}

// readCodeLengths dispatches on the code-length format and returns the number of
// symbols in the alphabet.
func readCodeLengths(br *bitReader, t *codeTable) (int, error) {
	if br.readBit() == 0 {
		if br.readBit() == 0 {
			return readSparseCodeLengths(br, t)
		}
		return readGammaCodeLengths(br, t)
	}

	if br.readBit() == 0 {
		return readCodeLengthsNew(br, t)
	}

	return 0, fmt.Errorf("%w: code length format 3", ErrInvalidFormat)
}

// readGammaCodeLengths reads alternating runs of absent and present symbols; the
// lengths of present symbols are zigzag deltas against a running average.
func readGammaCodeLengths(br *bitReader, t *codeTable) (int, error) {
	avgBitsX4 := 32
	forced := int(br.readBits(2))
	threshold := uint32(1) << uint(31-(20>>uint(forced)))

	br.refill()
	skipZeros := br.readBit() == 1

	sym, numSymbols := 0, 0
	for {
		if !skipZeros {
			if br.bits&0xFF000000 == 0 {
				return 0, fmt.Errorf("%w: zero run", ErrInvalidFormat)
			}
			sym += br.readGamma() + 1
			if sym >= 256 {
				break
			}
		}
		skipZeros = false

		br.refill()
		if br.bits&0xFF000000 == 0 {
			return 0, fmt.Errorf("%w: symbol run", ErrInvalidFormat)
		}
		n := br.readGamma() + 1
		if sym+n > 256 {
			return 0, fmt.Errorf("%w: symbol run past alphabet", ErrInvalidFormat)
		}
		br.refill()
		numSymbols += n

		for ; n > 0; n-- {
			if br.bits < threshold {
				return 0, fmt.Errorf("%w: code length delta", ErrInvalidFormat)
			}
			v := br.readGammaX(forced)
			codeLen := (-(v & 1) ^ (v >> 1)) + (avgBitsX4+2)>>2
			if codeLen < 1 || codeLen > 11 {
				return 0, fmt.Errorf("%w: code length %d", ErrInvalidFormat, codeLen)
			}
			avgBitsX4 = codeLen + (3*avgBitsX4+2)>>2
			br.refill()
			t.add(byte(sym), codeLen)
			sym++
		}

		if sym == 256 {
			break
		}
	}

	if sym != 256 || numSymbols < 2 {
		return 0, fmt.Errorf("%w: code lengths end at symbol %d", ErrInvalidFormat, sym)
	}

	return numSymbols, nil
}

// readSparseCodeLengths reads an explicit list of symbols with fixed-width lengths.
func readSparseCodeLengths(br *bitReader, t *codeTable) (int, error) {
	numSymbols := int(br.readBits(8))
	if numSymbols == 0 {
		return 0, fmt.Errorf("%w: empty alphabet", ErrInvalidFormat)
	}

	if numSymbols == 1 {
		t.syms[0] = byte(br.readBits(8))
		return 1, nil
	}

	width := int(br.readBits(3))
	if width > 4 {
		return 0, fmt.Errorf("%w: code length width %d", ErrInvalidFormat, width)
	}

	for i := 0; i < numSymbols; i++ {
		br.refill()
		sym := byte(br.readBits(8))
		codeLen := int(br.readBits(width)) + 1
		if codeLen > 11 {
			return 0, fmt.Errorf("%w: code length %d", ErrInvalidFormat, codeLen)
		}
		t.add(sym, codeLen)
	}

	return numSymbols, nil
}

// makeLut builds the 11-bit decoding table. The code must be complete: every one
// of the 2048 slots is covered exactly once.
func makeLut(t *codeTable) (*huffLut, error) {
	var fwd huffLut

	slot := uint32(0)
	for l := uint32(1); l <= 11; l++ {
		start := codePrefixOrg[l]
		count := t.codePrefix[l] - start
		if count == 0 {
			continue
		}

		step := uint32(1) << (11 - l)
		if slot+count*step > 2048 {
			return nil, fmt.Errorf("%w: over-subscribed huffman code", ErrInvalidFormat)
		}

		for j := uint32(0); j < count; j++ {
			sym := t.syms[start+j]
			for k := slot; k < slot+step; k++ {
				fwd.bits2len[k] = uint8(l)
				fwd.bits2sym[k] = sym
			}
			slot += step
		}
	}

	if slot != 2048 {
		return nil, fmt.Errorf("%w: incomplete huffman code", ErrInvalidFormat)
	}

	rev := new(huffLut)
	for i := range rev.bits2len {
		j := bits.Reverse16(uint16(i)) >> 5
		rev.bits2len[i] = fwd.bits2len[j]
		rev.bits2sym[i] = fwd.bits2sym[j]
	}

	return rev, nil
}

// huffStream is one LSB-first code stream. Forward streams start at start and
// read upward; a backward stream starts one past start and reads downward.
type huffStream struct {
	src      []byte
	start    int
	next     int
	bits     uint32
	n        uint
	consumed int
	back     bool
}

func newHuffStream(src []byte, start int, back bool) *huffStream {
	return &huffStream{src: src, start: start, next: start, back: back}
}

func (s *huffStream) decode(lut *huffLut) byte {
	for s.n <= 24 {
		var b byte
		if s.back {
			s.next--
			if s.next >= 0 && s.next < len(s.src) {
				b = s.src[s.next]
			}
		} else {
			if s.next >= 0 && s.next < len(s.src) {
				b = s.src[s.next]
			}
			s.next++
		}
		s.bits |= uint32(b) << s.n
		s.n += 8
	}

	k := s.bits & 0x7FF
	l := uint(lut.bits2len[k])
	s.bits >>= l
	s.n -= l
	s.consumed += int(l)

	return lut.bits2sym[k]
}

// pos counts a partially read byte as read.
func (s *huffStream) pos() int {
	if s.back {
		return s.start - (s.consumed+7)>>3
	}

	return s.start + (s.consumed+7)>>3
}

// decodeThreeStreams fills dst from three interleaved code streams: A reads
// forward from src[0], B backward from the end, C forward from src[mid].
func decodeThreeStreams(dst, src []byte, mid int, lut *huffLut) error {
	if mid > len(src) {
		return fmt.Errorf("%w: huffman split %d past %d bytes", ErrInvalidFormat, mid, len(src))
	}

	a := newHuffStream(src, 0, false)
	b := newHuffStream(src, len(src), true)
	c := newHuffStream(src, mid, false)

	for i := 0; i < len(dst); {
		dst[i] = a.decode(lut)
		i++
		if i < len(dst) {
			dst[i] = b.decode(lut)
			i++
		}
		if i < len(dst) {
			dst[i] = c.decode(lut)
			i++
		}

		if a.pos() > c.pos() || c.pos() > b.pos() {
			return fmt.Errorf("%w: huffman streams overlap", ErrInvalidFormat)
		}
	}

	if a.pos() != mid || b.pos() != c.pos() {
		return fmt.Errorf("%w: huffman streams do not meet", ErrInvalidFormat)
	}

	return nil
}

// decodeHuffmanBytes decodes a Huffman chunk payload into dst. Two-halves chunks
// split the output in two and code each half with three streams of its own. It
// returns the number of source bytes used.
func decodeHuffmanBytes(dst, src []byte, twoHalves bool) (int, error) {
	br := newBitReader(src)
	t := newCodeTable()

	numSymbols, err := readCodeLengths(br, t)
	if err != nil {
		return 0, err
	}
	if numSymbols < 1 {
		return 0, fmt.Errorf("%w: empty alphabet", ErrInvalidFormat)
	}

	pos := br.forwardPos()
	if pos > len(src) {
		return 0, fmt.Errorf("%w: huffman code lengths", ErrTruncatedInput)
	}

	if numSymbols == 1 {
		for i := range dst {
			dst[i] = t.syms[0]
		}
		return pos, nil
	}

	lut, err := makeLut(t)
	if err != nil {
		return 0, err
	}

	rest := src[pos:]
	if !twoHalves {
		if len(rest) < 3 {
			return 0, fmt.Errorf("%w: huffman stream split", ErrTruncatedInput)
		}
		mid := int(binary.LittleEndian.Uint16(rest))
		if err := decodeThreeStreams(dst, rest[2:], mid, lut); err != nil {
			return 0, err
		}

		return len(src), nil
	}

	if len(rest) < 6 {
		return 0, fmt.Errorf("%w: huffman stream split", ErrTruncatedInput)
	}

	half := (len(dst) + 1) >> 1
	splitMid := int(rest[0]) | int(rest[1])<<8 | int(rest[2])<<16
	rest = rest[3:]
	if splitMid > len(rest) || splitMid < 2 {
		return 0, fmt.Errorf("%w: huffman half split %d", ErrInvalidFormat, splitMid)
	}

	left, right := rest[:splitMid], rest[splitMid:]
	splitLeft := int(binary.LittleEndian.Uint16(left))
	left = left[2:]
	if len(left) < splitLeft+2 || len(right) < 3 {
		return 0, fmt.Errorf("%w: huffman first half split", ErrInvalidFormat)
	}

	splitRight := int(binary.LittleEndian.Uint16(right))
	right = right[2:]
	if len(right) < splitRight+2 {
		return 0, fmt.Errorf("%w: huffman second half split", ErrInvalidFormat)
	}

	if err := decodeThreeStreams(dst[:half], left, splitLeft, lut); err != nil {
		return 0, err
	}
	if err := decodeThreeStreams(dst[half:], right, splitRight, lut); err != nil {
		return 0, err
	}

	return len(src), nil
}
