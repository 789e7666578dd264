package oodle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/icza/bitio"
)

// huffRange is a run of consecutive symbols that have code lengths.
type huffRange struct {
	symbol int
	num    int
}

// readCodeLengthsNew reads the Golomb-Rice coded lengths: unary high parts packed
// byte by byte, forced low bits, zigzag deltas against a running average, and the
// symbol ranges the lengths belong to.
func readCodeLengthsNew(br *bitReader, t *codeTable) (int, error) {
	forced := int(br.readBits(2))
	numSymbols := int(br.readBits(8)) + 1
	fluff := br.readFluff(numSymbols)

	// Continue byte-wise at the first unread bit.
	bitpos := (br.bitpos - 24) & 7
	p := br.p - (24-br.bitpos+7)>>3

	var codeLen [512 + 16]byte
	total := numSymbols + fluff

	p, bitpos, err := decodeGolombRiceLengths(codeLen[:], total, br.src, p, bitpos)
	if err != nil {
		return 0, err
	}
	clear(codeLen[total : total+16])

	p, bitpos, err = decodeGolombRiceBits(codeLen[:], numSymbols, forced, br.src, p, bitpos)
	if err != nil {
		return 0, err
	}

	br.p = p
	br.bitpos = 24
	br.bits = 0
	br.refill()
	br.bits <<= uint(bitpos)
	br.bitpos += bitpos

	runningSum := uint32(0x1E)
	for i := 0; i < numSymbols; i++ {
		v := int32(codeLen[i])
		v = -(v & 1) ^ (v >> 1)
		l := uint8(v + int32(runningSum>>2) + 1)
		if l < 1 || l > 11 {
			return 0, fmt.Errorf("%w: code length %d", ErrInvalidFormat, l)
		}
		codeLen[i] = l
		runningSum += uint32(v)
	}

	ranges, err := convertToRanges(br, numSymbols, fluff, codeLen[numSymbols:total])
	if err != nil {
		return 0, err
	}

	k := 0
	for _, r := range ranges {
		for j := 0; j < r.num; j++ {
			t.add(byte(r.symbol+j), int(codeLen[k]))
			k++
		}
	}

	return numSymbols, nil
}

// decodeGolombRiceLengths decodes size unary codes starting at bit bitpos of
// src[p]. It writes up to 8 bytes past size, so dst needs that much slack. The
// returned position is that of the first bit after the last code.
func decodeGolombRiceLengths(dst []byte, size int, src []byte, p, bitpos int) (int, int, error) {
	if p < 0 || p >= len(src) {
		return 0, 0, fmt.Errorf("%w: golomb-rice lengths", ErrTruncatedInput)
	}

	count := uint32(int32(-bitpos))
	v := uint32(src[p] & (0xFF >> uint(bitpos)))
	p++

	d := 0
	for {
		if v == 0 {
			count += 8
		} else {
			x := bits2Value[v]
			binary.LittleEndian.PutUint32(dst[d:], count+(x&0x0F0F0F0F))
			binary.LittleEndian.PutUint32(dst[d+4:], (x>>4)&0x0F0F0F0F)
			d += int(bits2Length[v])
			if d >= size {
				break
			}
			count = x >> 28
		}

		if p >= len(src) {
			return 0, 0, fmt.Errorf("%w: golomb-rice lengths", ErrTruncatedInput)
		}
		v = uint32(src[p])
		p++
	}

	// Drop the codes of this byte that belong to the next field.
	for n := d - size; n > 0; n-- {
		v &= v - 1
	}

	if v&1 == 0 {
		p--
		return p, 8 - bits.TrailingZeros32(v), nil
	}

	return p, 0, nil
}

// decodeGolombRiceBits appends forced MSB-first low bits to each of the first
// size entries of dst.
func decodeGolombRiceBits(dst []byte, size, forced int, src []byte, p, bitpos int) (int, int, error) {
	if forced == 0 {
		return p, bitpos, nil
	}

	required := bitpos + forced*size
	if (required+7)>>3 > len(src)-p {
		return 0, 0, fmt.Errorf("%w: golomb-rice low bits", ErrTruncatedInput)
	}

	r := bitio.NewReader(bytes.NewReader(src[p:]))
	if bitpos > 0 {
		if _, err := r.ReadBits(uint8(bitpos)); err != nil {
			return 0, 0, fmt.Errorf("%w: golomb-rice low bits: %w", ErrTruncatedInput, err)
		}
	}

	for i := 0; i < size; i++ {
		lo, err := r.ReadBits(uint8(forced))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: golomb-rice low bits: %w", ErrTruncatedInput, err)
		}
		dst[i] = dst[i]<<uint(forced) | byte(lo)
	}

	return p + required>>3, required & 7, nil
}

// convertToRanges turns the fluff lengths into the symbol ranges covered by the
// numSymbols code lengths. An odd fluff count leads with the first symbol.
func convertToRanges(br *bitReader, numSymbols, fluff int, symlen []byte) ([]huffRange, error) {
	numRanges := fluff >> 1
	symIdx := 0

	if fluff&1 != 0 {
		br.refill()
		v := int(symlen[0])
		symlen = symlen[1:]
		if v >= 8 {
			return nil, fmt.Errorf("%w: range start width %d", ErrInvalidFormat, v)
		}
		symIdx = int(br.readBits(v+1)) + 1<<uint(v+1) - 1
	}

	ranges := make([]huffRange, 0, numRanges+1)
	used := 0
	for i := 0; i < numRanges; i++ {
		br.refill()

		v := int(symlen[2*i])
		if v >= 9 {
			return nil, fmt.Errorf("%w: range length width %d", ErrInvalidFormat, v)
		}
		num := int(br.readBits(v)) + 1<<uint(v)

		v = int(symlen[2*i+1])
		if v >= 8 {
			return nil, fmt.Errorf("%w: range gap width %d", ErrInvalidFormat, v)
		}
		space := int(br.readBits(v+1)) + 1<<uint(v+1) - 1

		ranges = append(ranges, huffRange{symbol: symIdx, num: num})
		used += num
		symIdx += num + space
	}

	if symIdx >= 256 || used >= numSymbols || symIdx+numSymbols-used > 256 {
		return nil, fmt.Errorf("%w: symbol ranges exceed alphabet", ErrInvalidFormat)
	}

	return append(ranges, huffRange{symbol: symIdx, num: numSymbols - used}), nil
}

// bits2Value packs the unary codes that end in each byte: the zero count before
// the k-th set bit sits in nibble 2k (k < 4) or 2(k-4)+1, the trailing zero count in
// the top nibble.
var bits2Value = [256]uint32{
	0x80000000, 0x00000007, 0x10000006, 0x00000006, 0x20000005, 0x00000105, 0x10000005, 0x00000005,
	0x30000004, 0x00000204, 0x10000104, 0x00000104, 0x20000004, 0x00010004, 0x10000004, 0x00000004,
	0x40000003, 0x00000303, 0x10000203, 0x00000203, 0x20000103, 0x00010103, 0x10000103, 0x00000103,
	0x30000003, 0x00020003, 0x10010003, 0x00010003, 0x20000003, 0x01000003, 0x10000003, 0x00000003,
	0x50000002, 0x00000402, 0x10000302, 0x00000302, 0x20000202, 0x00010202, 0x10000202, 0x00000202,
	0x30000102, 0x00020102, 0x10010102, 0x00010102, 0x20000102, 0x01000102, 0x10000102, 0x00000102,
	0x40000002, 0x00030002, 0x10020002, 0x00020002, 0x20010002, 0x01010002, 0x10010002, 0x00010002,
	0x30000002, 0x02000002, 0x11000002, 0x01000002, 0x20000002, 0x00000012, 0x10000002, 0x00000002,
	0x60000001, 0x00000501, 0x10000401, 0x00000401, 0x20000301, 0x00010301, 0x10000301, 0x00000301,
	0x30000201, 0x00020201, 0x10010201, 0x00010201, 0x20000201, 0x01000201, 0x10000201, 0x00000201,
	0x40000101, 0x00030101, 0x10020101, 0x00020101, 0x20010101, 0x01010101, 0x10010101, 0x00010101,
	0x30000101, 0x02000101, 0x11000101, 0x01000101, 0x20000101, 0x00000111, 0x10000101, 0x00000101,
	0x50000001, 0x00040001, 0x10030001, 0x00030001, 0x20020001, 0x01020001, 0x10020001, 0x00020001,
	0x30010001, 0x02010001, 0x11010001, 0x01010001, 0x20010001, 0x00010011, 0x10010001, 0x00010001,
	0x40000001, 0x03000001, 0x12000001, 0x02000001, 0x21000001, 0x01000011, 0x11000001, 0x01000001,
	0x30000001, 0x00000021, 0x10000011, 0x00000011, 0x20000001, 0x00001001, 0x10000001, 0x00000001,
	0x70000000, 0x00000600, 0x10000500, 0x00000500, 0x20000400, 0x00010400, 0x10000400, 0x00000400,
	0x30000300, 0x00020300, 0x10010300, 0x00010300, 0x20000300, 0x01000300, 0x10000300, 0x00000300,
	0x40000200, 0x00030200, 0x10020200, 0x00020200, 0x20010200, 0x01010200, 0x10010200, 0x00010200,
	0x30000200, 0x02000200, 0x11000200, 0x01000200, 0x20000200, 0x00000210, 0x10000200, 0x00000200,
	0x50000100, 0x00040100, 0x10030100, 0x00030100, 0x20020100, 0x01020100, 0x10020100, 0x00020100,
	0x30010100, 0x02010100, 0x11010100, 0x01010100, 0x20010100, 0x00010110, 0x10010100, 0x00010100,
	0x40000100, 0x03000100, 0x12000100, 0x02000100, 0x21000100, 0x01000110, 0x11000100, 0x01000100,
	0x30000100, 0x00000120, 0x10000110, 0x00000110, 0x20000100, 0x00001100, 0x10000100, 0x00000100,
	0x60000000, 0x00050000, 0x10040000, 0x00040000, 0x20030000, 0x01030000, 0x10030000, 0x00030000,
	0x30020000, 0x02020000, 0x11020000, 0x01020000, 0x20020000, 0x00020010, 0x10020000, 0x00020000,
	0x40010000, 0x03010000, 0x12010000, 0x02010000, 0x21010000, 0x01010010, 0x11010000, 0x01010000,
	0x30010000, 0x00010020, 0x10010010, 0x00010010, 0x20010000, 0x00011000, 0x10010000, 0x00010000,
	0x50000000, 0x04000000, 0x13000000, 0x03000000, 0x22000000, 0x02000010, 0x12000000, 0x02000000,
	0x31000000, 0x01000020, 0x11000010, 0x01000010, 0x21000000, 0x01001000, 0x11000000, 0x01000000,
	0x40000000, 0x00000030, 0x10000020, 0x00000020, 0x20000010, 0x00001010, 0x10000010, 0x00000010,
	0x30000000, 0x00002000, 0x10001000, 0x00001000, 0x20000000, 0x00100000, 0x10000000, 0x00000000,
}

// bits2Length is the number of set bits of each byte.
var bits2Length = [256]uint8{
	0, 1, 1, 2, 1, 2, 2, 3, 1, 2, 2, 3, 2, 3, 3, 4,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	1, 2, 2, 3, 2, 3, 3, 4, 2, 3, 3, 4, 3, 4, 4, 5,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	2, 3, 3, 4, 3, 4, 4, 5, 3, 4, 4, 5, 4, 5, 5, 6,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	3, 4, 4, 5, 4, 5, 5, 6, 4, 5, 5, 6, 5, 6, 6, 7,
	4, 5, 5, 6, 5, 6, 6, 7, 5, 6, 6, 7, 6, 7, 7, 8,
}
