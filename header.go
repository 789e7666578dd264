package oodle

import "fmt"

// StreamHeader is the 2-byte header found at every 256 KiB output boundary.
type StreamHeader struct {
	Type           DecoderType // Decoder family of the following blocks.
	RestartDecoder bool        // Reset adaptive decoder state before the next block.
	Uncompressed   bool        // Blocks are stored verbatim with no block headers.
	UseChecksums   bool        // Block headers carry a checksum field.
}

// BlockHeader precedes the payload of one block.
//
// CompressedSize 0 marks a fill block: a whole match when WholeMatchDistance is
// set, a memset with the low byte of Checksum otherwise.
type BlockHeader struct {
	CompressedSize     int    // Payload size in bytes.
	Checksum           uint32 // Block checksum, or the memset value of a fill block.
	WholeMatchDistance int    // Copy distance of a whole-match block.
	Flag1              bool
	Flag2              bool
}

// Fill reports whether the block carries no payload.
func (h BlockHeader) Fill() bool {
	return h.CompressedSize == 0
}

// ParseStreamHeader parses a stream header at the start of b and returns the
// number of bytes consumed.
func ParseStreamHeader(b []byte) (StreamHeader, int, error) {
	if len(b) < StreamHeaderSize {
		return StreamHeader{}, 0, fmt.Errorf("%w: stream header needs %d bytes, have %d", ErrTruncatedInput, StreamHeaderSize, len(b))
	}

	if b[0]&0x0F != HeaderMagic {
		return StreamHeader{}, 0, fmt.Errorf("%w: stream header magic nibble 0x%X", ErrInvalidFormat, b[0]&0x0F)
	}

	if (b[0]>>4)&3 != 0 {
		return StreamHeader{}, 0, fmt.Errorf("%w: reserved stream header bits set in 0x%02X", ErrInvalidFormat, b[0])
	}

	h := StreamHeader{
		Type:           DecoderType(b[1] & 0x7F),
		RestartDecoder: b[0]&0x80 != 0,
		Uncompressed:   b[0]&0x40 != 0,
		UseChecksums:   b[1]&0x80 != 0,
	}
	if !h.Type.Valid() {
		return StreamHeader{}, 0, fmt.Errorf("%w: unknown decoder type %d", ErrInvalidFormat, h.Type)
	}

	return h, StreamHeaderSize, nil
}

// ParseBlockHeader parses the header of one block of decoder type t. blockSize is
// the output size of the block and becomes the payload size of stored LZNA blocks.
func ParseBlockHeader(b []byte, useChecksum bool, t DecoderType, blockSize int) (BlockHeader, int, error) {
	if t.KrakenFamily() {
		return parseKrakenBlockHeader(b, useChecksum)
	}

	return parseLZNABlockHeader(b, useChecksum, blockSize)
}

func parseKrakenBlockHeader(b []byte, useChecksum bool) (BlockHeader, int, error) {
	if len(b) < 3 {
		return BlockHeader{}, 0, fmt.Errorf("%w: block header", ErrTruncatedInput)
	}

	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	size := v & krakenSizeSentinel
	if size != krakenSizeSentinel {
		h := BlockHeader{
			CompressedSize: int(size) + 1,
			Flag1:          v>>18&1 != 0,
			Flag2:          v>>19&1 != 0,
		}
		if !useChecksum {
			return h, 3, nil
		}

		if len(b) < 6 {
			return BlockHeader{}, 0, fmt.Errorf("%w: block checksum", ErrTruncatedInput)
		}
		h.Checksum = uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])

		return h, 6, nil
	}

	if v>>18 == 1 {
		if len(b) < 4 {
			return BlockHeader{}, 0, fmt.Errorf("%w: memset value", ErrTruncatedInput)
		}

		return BlockHeader{Checksum: uint32(b[3])}, 4, nil
	}

	return BlockHeader{}, 0, fmt.Errorf("%w: block header 0x%06X", ErrInvalidFormat, v)
}

func parseLZNABlockHeader(b []byte, useChecksum bool, blockSize int) (BlockHeader, int, error) {
	if len(b) < 2 {
		return BlockHeader{}, 0, fmt.Errorf("%w: block header", ErrTruncatedInput)
	}

	v := uint32(b[0])<<8 | uint32(b[1])
	size := v & lznaSizeSentinel
	if size != lznaSizeSentinel {
		h := BlockHeader{
			CompressedSize: int(size) + 1,
			Flag1:          v>>14&1 != 0,
			Flag2:          v>>15&1 != 0,
		}
		if !useChecksum {
			return h, 2, nil
		}

		if len(b) < 5 {
			return BlockHeader{}, 0, fmt.Errorf("%w: block checksum", ErrTruncatedInput)
		}
		h.Checksum = uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])

		return h, 5, nil
	}

	switch v >> 14 {
	case 0:
		dist, n, err := parseWholeMatch(b[2:])
		if err != nil {
			return BlockHeader{}, 0, err
		}

		return BlockHeader{WholeMatchDistance: dist}, 2 + n, nil
	case 1:
		if len(b) < 3 {
			return BlockHeader{}, 0, fmt.Errorf("%w: memset value", ErrTruncatedInput)
		}

		return BlockHeader{Checksum: uint32(b[2])}, 3, nil
	case 2:
		return BlockHeader{CompressedSize: blockSize}, 2, nil
	}

	return BlockHeader{}, 0, fmt.Errorf("%w: block header 0x%04X", ErrInvalidFormat, v)
}

// parseWholeMatch reads the distance of a whole-match block: a big-endian 16-bit
// word, extended by base-128 digits when its high bit is clear.
func parseWholeMatch(b []byte) (int, int, error) {
	if len(b) < 2 {
		return 0, 0, fmt.Errorf("%w: whole match distance", ErrTruncatedInput)
	}

	v := int(b[0])<<8 | int(b[1])
	if v >= 0x8000 {
		return v - 0x8000 + 1, 2, nil
	}

	x, shift, i := 0, 0, 2
	for {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("%w: whole match distance", ErrTruncatedInput)
		}

		c := int(b[i])
		i++
		if c&0x80 != 0 {
			x += (c - 0x80) << shift
			break
		}

		x += (c + 0x80) << shift
		shift += 7
		if shift > 28 {
			return 0, 0, fmt.Errorf("%w: whole match distance overflows", ErrInvalidFormat)
		}
	}

	return 0x8000 + v + x<<15 + 1, i, nil
}
