package oodle

import (
	"encoding/binary"
	"fmt"
)

// Entropy chunk types, from bits 4-6 of the first chunk byte.
const (
	chunkRaw       = 0
	chunkTANS      = 1
	chunkHuffman   = 2
	chunkRLE       = 3
	chunkHuffman4  = 4
	chunkRecursive = 5
)

// decodeBytes decodes one entropy chunk of src into dst. len(dst) bounds the
// decoded size. It returns source bytes consumed and bytes written.
func decodeBytes(dst, src []byte) (int, int, error) {
	if len(src) < 2 {
		return 0, 0, fmt.Errorf("%w: chunk header", ErrTruncatedInput)
	}

	chunkType := (src[0] >> 4) & 7
	if chunkType == chunkRaw {
		return decodeRawBytes(dst, src)
	}

	var srcSize, dstSize, hdr int
	if src[0] >= 0x80 {
		if len(src) < 3 {
			return 0, 0, fmt.Errorf("%w: chunk header", ErrTruncatedInput)
		}
		v := int(src[0])<<16 | int(src[1])<<8 | int(src[2])
		srcSize = v & 0x3FF
		dstSize = srcSize + (v>>10)&0x3FF + 1
		hdr = 3
	} else {
		if len(src) < 5 {
			return 0, 0, fmt.Errorf("%w: chunk header", ErrTruncatedInput)
		}
		v := binary.BigEndian.Uint32(src[1:])
		srcSize = int(v & 0x3FFFF)
		dstSize = int((v>>18|uint32(src[0])<<14)&0x3FFFF) + 1
		if srcSize >= dstSize {
			return 0, 0, fmt.Errorf("%w: chunk of %d bytes expands to %d", ErrInvalidFormat, srcSize, dstSize)
		}
		hdr = 5
	}

	if srcSize > len(src)-hdr {
		return 0, 0, fmt.Errorf("%w: chunk needs %d bytes, have %d", ErrTruncatedInput, srcSize, len(src)-hdr)
	}
	if dstSize > len(dst) {
		return 0, 0, fmt.Errorf("%w: chunk decodes %d bytes into %d", ErrSizeMismatch, dstSize, len(dst))
	}

	payload := src[hdr : hdr+srcSize]
	out := dst[:dstSize]

	var used int
	var err error
	switch chunkType {
	case chunkHuffman, chunkHuffman4:
		used, err = decodeHuffmanBytes(out, payload, chunkType == chunkHuffman4)
	case chunkRecursive:
		used, err = decodeRecursiveBytes(out, payload)
	case chunkRLE:
		err = fmt.Errorf("%w: run-length chunk", ErrUnsupported)
	case chunkTANS:
		err = fmt.Errorf("%w: tANS chunk", ErrUnsupported)
	default:
		err = fmt.Errorf("%w: chunk type %d", ErrInvalidFormat, chunkType)
	}
	if err != nil {
		return 0, 0, err
	}

	if used != srcSize {
		return 0, 0, fmt.Errorf("%w: chunk used %d of %d bytes", ErrSizeMismatch, used, srcSize)
	}

	return hdr + srcSize, dstSize, nil
}

// decodeRawBytes copies a stored chunk.
func decodeRawBytes(dst, src []byte) (int, int, error) {
	var size, hdr int
	if src[0] >= 0x80 {
		size = (int(src[0])<<8 | int(src[1])) & 0xFFF
		hdr = 2
	} else {
		if len(src) < 3 {
			return 0, 0, fmt.Errorf("%w: chunk header", ErrTruncatedInput)
		}
		size = int(src[0])<<16 | int(src[1])<<8 | int(src[2])
		if size&^0x3FFFF != 0 {
			return 0, 0, fmt.Errorf("%w: reserved bits in stored chunk size", ErrInvalidFormat)
		}
		hdr = 3
	}

	if size > len(dst) {
		return 0, 0, fmt.Errorf("%w: stored chunk of %d bytes into %d", ErrSizeMismatch, size, len(dst))
	}
	if size > len(src)-hdr {
		return 0, 0, fmt.Errorf("%w: stored chunk needs %d bytes, have %d", ErrTruncatedInput, size, len(src)-hdr)
	}

	copy(dst, src[hdr:hdr+size])

	return hdr + size, size, nil
}

// decodeRecursiveBytes decodes a chunk that concatenates nested chunks.
func decodeRecursiveBytes(dst, src []byte) (int, error) {
	if len(src) < 6 {
		return 0, fmt.Errorf("%w: recursive chunk", ErrTruncatedInput)
	}

	n := int(src[0] & 0x7F)
	if n < 2 {
		return 0, fmt.Errorf("%w: recursive chunk with %d parts", ErrInvalidFormat, n)
	}
	if src[0]&0x80 != 0 {
		return 0, fmt.Errorf("%w: multi-array chunk", ErrUnsupported)
	}

	pos, out := 1, 0
	for ; n > 0; n-- {
		used, written, err := decodeBytes(dst[out:], src[pos:])
		if err != nil {
			return 0, err
		}
		pos += used
		out += written
	}

	if out != len(dst) {
		return 0, fmt.Errorf("%w: recursive chunk wrote %d of %d bytes", ErrSizeMismatch, out, len(dst))
	}

	return pos, nil
}
