package oodle

import (
	"fmt"
)

// Decompress decodes src into a new buffer of length outLen.
// Options nil means DefaultOptions. All of src must belong to the stream.
func Decompress(src []byte, outLen int, opts *Options) ([]byte, error) {
	out, consumed, err := DecompressBlock(src, outLen, opts)
	if err != nil {
		return nil, err
	}

	if consumed != len(src) {
		return nil, fmt.Errorf("%w: consumed=%d input=%d", ErrTrailingData, consumed, len(src))
	}

	return out, nil
}

// DecompressBlock decodes outLen bytes from the beginning of src.
// It returns decompressed bytes and the number of consumed bytes.
// Unlike Decompress, this function ignores trailing bytes after the stream.
func DecompressBlock(src []byte, outLen int, opts *Options) ([]byte, int, error) {
	if outLen < 0 {
		return nil, 0, ErrNegativeOutLen
	}

	out := make([]byte, outLen)
	consumed, err := DecompressInto(out, src, opts)
	if err != nil {
		return nil, consumed, err
	}

	return out, consumed, nil
}

// DecompressInto decodes len(dst) bytes from the beginning of src into dst and
// returns the number of consumed bytes. Trailing bytes are ignored.
func DecompressInto(dst, src []byte, opts *Options) (int, error) {
	d := NewDecoder(opts)

	offset, consumed := 0, 0
	for offset < len(dst) {
		n, written, err := d.DecodeStep(dst, offset, src[consumed:])
		if err != nil {
			return consumed, fmt.Errorf("block at offset %d: %w", offset, err)
		}

		if n == 0 {
			return consumed, fmt.Errorf("%w: block at offset %d needs more input", ErrTruncatedInput, offset)
		}

		consumed += n
		offset += written
	}

	return consumed, nil
}
