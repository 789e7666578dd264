package oodle

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// maxSizePrefix is the largest uncompressed size an 8-byte prefix may hold. A
// larger first word means the prefix is only 4 bytes long.
const maxSizePrefix = 0x10000000000

// countingReader reads from a reader and counts the number of bytes read.
type countingReader struct {
	base  io.Reader // The reader to read from.
	count int64     // The number of bytes read.
}

// Read reads from the base reader and adds to the count.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.base.Read(p)
	r.count += int64(n)

	return n, err
}

// DecompressFromReader reads a size-prefixed stream from r until EOF and decodes it.
// The prefix is the little-endian uncompressed size in 8 bytes, or in 4 bytes when
// the 8-byte value is implausibly large. It returns the bytes read from r.
func DecompressFromReader(r io.Reader, opts *Options) ([]byte, int64, error) {
	if r == nil {
		return nil, 0, ErrNilReader
	}

	cr := &countingReader{base: r}
	data, err := io.ReadAll(cr)
	if err != nil {
		return nil, cr.count, err
	}

	size, n, err := parseSizePrefix(data)
	if err != nil {
		return nil, cr.count, err
	}

	out, err := Decompress(data[n:], size, opts)
	if err != nil {
		return nil, cr.count, err
	}

	return out, cr.count, nil
}

// parseSizePrefix returns the uncompressed size and the prefix length.
func parseSizePrefix(b []byte) (int, int, error) {
	if len(b) < 4 {
		return 0, 0, fmt.Errorf("%w: have %d bytes", ErrSizePrefix, len(b))
	}

	if len(b) >= 8 {
		if v := binary.LittleEndian.Uint64(b); v <= maxSizePrefix {
			if v > math.MaxInt {
				return 0, 0, fmt.Errorf("%w: size %d overflows int", ErrSizePrefix, v)
			}
			return int(v), 8, nil
		}
	}

	return int(binary.LittleEndian.Uint32(b)), 4, nil
}
