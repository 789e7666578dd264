package oodle

import (
	"fmt"
	"math/bits"
)

// scalingMaxShift is the largest offset width exponent of a scaled offset command.
const scalingMaxShift = 26

// lzTable holds the unpacked streams of one LZ segment.
type lzTable struct {
	lits    []byte
	cmds    []byte
	offsets []int32 // Negative distances.
	lengths []int32 // Literal and match lengths over the inline limits.

	// stopped is set when offset unpacking met a command wider than
	// scalingMaxShift; offsets holds what was decoded before it. The length
	// streams are left unpacked, so callers must treat a stopped table as
	// undecodable.
	stopped bool
}

// readLzTable unpacks the literal, command, offset and length streams of the
// segment out[pos:pos+count] from src. mode 0 stores literals as deltas against
// the last match, mode 1 stores them raw.
func readLzTable(mode int, src, out []byte, pos, count int) (*lzTable, error) {
	if mode > 1 {
		return nil, fmt.Errorf("%w: lz mode %d", ErrInvalidFormat, mode)
	}
	if len(src) < 13 {
		return nil, fmt.Errorf("%w: lz table of %d bytes", ErrTruncatedInput, len(src))
	}

	if pos == 0 {
		if count < 8 {
			return nil, fmt.Errorf("%w: lz segment of %d bytes", ErrInvalidFormat, count)
		}
		copy(out[:8], src[:8])
		src = src[8:]
	}

	if src[0]&0x80 != 0 {
		if src[0]&0x40 != 0 {
			return nil, fmt.Errorf("%w: reserved lz table flag 0x%02X", ErrInvalidFormat, src[0])
		}
		return nil, fmt.Errorf("%w: lz excess bytes", ErrUnsupported)
	}

	t := &lzTable{}

	lits, n, err := decodeStream(src, count)
	if err != nil {
		return nil, fmt.Errorf("literals: %w", err)
	}
	t.lits = lits
	src = src[n:]

	cmds, n, err := decodeStream(src, count)
	if err != nil {
		return nil, fmt.Errorf("commands: %w", err)
	}
	t.cmds = cmds
	src = src[n:]

	if len(src) < 3 {
		return nil, fmt.Errorf("%w: lz table ends after commands", ErrInvalidFormat)
	}

	scaling := 0
	if src[0]&0x80 != 0 {
		scaling = int(src[0]) - 127
		src = src[1:]
	}

	packedOffs, n, err := decodeStream(src, len(cmds))
	if err != nil {
		return nil, fmt.Errorf("offsets: %w", err)
	}
	src = src[n:]

	var extra []byte
	if scaling > 1 {
		extra, n, err = decodeStream(src, len(packedOffs))
		if err != nil {
			return nil, fmt.Errorf("offset extras: %w", err)
		}
		if len(extra) != len(packedOffs) {
			return nil, fmt.Errorf("%w: %d offset extras for %d offsets", ErrSizeMismatch, len(extra), len(packedOffs))
		}
		src = src[n:]
	}

	packedLens, n, err := decodeStream(src, count>>2)
	if err != nil {
		return nil, fmt.Errorf("lengths: %w", err)
	}
	src = src[n:]

	if err := t.unpackOffsets(src, packedOffs, extra, scaling, packedLens); err != nil {
		return nil, err
	}

	return t, nil
}

// decodeStream decodes one entropy chunk of at most limit bytes.
func decodeStream(src []byte, limit int) ([]byte, int, error) {
	buf := make([]byte, limit)
	n, written, err := decodeBytes(buf, src)
	if err != nil {
		return nil, 0, err
	}

	return buf[:written], n, nil
}

// unpackOffsets expands packed offsets and lengths. The bit data is shared by a
// forward reader, which takes even entries, and a backward reader, which takes odd
// entries and starts with the length of the side buffer of long lengths.
func (t *lzTable) unpackOffsets(src, packedOffs, extra []byte, scaling int, packedLens []byte) error {
	a := newBitReader(src)
	b := newBackwardBitReader(src)

	if b.bits < 0x2000 {
		return fmt.Errorf("%w: side length prefix", ErrInvalidFormat)
	}
	n := bits.LeadingZeros32(b.bits)
	b.bitpos += n
	b.bits <<= uint(n)
	b.refillBackwards()
	n++
	sideLen := int(b.bits>>uint(32-n)) - 1
	b.bitpos += n
	b.bits <<= uint(n)
	b.refillBackwards()

	t.offsets = make([]int32, len(packedOffs))
	if scaling == 0 {
		for i, c := range packedOffs {
			if i&1 == 0 {
				t.offsets[i] = -int32(a.readDistance(uint32(c), false))
			} else {
				t.offsets[i] = -int32(b.readDistance(uint32(c), true))
			}
		}
	} else {
		for i, c := range packedOffs {
			shift := int(c >> 3)
			if shift > scalingMaxShift {
				t.offsets = t.offsets[:i]
				t.stopped = true
				return nil
			}

			var v uint32
			if i&1 == 0 {
				v = a.readMoreThan24Bits(shift, false)
			} else {
				v = b.readMoreThan24Bits(shift, true)
			}
			t.offsets[i] = 8 - int32(uint32(8+c&7)<<uint(shift)|v)
		}

		if scaling != 1 {
			for i := range t.offsets {
				t.offsets[i] = int32(scaling)*t.offsets[i] - int32(extra[i])
			}
		}
	}

	if sideLen > 512 {
		return fmt.Errorf("%w: %d side lengths", ErrInvalidFormat, sideLen)
	}

	side := make([]uint32, sideLen)
	for i := range side {
		var v uint32
		var ok bool
		if i&1 == 0 {
			v, ok = a.readLength(false)
		} else {
			v, ok = b.readLength(true)
		}
		if !ok {
			return fmt.Errorf("%w: side length %d", ErrInvalidFormat, i)
		}
		side[i] = v
	}

	if fp, bp := a.forwardPos(), b.backwardPos(); fp != bp {
		return fmt.Errorf("%w: offset readers end at %d and %d", ErrSizeMismatch, fp, bp)
	}

	t.lengths = make([]int32, len(packedLens))
	k := 0
	for i, c := range packedLens {
		v := uint32(c)
		if v == 255 {
			if k >= len(side) {
				return fmt.Errorf("%w: side lengths exhausted", ErrInvalidFormat)
			}
			v += side[k]
			k++
		}
		t.lengths[i] = int32(v + 3)
	}

	if k != len(side) {
		return fmt.Errorf("%w: %d of %d side lengths used", ErrSizeMismatch, k, len(side))
	}

	return nil
}
