package oodle

import "fmt"

// processLzRuns executes the commands of t over out[dst:end]. Each command emits
// literals and then one match against the three most recent offsets or a new one.
func processLzRuns(t *lzTable, out []byte, dst, end int, delta bool) error {
	var recent [7]int32
	recent[3], recent[4], recent[5] = -8, -8, -8
	lastOffset := int32(-8)

	lits := t.lits
	var oi, li int

	for _, f := range t.cmds {
		litLen := int(f & 3)
		offsIndex := int(f >> 6)
		matchLen := int((f >> 2) & 0xF)

		if litLen == 3 {
			if li >= len(t.lengths) {
				return fmt.Errorf("%w: literal length stream exhausted", ErrInvalidFormat)
			}
			litLen = int(t.lengths[li])
			li++
		}

		if offsIndex == 3 && oi >= len(t.offsets) {
			return fmt.Errorf("%w: offset stream exhausted", ErrInvalidFormat)
		}
		if oi < len(t.offsets) {
			recent[6] = t.offsets[oi]
		}

		if litLen > 0 {
			if litLen > len(lits) || litLen > end-dst {
				return fmt.Errorf("%w: %d literals at %d", ErrInvalidFormat, litLen, dst)
			}
			copyLiterals(out, dst, lits[:litLen], lastOffset, delta)
			lits = lits[litLen:]
			dst += litLen
		}

		offset := recent[offsIndex+3]
		recent[offsIndex+3] = recent[offsIndex+2]
		recent[offsIndex+2] = recent[offsIndex+1]
		recent[offsIndex+1] = recent[offsIndex]
		recent[3] = offset
		lastOffset = offset

		if offsIndex == 3 {
			oi++
		}

		if offset >= 0 || int(offset) < -dst {
			return fmt.Errorf("%w: match offset %d at %d", ErrInvalidFormat, offset, dst)
		}

		n := matchLen + 2
		if matchLen == 15 {
			if li >= len(t.lengths) {
				return fmt.Errorf("%w: match length stream exhausted", ErrInvalidFormat)
			}
			n = 14 + int(t.lengths[li])
			li++
		}
		if n > end-dst {
			return fmt.Errorf("%w: match of %d at %d past segment end %d", ErrInvalidFormat, n, dst, end)
		}

		from := dst + int(offset)
		for i := 0; i < n; i++ {
			out[dst+i] = out[from+i]
		}
		dst += n
	}

	if oi != len(t.offsets) || li != len(t.lengths) {
		return fmt.Errorf("%w: %d/%d offsets and %d/%d lengths used", ErrSizeMismatch, oi, len(t.offsets), li, len(t.lengths))
	}

	if len(lits) != end-dst {
		return fmt.Errorf("%w: %d trailing literals for %d bytes", ErrSizeMismatch, len(lits), end-dst)
	}
	copyLiterals(out, dst, lits, lastOffset, delta)

	return nil
}

// copyLiterals writes lits at out[dst:]. Delta literals are added to the byte at
// lastOffset.
func copyLiterals(out []byte, dst int, lits []byte, lastOffset int32, delta bool) {
	if !delta {
		copy(out[dst:], lits)
		return
	}

	for i, b := range lits {
		out[dst+i] = b + out[dst+i+int(lastOffset)]
	}
}
