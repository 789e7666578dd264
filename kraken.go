package oodle

import (
	"fmt"
	"log/slog"
)

// decodeKrakenQuantum decodes out[pos:end] from src segment by segment and
// returns the number of source bytes used. Earlier bytes of out serve as match
// history.
func decodeKrakenQuantum(out []byte, pos, end int, src []byte, log *slog.Logger) (int, error) {
	used := 0
	for pos < end {
		count := min(end-pos, KrakenSegment)
		rest := src[used:]
		if len(rest) < 4 {
			return 0, fmt.Errorf("%w: segment header at %d", ErrTruncatedInput, pos)
		}

		hdr := int(rest[0])<<16 | int(rest[1])<<8 | int(rest[2])
		if hdr&0x800000 == 0 {
			n, written, err := decodeBytes(out[pos:pos+count], rest)
			if err != nil {
				return 0, fmt.Errorf("entropy segment at %d: %w", pos, err)
			}
			if written != count {
				return 0, fmt.Errorf("%w: entropy segment wrote %d of %d bytes", ErrSizeMismatch, written, count)
			}
			used += n
			pos += count
			continue
		}

		rest = rest[3:]
		size := hdr & 0x7FFFF
		mode := (hdr >> 19) & 0xF
		if size > len(rest) {
			return 0, fmt.Errorf("%w: segment needs %d bytes, have %d", ErrTruncatedInput, size, len(rest))
		}

		switch {
		case size < count:
			t, err := readLzTable(mode, rest[:size], out, pos, count)
			if err != nil {
				return 0, fmt.Errorf("lz table at %d: %w", pos, err)
			}
			if t.stopped {
				log.Debug("offset unpacking stopped early", "pos", pos, "offsets", len(t.offsets))
				return 0, fmt.Errorf("%w: offset stream ends early at %d", ErrInvalidFormat, pos)
			}

			start := pos
			if pos == 0 {
				start += 8
			}
			if err := processLzRuns(t, out, start, pos+count, mode == 0); err != nil {
				return 0, fmt.Errorf("lz runs at %d: %w", pos, err)
			}
		case size > count || mode != 0:
			return 0, fmt.Errorf("%w: stored segment of %d bytes, mode %d, for %d", ErrInvalidFormat, size, mode, count)
		default:
			copy(out[pos:pos+count], rest[:size])
		}

		used += 3 + size
		pos += count
	}

	return used, nil
}
