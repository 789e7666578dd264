package oodle

import (
	"fmt"
	"log/slog"
)

// Decoder decodes one stream block by block. It keeps the most recent stream
// header between DecodeStep calls, so a stream can be fed in pieces.
type Decoder struct {
	log     *slog.Logger
	header  StreamHeader
	headers int // Stream headers parsed so far.
}

// NewDecoder returns a Decoder. Options nil means DefaultOptions.
func NewDecoder(opts *Options) *Decoder {
	return &Decoder{log: opts.normalized().Logger}
}

// Header returns the most recent stream header and whether one was parsed.
func (d *Decoder) Header() (StreamHeader, bool) {
	return d.header, d.headers > 0
}

// DecodeStep decodes the block that produces dst[offset:]. dst is the whole output
// buffer; bytes before offset are match history. It returns bytes consumed from
// src and bytes written to dst. When src holds a header but not the full payload,
// it returns 0, 0 and a nil error; retry with more input.
func (d *Decoder) DecodeStep(dst []byte, offset int, src []byte) (int, int, error) {
	if offset < 0 || offset >= len(dst) {
		return 0, 0, fmt.Errorf("%w: offset %d outside output of %d bytes", ErrSizeMismatch, offset, len(dst))
	}

	in := 0
	if offset&headerBoundaryMask == 0 {
		h, n, err := ParseStreamHeader(src)
		if err != nil {
			return 0, 0, err
		}
		d.header = h
		d.headers++
		in = n

		d.log.Debug("stream header",
			"offset", offset,
			"type", h.Type.String(),
			"uncompressed", h.Uncompressed,
			"checksums", h.UseChecksums,
			"restart", h.RestartDecoder,
		)
	} else if d.headers == 0 {
		return 0, 0, fmt.Errorf("%w: no stream header before offset %d", ErrInvalidFormat, offset)
	}

	h := &d.header
	blockSize := min(h.Type.BlockSize(), len(dst)-offset)

	if h.Uncompressed {
		if len(src)-in < blockSize {
			return 0, 0, nil
		}
		copy(dst[offset:offset+blockSize], src[in:in+blockSize])

		return in + blockSize, blockSize, nil
	}

	bh, n, err := ParseBlockHeader(src[in:], h.UseChecksums, h.Type, blockSize)
	if err != nil {
		return 0, 0, err
	}
	in += n

	if bh.CompressedSize > len(src)-in {
		return 0, 0, nil
	}
	if bh.CompressedSize > blockSize {
		return 0, 0, fmt.Errorf("%w: block payload %d exceeds block size %d", ErrInvalidFormat, bh.CompressedSize, blockSize)
	}

	if bh.Fill() {
		if bh.WholeMatchDistance != 0 {
			if bh.WholeMatchDistance > offset {
				return 0, 0, fmt.Errorf("%w: whole match distance %d at offset %d", ErrInvalidFormat, bh.WholeMatchDistance, offset)
			}
			from := offset - bh.WholeMatchDistance
			for i := 0; i < blockSize; i++ {
				dst[offset+i] = dst[from+i]
			}
			d.log.Debug("whole match block", "offset", offset, "distance", bh.WholeMatchDistance, "size", blockSize)
		} else {
			fill(dst[offset:offset+blockSize], byte(bh.Checksum))
			d.log.Debug("memset block", "offset", offset, "value", byte(bh.Checksum), "size", blockSize)
		}

		return in, blockSize, nil
	}

	if h.UseChecksums {
		d.log.Debug("block checksum not verified", "offset", offset, "checksum", bh.Checksum)
	}

	if bh.CompressedSize == blockSize {
		copy(dst[offset:offset+blockSize], src[in:in+blockSize])

		return in + blockSize, blockSize, nil
	}

	payload := src[in : in+bh.CompressedSize]

	var used int
	switch h.Type {
	case Kraken:
		used, err = decodeKrakenQuantum(dst, offset, offset+blockSize, payload, d.log)
	case LZNA, BitKnit:
		h.RestartDecoder = false
		err = fmt.Errorf("%w: %s block", ErrUnsupported, h.Type)
	default:
		err = fmt.Errorf("%w: %s block", ErrUnsupported, h.Type)
	}
	if err != nil {
		return 0, 0, err
	}

	if used != bh.CompressedSize {
		return 0, 0, fmt.Errorf("%w: block used %d of %d bytes", ErrSizeMismatch, used, bh.CompressedSize)
	}

	d.log.Debug("block", "offset", offset, "type", h.Type.String(), "compressed", bh.CompressedSize, "size", blockSize)

	return in + used, blockSize, nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
