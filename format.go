package oodle

import "strconv"

// Stream format constants.
const (
	HeaderMagic = 0xC // Low nibble of the first stream header byte.

	KrakenBlockSize  = 0x40000 // 256 KiB output per Kraken-family block.
	LZNABlockSize    = 0x4000  // 16 KiB output per LZNA-family block.
	KrakenSegment    = 0x20000 // 128 KiB output per Kraken quantum segment.
	StreamHeaderSize = 2

	krakenSizeSentinel = 0x3FFFF
	lznaSizeSentinel   = 0x3FFF
	headerBoundaryMask = KrakenBlockSize - 1 // Stream header repeats every 256 KiB of output.
)

// DecoderType identifies the codec family of a stream.
type DecoderType byte

// Decoder family codes stored in the second stream header byte.
const (
	LZNA      DecoderType = 5
	Kraken    DecoderType = 6
	Mermaid   DecoderType = 10
	BitKnit   DecoderType = 11
	Leviathan DecoderType = 12
)

// Valid reports whether t is one of the known decoder families.
func (t DecoderType) Valid() bool {
	switch t {
	case LZNA, Kraken, Mermaid, BitKnit, Leviathan:
		return true
	}

	return false
}

// KrakenFamily reports whether t uses the Kraken block layout (256 KiB blocks).
func (t DecoderType) KrakenFamily() bool {
	return t == Kraken || t == Mermaid || t == Leviathan
}

// BlockSize returns the output size of a full block for t.
func (t DecoderType) BlockSize() int {
	if t.KrakenFamily() {
		return KrakenBlockSize
	}

	return LZNABlockSize
}

func (t DecoderType) String() string {
	switch t {
	case LZNA:
		return "LZNA"
	case Kraken:
		return "Kraken"
	case Mermaid:
		return "Mermaid"
	case BitKnit:
		return "BitKnit"
	case Leviathan:
		return "Leviathan"
	}

	return "DecoderType(" + strconv.Itoa(int(t)) + ")"
}
