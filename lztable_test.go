package oodle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repeatSeed returns n bytes of "ABCDEFGH" repeated.
func repeatSeed(n int) []byte {
	return bytes.Repeat([]byte("ABCDEFGH"), n/8+1)[:n]
}

func TestReadLzTableStreams(t *testing.T) {
	out := make([]byte, 42)
	table, err := readLzTable(1, lzPayload('X', 'Y'), out, 0, len(out))
	require.NoError(t, err)

	assert.Equal(t, []byte("ABCDEFGH"), out[:8])
	assert.Equal(t, []byte("XY"), table.lits)
	assert.Equal(t, []byte{0x18, 0x18, 0x18, 0x18}, table.cmds)
	assert.Empty(t, table.offsets)
	assert.Empty(t, table.lengths)
	assert.False(t, table.stopped)

	require.NoError(t, processLzRuns(table, out, 8, len(out), false))
	assert.Equal(t, concat(repeatSeed(40), []byte("XY")), out)
}

func TestReadLzTableSideLengths(t *testing.T) {
	payload := concat(
		[]byte("ABCDEFGH"),
		[]byte{0x00, 0x00, 0x02, 'X', 'Y'},
		[]byte{0x00, 0x00, 0x01, 0x3C},
		[]byte{0x00, 0x00, 0x00},
		[]byte{0x00, 0x00, 0x01, 0xFF},
		// Forward: length code 1000101. Backward: side count 0 10.
		[]byte{0x8A, 0x40},
	)

	out := make([]byte, 287)
	table, err := readLzTable(1, payload, out, 0, len(out))
	require.NoError(t, err)
	assert.Equal(t, []int32{255 + 5 + 3}, table.lengths)

	require.NoError(t, processLzRuns(table, out, 8, len(out), false))
	assert.Equal(t, concat(repeatSeed(285), []byte("XY")), out)
}

func TestReadLzTableScaledOffsets(t *testing.T) {
	payload := concat(
		[]byte("ABCDEFGH"),
		[]byte{0x00, 0x00, 0x02, 'X', 'Y'},
		[]byte{0x00, 0x00, 0x04, 0xD8, 0x18, 0x18, 0x18},
		[]byte{0x80},
		[]byte{0x00, 0x00, 0x01, 0x08},
		[]byte{0x00, 0x00, 0x00},
		[]byte{0x00, 0x80},
	)

	out := make([]byte, 42)
	table, err := readLzTable(1, payload, out, 0, len(out))
	require.NoError(t, err)
	assert.Equal(t, []int32{-8}, table.offsets)

	require.NoError(t, processLzRuns(table, out, 8, len(out), false))
	assert.Equal(t, concat(repeatSeed(40), []byte("XY")), out)
}

func TestReadLzTableOffsetExtras(t *testing.T) {
	payload := concat(
		[]byte("ABCDEFGH"),
		[]byte{0x00, 0x00, 0x02, 'X', 'Y'},
		[]byte{0x00, 0x00, 0x04, 0xD8, 0x18, 0x18, 0x18},
		[]byte{0x81},
		[]byte{0x00, 0x00, 0x01, 0x00},
		[]byte{0x00, 0x00, 0x01, 0x08},
		[]byte{0x00, 0x00, 0x00},
		[]byte{0x80},
	)

	out := make([]byte, 42)
	table, err := readLzTable(1, payload, out, 0, len(out))
	require.NoError(t, err)
	assert.Equal(t, []int32{-8}, table.offsets)
}

func TestReadLzTableStopsOnWideOffset(t *testing.T) {
	payload := concat(
		[]byte("ABCDEFGH"),
		[]byte{0x00, 0x00, 0x02, 'X', 'Y'},
		[]byte{0x00, 0x00, 0x04, 0xD8, 0x18, 0x18, 0x18},
		[]byte{0x80},
		[]byte{0x00, 0x00, 0x01, 0xD8},
		[]byte{0x00, 0x00, 0x00},
		[]byte{0x00, 0x80},
	)

	table, err := readLzTable(1, payload, make([]byte, 42), 0, 42)
	require.NoError(t, err)
	assert.True(t, table.stopped)
	assert.Empty(t, table.offsets)
}

func TestReadLzTableErrors(t *testing.T) {
	excess := concat([]byte("ABCDEFGH"), []byte{0x80, 0, 0, 0, 0, 0})
	reserved := concat([]byte("ABCDEFGH"), []byte{0xC0, 0, 0, 0, 0, 0})

	tests := []struct {
		name string
		mode int
		src  []byte
		want error
	}{
		{name: "mode", mode: 2, src: lzPayload('X', 'Y'), want: ErrInvalidFormat},
		{name: "short", mode: 1, src: make([]byte, 12), want: ErrTruncatedInput},
		{name: "excess bytes", mode: 1, src: excess, want: ErrUnsupported},
		{name: "reserved flag", mode: 1, src: reserved, want: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readLzTable(tt.mode, tt.src, make([]byte, 42), 0, 42)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProcessLzRunsErrors(t *testing.T) {
	tests := []struct {
		name  string
		table *lzTable
		want  error
	}{
		{name: "offset before start", table: &lzTable{cmds: []byte{0xD8}, offsets: []int32{-16}}, want: ErrInvalidFormat},
		{name: "offset stream exhausted", table: &lzTable{cmds: []byte{0xD8}}, want: ErrInvalidFormat},
		{name: "unused offset", table: &lzTable{cmds: []byte{0x00}, offsets: []int32{-8}, lits: make([]byte, 6)}, want: ErrSizeMismatch},
		{name: "short literals", table: &lzTable{lits: []byte("X")}, want: ErrSizeMismatch},
		{name: "match past end", table: &lzTable{cmds: []byte{0x1C}}, want: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := concat([]byte("ABCDEFGH"), make([]byte, 8))
			err := processLzRuns(tt.table, out, 8, len(out), false)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProcessLzRunsDeltaLiterals(t *testing.T) {
	out := concat([]byte("ABCDEFGH"), make([]byte, 3))
	table := &lzTable{lits: []byte{1, 2, 3}}

	require.NoError(t, processLzRuns(table, out, 8, len(out), true))
	assert.Equal(t, "ABCDEFGHBDF", string(out))
}
