/*
Package oodle implements a decoder for Oodle compressed streams (Kraken and the LZNA block layout).

Format: a 2-byte stream header at every 256 KiB of output names the decoder type and flags
(uncompressed, checksums, restart). Each block then carries a block header: a payload size,
or a fill marker for memset and whole-match blocks. Kraken blocks split into 128 KiB segments
that are either entropy coded bytes or LZ tables (literals, commands, offsets, lengths)
executed against the output history.

Entropy chunks: stored, Huffman with three interleaved streams, Huffman in two halves,
and recursive chunks. Huffman code lengths are gamma, sparse or Golomb-Rice coded.
tANS, run-length and multi-array chunks, and the LZNA, Mermaid, BitKnit and Leviathan
block decoders report ErrUnsupported. Checksums are parsed but not verified.

Use Decompress(src, outLen, opts) with nil for default options.
Use DecompressBlock(src, outLen, opts) to decode from the beginning of src and get consumed bytes.
Use DecompressInto(dst, src, opts) to decode into a caller-owned buffer.
Use DecompressFromReader(r, opts) for payloads that start with the uncompressed size.
Use DecompressAll(ctx, jobs, opts) to decode many independent streams in parallel.
Use NewDecoder(opts) and Decoder.DecodeStep to decode one block at a time.

# Examples

Decompress with default options:

	out, err := oodle.Decompress(encoded, expectedLen, nil)
	if err != nil {
		return err
	}

Decompress one stream and continue after it:

	out, consumed, err := oodle.DecompressBlock(buf, expectedLen, nil)
	if err != nil {
		return err
	}
	buf = buf[consumed:]

Trace stream and block headers:

	opts := &oodle.Options{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	out, err := oodle.Decompress(encoded, expectedLen, opts)

Decode a set of entries concurrently:

	outs, err := oodle.DecompressAll(ctx, []oodle.Job{{Src: a, OutLen: lenA}, {Src: b, OutLen: lenB}}, nil)
	if err != nil {
		return err
	}

Feed a stream block by block:

	d := oodle.NewDecoder(nil)
	for offset < len(dst) {
		n, written, err := d.DecodeStep(dst, offset, src)
		if err != nil {
			return err
		}
		if n == 0 {
			// read more input into src
			continue
		}
		src = src[n:]
		offset += written
	}
*/
package oodle
