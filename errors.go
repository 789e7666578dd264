// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/oodle

package oodle

import "errors"

// Package errors. Use errors.New for static messages, fmt.Errorf when values are needed.
var (
	// ErrInvalidFormat reports a corrupt stream: bad magic, reserved bits, unknown
	// decoder family or chunk type, or tables that do not describe a valid code.
	ErrInvalidFormat = errors.New("invalid oodle stream")
	// ErrTruncatedInput reports a declared size larger than the remaining source.
	ErrTruncatedInput = errors.New("truncated oodle stream")
	// ErrSizeMismatch reports a sub-decoder that consumed or produced a different
	// number of bytes than its header declared.
	ErrSizeMismatch = errors.New("oodle size mismatch")
	// ErrUnsupported reports a valid feature this package does not decode
	// (LZNA, Mermaid, BitKnit, Leviathan, tANS, RLE and multi-array chunks).
	ErrUnsupported = errors.New("unsupported oodle feature")

	ErrTrailingData   = errors.New("trailing bytes after oodle stream")
	ErrNegativeOutLen = errors.New("output length must be non-negative")
	ErrNilReader      = errors.New("reader is nil")
	ErrSizePrefix     = errors.New("missing uncompressed size prefix")
)
