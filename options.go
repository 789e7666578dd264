package oodle

import (
	"log/slog"
	"runtime"
)

// Options configures decompression.
type Options struct {
	// Logger receives debug traces of stream and block headers.
	// Nil discards all output.
	Logger *slog.Logger
	// Concurrency bounds the number of streams DecompressAll decodes at once.
	// Zero or less means runtime.GOMAXPROCS(0).
	Concurrency int
}

// DefaultOptions returns options for default behavior: silent, one worker per CPU.
func DefaultOptions() *Options {
	return &Options{
		Logger:      slog.New(slog.DiscardHandler),
		Concurrency: runtime.GOMAXPROCS(0),
	}
}

// normalized returns a copy of opts with defaults filled in. Nil means DefaultOptions.
func (o *Options) normalized() *Options {
	if o == nil {
		return DefaultOptions()
	}

	out := *o
	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}
	if out.Concurrency <= 0 {
		out.Concurrency = runtime.GOMAXPROCS(0)
	}

	return &out
}
