package oodle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one independent stream for DecompressAll.
type Job struct {
	Src    []byte // Compressed stream.
	OutLen int    // Uncompressed size.
}

// DecompressAll decodes independent streams concurrently, at most
// Options.Concurrency at a time, and returns the outputs in job order. The first
// failure or a cancelled ctx stops the jobs that have not started.
func DecompressAll(ctx context.Context, jobs []Job, opts *Options) ([][]byte, error) {
	opts = opts.normalized()
	out := make([][]byte, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			dec, err := Decompress(job.Src, job.OutLen, opts)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			out[i] = dec

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
