package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// chunkOutcome describes how a chunked run ended
type chunkOutcome struct {
	partial bool
	message string
	pending []string
}

// ProgressFunc is called after each completed chunk
type ProgressFunc func(family string, done, total int)

// chunk splits urls into consecutive groups of at most size
func chunk(urls []string, size int) [][]string {
	if size <= 0 {
		size = len(urls)
	}
	var out [][]string
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		out = append(out, urls[start:end])
	}
	return out
}

// runChunked applies fn to every URL, chunk by chunk. URLs within a chunk
// run concurrently and the chunk as a whole is bounded by timeout. When a
// chunk misses its deadline, or ctx ends, the run stops and only the
// results of completed chunks are returned, in input order.
func runChunked[T any](ctx context.Context, family string, urls []string, size int, timeout time.Duration,
	progress ProgressFunc, fn func(ctx context.Context, url string) T) ([]T, chunkOutcome) {

	chunks := chunk(urls, size)
	results := make([]T, 0, len(urls))

	for i, c := range chunks {
		out, ok := runChunk(ctx, c, timeout, fn)
		if !ok {
			var pending []string
			for _, rest := range chunks[i:] {
				pending = append(pending, rest...)
			}

			reason := fmt.Sprintf("timed out after %s", timeout)
			if ctx.Err() != nil {
				reason = "was canceled"
			}
			msg := fmt.Sprintf("chunk %d/%d %s; returned results for %d of %d URLs",
				i+1, len(chunks), reason, len(results), len(urls))

			slog.Warn("Chunk did not complete",
				"family", family,
				"chunk", i+1,
				"chunks", len(chunks),
				"pending", len(pending),
				"timeout", timeout)

			return results, chunkOutcome{partial: true, message: msg, pending: pending}
		}

		results = append(results, out...)
		slog.Debug("Chunk finished", "family", family, "chunk", i+1, "chunks", len(chunks))
		if progress != nil {
			progress(family, len(results), len(urls))
		}
	}

	return results, chunkOutcome{}
}

// runChunk runs fn over urls concurrently and waits for all of them or the
// chunk deadline. Results of an abandoned chunk are never read.
func runChunk[T any](ctx context.Context, urls []string, timeout time.Duration,
	fn func(ctx context.Context, url string) T) ([]T, bool) {

	if err := ctx.Err(); err != nil {
		return nil, false
	}

	chunkCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		chunkCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	slots := make([]T, len(urls))
	done := make(chan struct{})

	go func() {
		var g errgroup.Group
		for i, u := range urls {
			g.Go(func() error {
				slots[i] = fn(chunkCtx, u)
				return nil
			})
		}
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return slots, true
	case <-chunkCtx.Done():
		// A chunk that finished right at the deadline still counts
		select {
		case <-done:
			return slots, true
		default:
			return nil, false
		}
	}
}
