// Package cache implements the block residency table (BlockCache), its
// soft-reclamation and three loading strategies, and the FetcherPool of
// background workers that drain its fetch queue.
package cache

import (
	"context"

	"git.sr.ht/~bigdata/bdview/block"
)

// BlockLoader is the external collaborator that actually reads bytes for
// a block, from whatever bulk I/O format a concrete deployment uses. The
// cache never interprets the format; it only calls this interface.
type BlockLoader interface {
	// BytesPerElement reports the sample size in bytes, used by callers
	// sizing buffers ahead of a load.
	BytesPerElement() int
	// LoadArray performs the (possibly blocking) read of one block's
	// samples. It may return early with ctx.Err() if ctx is cancelled.
	LoadArray(ctx context.Context, timepoint, setup, level int, dims [3]int, origin [3]int64) (block.Payload, error)
	// EmptyArray returns an invalid placeholder payload of the given
	// dimensions, with no I/O performed.
	EmptyArray(dims [3]int) block.Payload
}
