package grid

import (
	"git.sr.ht/~bigdata/bdview/block"
	"git.sr.ht/~bigdata/bdview/cache"
)

// Grid is VolatileBlockGrid (C6): a block-addressed view over one
// (timepoint, setup, level) volume, backed by a shared cache.BlockCache.
// Get never blocks unless the strategy passed to it is cache.Blocking.
type Grid struct {
	Cache  *cache.BlockCache
	Layout Layout
	Shape  block.Shape

	Timepoint int
	Setup     int
	Level     int

	// Prefetch, when true, makes Get also hint-enqueue the immediate
	// axis-aligned neighbors of the requested block at lowest priority.
	Prefetch bool
}

// New builds a Grid over layout for (timepoint, setup, level), sharing c
// and shape with any sibling Grid over the same (timepoint, setup, level)
// triple.
func New(c *cache.BlockCache, layout Layout, shape block.Shape, timepoint, setup, level int, prefetch bool) *Grid {
	return &Grid{
		Cache:     c,
		Layout:    layout,
		Shape:     shape,
		Timepoint: timepoint,
		Setup:     setup,
		Level:     level,
		Prefetch:  prefetch,
	}
}

// Get returns the block at blockIndex: GetIfPresent first, falling back
// to GetOrCreate if absent. The returned block's payload may be invalid
// unless strategy is cache.Blocking. If blockIndex is out of the grid's
// bounds, Get returns the zero Block and false.
func (g *Grid) Get(blockIndex [3]int, strategy cache.Strategy, job block.JobID) (block.Block, bool) {
	if !g.Layout.InBounds(blockIndex) {
		return block.Block{}, false
	}
	key := g.key(blockIndex)
	b, ok := g.Cache.GetIfPresent(key, strategy, job)
	if !ok {
		b = g.Cache.GetOrCreate(key, g.Layout.Dims(blockIndex), g.Layout.Origin(blockIndex), strategy, job)
	}
	if g.Prefetch {
		g.prefetchNeighbors(blockIndex)
	}
	return b, true
}

func (g *Grid) key(blockIndex [3]int) block.Key {
	return g.Shape.Key(g.Timepoint, g.Setup, g.Level, g.Layout.Linearize(blockIndex))
}

// prefetchNeighbors materializes placeholders for blockIndex's six
// axis-aligned neighbors (where in bounds) and hint-enqueues them at the
// lowest priority. It never blocks and never affects strategy outcomes
// for the block actually requested.
func (g *Grid) prefetchNeighbors(blockIndex [3]int) {
	for axis := 0; axis < 3; axis++ {
		for _, delta := range [2]int{-1, 1} {
			neighbor := blockIndex
			neighbor[axis] += delta
			if !g.Layout.InBounds(neighbor) {
				continue
			}
			key := g.key(neighbor)
			entry := g.Cache.Touch(key, g.Layout.Dims(neighbor), g.Layout.Origin(neighbor))
			g.Cache.EnqueuePrefetch(entry)
		}
	}
}
