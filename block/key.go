// Package block defines the data model shared by the cache, grid, and
// projector packages: block identity, volatile payloads, cache entries,
// the fetch priority queue, and the per-job I/O budget and statistics.
package block

// Key uniquely identifies a block within a mipmap pyramid: a timepoint, a
// setup (independent view/channel), a mipmap level, and a linearized grid
// index within that level.
//
// Hash is precomputed at construction time from the grid dimensions in
// effect when the key was made, mirroring the layout of a dense 4D array
// so that keys for adjacent blocks hash to nearby buckets.
type Key struct {
	Timepoint int
	Setup     int
	Level     int
	Index     int64

	hash uint32
}

// NewKey builds a Key and precomputes its hash from the grid shape
// (maxLevels, numSetups, numTimepoints) that was in effect at creation.
func NewKey(timepoint, setup, level int, index int64, maxLevels, numSetups, numTimepoints int) Key {
	h := ((index*int64(maxLevels))+int64(level))*int64(numSetups) + int64(setup)
	h = h*int64(numTimepoints) + int64(timepoint)
	return Key{
		Timepoint: timepoint,
		Setup:     setup,
		Level:     level,
		Index:     index,
		hash:      uint32(h),
	}
}

// Hash returns the precomputed 32-bit hash for this key.
func (k Key) Hash() uint32 {
	return k.hash
}

// Shape fixes the grid dimensions (mipmap level count, setup count,
// timepoint count) needed to build Keys with a consistent hash. A cache
// and every grid.Grid sharing it should be built from Keys minted by the
// same Shape.
type Shape struct {
	MaxLevels     int
	NumSetups     int
	NumTimepoints int
}

// Key builds a Key for (timepoint, setup, level, index) under this Shape.
func (s Shape) Key(timepoint, setup, level int, index int64) Key {
	return NewKey(timepoint, setup, level, index, s.MaxLevels, s.NumSetups, s.NumTimepoints)
}
