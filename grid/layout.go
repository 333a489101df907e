// Package grid implements VolatileBlockGrid (C6): a block-addressed view
// over a large 3D array backed by a cache.BlockCache.
package grid

// Layout describes how a single (timepoint, setup, level) volume is
// tiled into blocks: the nominal block size, the number of blocks along
// each axis, and the volume's origin and full extent (so edge blocks can
// be clipped instead of overrunning the volume).
type Layout struct {
	BlockDims    [3]int
	GridDims     [3]int
	VolumeOrigin [3]int64
	VolumeDims   [3]int64
}

// NewLayout derives GridDims from VolumeDims and BlockDims (ceiling
// division per axis).
func NewLayout(blockDims [3]int, volumeOrigin, volumeDims [3]int64) Layout {
	var gridDims [3]int
	for i := 0; i < 3; i++ {
		bd := int64(blockDims[i])
		if bd < 1 {
			bd = 1
		}
		gridDims[i] = int(ceilDiv(volumeDims[i], bd))
	}
	return Layout{
		BlockDims:    blockDims,
		GridDims:     gridDims,
		VolumeOrigin: volumeOrigin,
		VolumeDims:   volumeDims,
	}
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// InBounds reports whether blockIndex addresses a real block in this
// layout.
func (l Layout) InBounds(blockIndex [3]int) bool {
	for i := 0; i < 3; i++ {
		if blockIndex[i] < 0 || blockIndex[i] >= l.GridDims[i] {
			return false
		}
	}
	return true
}

// Linearize maps a 3D block index to the grid's linear index, in
// x-fastest order.
func (l Layout) Linearize(blockIndex [3]int) int64 {
	return int64(blockIndex[0]) +
		int64(blockIndex[1])*int64(l.GridDims[0]) +
		int64(blockIndex[2])*int64(l.GridDims[0])*int64(l.GridDims[1])
}

// Origin returns the volume-space origin of the block at blockIndex.
func (l Layout) Origin(blockIndex [3]int) [3]int64 {
	var origin [3]int64
	for i := 0; i < 3; i++ {
		origin[i] = l.VolumeOrigin[i] + int64(blockIndex[i])*int64(l.BlockDims[i])
	}
	return origin
}

// Dims returns the dimensions of the block at blockIndex, clipped to the
// volume extent for edge blocks.
func (l Layout) Dims(blockIndex [3]int) [3]int {
	var dims [3]int
	for i := 0; i < 3; i++ {
		remaining := l.VolumeOrigin[i] + l.VolumeDims[i] - (l.VolumeOrigin[i] + int64(blockIndex[i])*int64(l.BlockDims[i]))
		d := int64(l.BlockDims[i])
		if remaining < d {
			d = remaining
		}
		if d < 0 {
			d = 0
		}
		dims[i] = int(d)
	}
	return dims
}
