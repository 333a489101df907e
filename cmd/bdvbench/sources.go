package main

import (
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"

	"git.sr.ht/~bigdata/bdview/block"
	"git.sr.ht/~bigdata/bdview/cache"
	"git.sr.ht/~bigdata/bdview/grid"
	"git.sr.ht/~bigdata/bdview/project"
	"git.sr.ht/~bigdata/bdview/render"
)

// gridSource is a project.Source that maps a target pixel through an
// affine transform into volume space and samples the owning block via
// grid.Grid, never blocking (cache.Volatile).
type gridSource struct {
	g         *grid.Grid
	transform *mat.Dense
}

func (s *gridSource) Sample(x, y int) (project.Sample, bool) {
	in := mat.NewVecDense(4, []float64{float64(x), float64(y), 0, 1})
	var out mat.VecDense
	out.MulVec(s.transform, in)

	blockDims := s.g.Layout.BlockDims
	vx, vy, vz := out.AtVec(0), out.AtVec(1), out.AtVec(2)
	if vx < 0 || vy < 0 || vz < 0 {
		return nil, false
	}
	bi := [3]int{
		int(vx) / max1(blockDims[0]),
		int(vy) / max1(blockDims[1]),
		int(vz) / max1(blockDims[2]),
	}
	b, ok := s.g.Get(bi, cache.Volatile, 0)
	if !ok || b.Payload == nil || !b.Payload.IsValid() {
		return nil, false
	}
	return b, true
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// benchSourceFactory builds gridSources over a shared cache, one
// grid.Grid per (sourceIndex, level).
type benchSourceFactory struct {
	c      *cache.BlockCache
	layout grid.Layout
	shape  block.Shape
	grids  map[[2]int]*grid.Grid // key: {sourceIndex, level}
}

func newBenchSourceFactory(c *cache.BlockCache, layout grid.Layout, shape block.Shape) *benchSourceFactory {
	return &benchSourceFactory{c: c, layout: layout, shape: shape, grids: make(map[[2]int]*grid.Grid)}
}

func (f *benchSourceFactory) gridFor(sourceIndex, level int) *grid.Grid {
	key := [2]int{sourceIndex, level}
	g, ok := f.grids[key]
	if !ok {
		g = grid.New(f.c, f.layout, f.shape, 0, sourceIndex, level, true)
		f.grids[key] = g
	}
	return g
}

func (f *benchSourceFactory) BuildSource(sourceIndex, timepoint, level int, transform *mat.Dense, interpolation string) project.Source {
	return &gridSource{g: f.gridFor(sourceIndex, level), transform: transform}
}

func (f *benchSourceFactory) Converter(sourceIndex int) project.Converter {
	return func(s project.Sample) (colorful.Color, uint8) {
		return colorful.Color{R: 0.6, G: 0.6, B: 0.6}, 255
	}
}

func (f *benchSourceFactory) SupportsVolatile(sourceIndex int) bool { return true }

// fixedViewer is a static ViewerState: one visible source, identity
// transform, a fixed mipmap range.
type fixedViewer struct {
	timepoint int
	visible   []int
	coarsest  int
}

func (v *fixedViewer) Timepoint() int        { return v.timepoint }
func (v *fixedViewer) VisibleSources() []int { return v.visible }
func (v *fixedViewer) Transform() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}
func (v *fixedViewer) BestMipmapLevel(_ *mat.Dense, _ int) int { return 0 }
func (v *fixedViewer) CoarsestLevel(_ int) int                 { return v.coarsest }
func (v *fixedViewer) Interpolation() string                  { return "nearest" }

// delayedSource wraps a project.Source with a one-time sleep on its first
// Sample call, standing in for a slow first block fetch without needing
// an actually slow loader underneath (the cache itself always serves
// Volatile reads immediately; the delay models glass-to-glass transform
// or decode cost a real Source might add).
type delayedSource struct {
	inner project.Source
	delay time.Duration
	once  sync.Once
}

func (d *delayedSource) Sample(x, y int) (project.Sample, bool) {
	d.once.Do(func() { time.Sleep(d.delay) })
	return d.inner.Sample(x, y)
}

// slowBenchSourceFactory wraps a benchSourceFactory, delaying the first
// sample drawn from each built source. Used by the cancellation scenario
// to open a reliable window between RequestRepaintAtScale calls.
type slowBenchSourceFactory struct {
	inner *benchSourceFactory
	delay time.Duration
}

func (f *slowBenchSourceFactory) BuildSource(sourceIndex, timepoint, level int, transform *mat.Dense, interpolation string) project.Source {
	inner := f.inner.BuildSource(sourceIndex, timepoint, level, transform, interpolation)
	return &delayedSource{inner: inner, delay: f.delay}
}

func (f *slowBenchSourceFactory) Converter(sourceIndex int) project.Converter {
	return f.inner.Converter(sourceIndex)
}

func (f *slowBenchSourceFactory) SupportsVolatile(sourceIndex int) bool {
	return f.inner.SupportsVolatile(sourceIndex)
}

var _ render.SourceFactory = (*slowBenchSourceFactory)(nil)
var _ render.SourceFactory = (*benchSourceFactory)(nil)
