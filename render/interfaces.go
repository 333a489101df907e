package render

import (
	"image"

	"gonum.org/v1/gonum/mat"

	"git.sr.ht/~bigdata/bdview/project"
)

// RenderTarget is the canvas the renderer publishes finished images to.
type RenderTarget interface {
	Width() int
	Height() int
	// SetImage installs img as the currently displayed image and returns
	// whatever was previously displayed, for recycling into the buffer
	// rotation.
	SetImage(img *image.NRGBA) *image.NRGBA
}

// PainterThread is notified that a repaint will eventually call Paint.
// It is the renderer's only outbound signal to the embedding UI.
type PainterThread interface {
	RequestRepaint()
}

// ViewerState is the current viewer configuration consumed once per
// Paint call: timepoint, camera transform, visible sources, and the
// interpolation/mipmap choices that drive projector construction.
type ViewerState interface {
	Timepoint() int
	// Transform is the viewer's current 4x4 affine transform.
	Transform() *mat.Dense
	VisibleSources() []int
	// BestMipmapLevel returns the finest mipmap level worth sampling for
	// sourceIndex at the given screen-scale transform.
	BestMipmapLevel(screenScaleTransform *mat.Dense, sourceIndex int) int
	// CoarsestLevel returns the number of mipmap levels available for
	// sourceIndex, minus one.
	CoarsestLevel(sourceIndex int) int
	Interpolation() string
}

// SourceFactory builds the project.Source/Converter pair for one visible
// source at one mipmap level, already composed with the supplied
// screen-space affine transform. This is where a concrete deployment
// plugs grid.Grid and an InterpolatedSource sampler into the projector
// package without the renderer needing to know about either.
type SourceFactory interface {
	BuildSource(sourceIndex, timepoint, level int, transform *mat.Dense, interpolation string) project.Source
	Converter(sourceIndex int) project.Converter
	// SupportsVolatile reports whether sourceIndex has a multi-level
	// variant worth driving with the hierarchical projector.
	SupportsVolatile(sourceIndex int) bool
}

// FrameCache is the subset of cache.BlockCache the renderer drives
// directly: advancing the frame generation so stale enqueues from a
// finished frame are harmlessly retried (I2).
type FrameCache interface {
	PrepareNextFrame()
}
