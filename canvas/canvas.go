// Package canvas is the optional, non-core adapter bridging a
// render.MultiResolutionRenderer to a gio canvas: it implements
// render.RenderTarget over a cached paint.ImageOp, the same caching
// shape as the teacher's widget.CachedImage (compute once, reuse until
// the backing image changes).
package canvas

import (
	"image"
	"sync"

	"gioui.org/layout"
	"gioui.org/op/paint"
)

// Canvas adapts an *image.NRGBA render target to Gio: it satisfies
// render.RenderTarget and exposes a Widget for laying the image out.
type Canvas struct {
	mu     sync.Mutex
	width  int
	height int
	image  *image.NRGBA
	cache  paint.ImageOp
	dirty  bool
}

// New builds a Canvas with a fixed logical size. Resize grows it later.
func New(width, height int) *Canvas {
	return &Canvas{width: width, height: height}
}

// Width implements render.RenderTarget.
func (c *Canvas) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// Height implements render.RenderTarget.
func (c *Canvas) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Resize updates the logical canvas size; the next SetImage call will be
// treated as if it came from a fresh frame.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
}

// SetImage implements render.RenderTarget: it installs img as the
// currently displayed image and returns whatever was previously set, so
// the renderer can recycle it into its buffer rotation.
func (c *Canvas) SetImage(img *image.NRGBA) *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.image
	c.image = img
	c.dirty = true
	return prev
}

// CurrentImage returns the most recently displayed image, or nil if none
// has been set yet. Intended for harnesses that need to observe whether a
// paint actually published (render.RenderTarget itself has no read path).
func (c *Canvas) CurrentImage() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

// bake recomputes the cached paint.ImageOp if the displayed image
// changed since the last call, mirroring widget.CachedImage.Cache.
func (c *Canvas) bake() paint.ImageOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.image == nil {
		return paint.ImageOp{}
	}
	if c.dirty || c.cache == (paint.ImageOp{}) {
		c.cache = paint.NewImageOp(c.image)
		c.dirty = false
	}
	return c.cache
}

// Layout draws the current displayed image, recomputing the cached
// operation only when it changed.
func (c *Canvas) Layout(gtx layout.Context) layout.Dimensions {
	op := c.bake()
	if op == (paint.ImageOp{}) {
		return layout.Dimensions{Size: gtx.Constraints.Min}
	}
	op.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	return layout.Dimensions{Size: op.Size()}
}
