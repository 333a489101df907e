package render

import (
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"git.sr.ht/~bigdata/bdview/project"
)

// MultiResolutionRenderer is MultiResolutionRenderer (C9). It owns the
// screen-scale ladder, the per-scale triple buffer of render images, the
// render-id rotation, and the currently in-flight projector, and drives
// the adaptive scale control described in the package's Paint method.
//
// A single renderer is driven by exactly one painter goroutine calling
// Paint serially; RequestRepaint may be called from any goroutine.
type MultiResolutionRenderer struct {
	cfg     Config
	target  RenderTarget
	painter PainterThread
	cache   FrameCache
	sources SourceFactory
	logger  logrus.FieldLogger

	numBuffers int

	mu sync.Mutex

	canvasWidth, canvasHeight int
	scaleTransforms           []*mat.Dense
	buffers                   [][]*image.NRGBA // buffers[scaleIndex][renderID]
	imageToRenderID           map[*image.NRGBA]int
	renderIDQueue             []int

	maxScale       int
	currentScale   int
	requestedScale int
	mayBeCancelled bool

	newFrameRequest   bool
	haveTimepoint     bool
	previousTimepoint int

	projector       project.Projector
	pendingTarget   *image.NRGBA
	pendingRenderID int
}

// New constructs a MultiResolutionRenderer. cache is driven via
// PrepareNextFrame on every new-frame repaint so stale enqueues from a
// finished frame are harmlessly retried (I2); sources builds the
// project.Source/Converter pairs the renderer composes into projectors.
func New(cfg Config, target RenderTarget, painter PainterThread, cache FrameCache, sources SourceFactory, logger logrus.FieldLogger) (*MultiResolutionRenderer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	numBuffers := 1
	if cfg.DoubleBuffered {
		numBuffers = 3
	}
	r := &MultiResolutionRenderer{
		cfg:             cfg,
		target:          target,
		painter:         painter,
		cache:           cache,
		sources:         sources,
		logger:          logger,
		numBuffers:      numBuffers,
		imageToRenderID: make(map[*image.NRGBA]int),
		newFrameRequest: true,
	}
	return r, nil
}

// RequestRepaint asks for a repaint at the current adaptive ceiling
// scale, cancelling any in-flight cancellable projector.
func (r *MultiResolutionRenderer) RequestRepaint() {
	r.mu.Lock()
	r.requestRepaintAtScaleLocked(r.maxScale)
	r.mu.Unlock()
}

// RequestRepaintAtScale asks for a repaint at a specific scale index.
func (r *MultiResolutionRenderer) RequestRepaintAtScale(scale int) {
	r.mu.Lock()
	r.requestRepaintAtScaleLocked(scale)
	r.mu.Unlock()
}

// NewFrame marks the next repaint as a full new frame: the cache's
// generation advances and scale selection restarts at the adaptive
// ceiling. Callers use this when the viewer transform, timepoint, or
// visible source set changes.
func (r *MultiResolutionRenderer) NewFrame() {
	r.mu.Lock()
	r.newFrameRequest = true
	scale := r.maxScale
	r.mu.Unlock()
	r.RequestRepaintAtScale(scale)
}

func (r *MultiResolutionRenderer) requestRepaintAtScaleLocked(scale int) {
	if r.mayBeCancelled && r.projector != nil {
		r.projector.Cancel()
	}
	r.requestedScale = scale
	if r.painter != nil {
		r.painter.RequestRepaint()
	}
}

// SetMaxScale forces the adaptive ceiling scale index, bypassing the
// usual coarsen/refine control. Used by test and benchmark harnesses to
// set up a starting condition (e.g. "starting with maxScale=2").
func (r *MultiResolutionRenderer) SetMaxScale(scale int) {
	r.mu.Lock()
	r.maxScale = scale
	r.mu.Unlock()
}

// SetSources swaps the SourceFactory the renderer composes projectors
// from. Used when the underlying dataset changes (e.g. a different
// viewer session), or by a harness substituting an instrumented factory
// mid-run.
func (r *MultiResolutionRenderer) SetSources(sources SourceFactory) {
	r.mu.Lock()
	r.sources = sources
	r.mu.Unlock()
}

// MaxScale reports the current adaptive ceiling scale index.
func (r *MultiResolutionRenderer) MaxScale() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxScale
}

// CurrentScale reports the scale index of the in-flight (or most recent)
// paint.
func (r *MultiResolutionRenderer) CurrentScale() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentScale
}

// Paint performs one paint attempt against viewer and reports success.
// See the package documentation for the full state machine.
func (r *MultiResolutionRenderer) Paint(viewer ViewerState) bool {
	if r.target.Width() <= 0 || r.target.Height() <= 0 {
		return false
	}

	r.mu.Lock()
	resized := r.ensureBuffersLocked()
	r.mayBeCancelled = r.computeMayBeCancelledLocked()
	if r.newFrameRequest {
		r.cache.PrepareNextFrame()
	}
	timepointChanged := r.haveTimepoint && viewer.Timepoint() != r.previousTimepoint
	createProjector := r.newFrameRequest || resized || r.requestedScale != r.currentScale

	var projector project.Projector
	if createProjector {
		r.currentScale = r.requestedScale
		renderID := r.popRenderIDLocked()
		target := r.buffers[r.currentScale][renderID]
		projector = r.buildProjectorLocked(viewer, r.currentScale, target, timepointChanged)
		r.projector = projector
		r.pendingTarget = target
		r.pendingRenderID = renderID
	} else {
		projector = r.projector
	}
	clearUntouched := createProjector
	r.newFrameRequest = false
	r.previousTimepoint = viewer.Timepoint()
	r.haveTimepoint = true
	r.mu.Unlock()

	start := time.Now()
	success := projector.Map(clearUntouched)
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !success {
		if createProjector {
			// Allocated but never displayed; free the slot for a later try.
			r.renderIDQueue = append(r.renderIDQueue, r.pendingRenderID)
		}
		return false
	}

	if createProjector {
		previous := r.target.SetImage(r.pendingTarget)
		r.imageToRenderID[r.pendingTarget] = r.pendingRenderID
		if previous != nil {
			if id, ok := r.imageToRenderID[previous]; ok {
				r.renderIDQueue = append(r.renderIDQueue, id)
			}
		}
	}

	r.adjustScaleLocked(elapsed)

	switch {
	case r.currentScale > 0:
		r.requestRepaintAtScaleLocked(r.currentScale - 1)
	case !projector.IsValid():
		scale := r.currentScale
		go func() {
			time.Sleep(time.Millisecond)
			r.mu.Lock()
			r.requestRepaintAtScaleLocked(scale)
			r.mu.Unlock()
		}()
	}

	return true
}

func (r *MultiResolutionRenderer) computeMayBeCancelledLocked() bool {
	if r.numBuffers == 1 {
		// Single-buffered mode writes Map's output directly into the
		// already-published image; there is no scratch copy to discard on
		// cancel, so a paint here must always run to completion.
		return false
	}
	return r.requestedScale < r.maxScale
}

// adjustScaleLocked implements the adaptive-scale control described in
// §4.9: coarsen on sustained overload, refine on sustained idle, always
// keeping maxScale within [0, K-1] (RS1).
func (r *MultiResolutionRenderer) adjustScaleLocked(elapsed time.Duration) {
	target := time.Duration(r.cfg.TargetRenderNanos)
	k := len(r.cfg.ScreenScales)
	before := r.maxScale
	switch {
	case r.currentScale == r.maxScale:
		if elapsed > target && r.maxScale < k-1 {
			r.maxScale++
		} else if elapsed < target/3 && r.maxScale > 0 {
			r.maxScale--
		}
	case r.currentScale == r.maxScale-1:
		if elapsed < target {
			r.maxScale--
		}
	}
	if r.maxScale != before {
		r.logger.WithFields(logrus.Fields{"from": before, "to": r.maxScale, "elapsed": elapsed}).Debug("adaptive scale ceiling changed")
	}
}

// ensureBuffersLocked (re)allocates the per-scale transforms and triple
// buffers if the canvas was resized (or this is the first call),
// restarting frame selection at the adaptive ceiling per the
// ResizeRace error-handling policy. It reports whether a resize
// happened.
func (r *MultiResolutionRenderer) ensureBuffersLocked() bool {
	w, h := r.target.Width(), r.target.Height()
	if r.buffers != nil && w == r.canvasWidth && h == r.canvasHeight {
		return false
	}
	r.canvasWidth, r.canvasHeight = w, h
	r.scaleTransforms = make([]*mat.Dense, len(r.cfg.ScreenScales))
	r.buffers = make([][]*image.NRGBA, len(r.cfg.ScreenScales))
	r.imageToRenderID = make(map[*image.NRGBA]int)
	r.renderIDQueue = make([]int, 0, r.numBuffers)
	for id := 0; id < r.numBuffers; id++ {
		r.renderIDQueue = append(r.renderIDQueue, id)
	}
	for scaleIdx, scale := range r.cfg.ScreenScales {
		r.scaleTransforms[scaleIdx] = scaleTransform(scale)
		sw, sh := dimsForScale(w, h, scale)
		bufs := make([]*image.NRGBA, r.numBuffers)
		for id := range bufs {
			bufs[id] = image.NewNRGBA(image.Rect(0, 0, sw, sh))
		}
		r.buffers[scaleIdx] = bufs
	}
	r.requestedScale = r.maxScale
	r.newFrameRequest = true
	r.logger.WithFields(logrus.Fields{"width": w, "height": h}).Debug("canvas resized, render buffers reallocated")
	return true
}

func (r *MultiResolutionRenderer) popRenderIDLocked() int {
	if r.numBuffers == 1 {
		// Single-buffered: the one image per scale is reused in place.
		r.renderIDQueue = r.renderIDQueue[:0]
		return 0
	}
	id := r.renderIDQueue[0]
	r.renderIDQueue = r.renderIDQueue[1:]
	return id
}

// buildProjectorLocked composes one Projector for the current viewer
// state: Empty if nothing is visible, the lone source's projector if
// exactly one is visible, or an Accumulate wrapping one sub-projector
// per visible source otherwise.
func (r *MultiResolutionRenderer) buildProjectorLocked(viewer ViewerState, scaleIdx int, target *image.NRGBA, timepointChanged bool) project.Projector {
	visible := viewer.VisibleSources()
	if len(visible) == 0 {
		return project.NewEmpty(target)
	}

	w, h := dimsForScale(r.canvasWidth, r.canvasHeight, r.cfg.ScreenScales[scaleIdx])
	transform := compose(viewer.Transform(), r.scaleTransforms[scaleIdx])

	subs := make([]project.Projector, 0, len(visible))
	subImages := make([]*image.NRGBA, 0, len(visible))
	for _, srcIdx := range visible {
		subTarget := target
		if len(visible) > 1 {
			subTarget = image.NewNRGBA(image.Rect(0, 0, w, h))
		}
		subs = append(subs, r.buildSourceProjectorLocked(viewer, srcIdx, transform, subTarget, w, h, timepointChanged))
		subImages = append(subImages, subTarget)
	}

	if len(subs) == 1 {
		return subs[0]
	}
	return project.NewAccumulate(subs, subImages, target, w, h)
}

func (r *MultiResolutionRenderer) buildSourceProjectorLocked(viewer ViewerState, srcIdx int, transform *mat.Dense, target *image.NRGBA, w, h int, timepointChanged bool) project.Projector {
	best := viewer.BestMipmapLevel(transform, srcIdx)
	coarsest := viewer.CoarsestLevel(srcIdx)
	convert := r.sources.Converter(srcIdx)

	if r.cfg.UseVolatileIfAvailable && r.sources.SupportsVolatile(srcIdx) && coarsest > best {
		levels := levelRange(best, coarsest, timepointChanged)
		sources := make([]project.Source, len(levels))
		for i, lvl := range levels {
			sources[i] = r.sources.BuildSource(srcIdx, viewer.Timepoint(), lvl, transform, viewer.Interpolation())
		}
		return project.NewHierarchical(sources, convert, target, w, h, r.cfg.NumRenderingThreads, r.cfg.Executor)
	}

	source := r.sources.BuildSource(srcIdx, viewer.Timepoint(), best, transform, viewer.Interpolation())
	return project.NewSingle(source, convert, target, w, h, r.cfg.NumRenderingThreads, r.cfg.Executor)
}

// levelRange returns the ordered, finest-to-coarsest level list a
// Hierarchical projector should be given: the full best..coarsest range
// normally, or just {best, coarsest} on a timepoint change, since
// intermediate levels are certain to miss immediately after one.
func levelRange(best, coarsest int, timepointChanged bool) []int {
	if timepointChanged {
		if coarsest == best {
			return []int{best}
		}
		return []int{best, coarsest}
	}
	levels := make([]int, 0, coarsest-best+1)
	for l := best; l <= coarsest; l++ {
		levels = append(levels, l)
	}
	return levels
}

func dimsForScale(width, height int, scale float64) (int, int) {
	w := int(float64(width)*scale + 0.999999)
	h := int(float64(height)*scale + 0.999999)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
