package project

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Hierarchical is VolatileHierarchicalProjector (C7). It holds an ordered
// list of sources from finest (index 0, "bestLevel") to coarsest, and
// fills the target with a per-pixel mask that tracks the finest level
// that has resolved each pixel so far.
//
// A single Map call may run several passes, one per source level,
// continuing from the finest unresolved level until either every pixel
// reaches level 0 (IsValid becomes sticky-true), cancellation fires, or
// every supplied level has been tried (partially valid: the caller is
// expected to invoke Map again on a later frame once more blocks have
// loaded).
type Hierarchical struct {
	sources  []Source // finest..coarsest
	convert  Converter
	target   *image.NRGBA
	width    int
	height   int
	workers  int
	executor func(func())

	mu             sync.Mutex
	mask           []int // per pixel; n means "untouched"
	cancelled      bool
	valid          bool
	lastFrameNanos int64
}

// NewHierarchical builds a Hierarchical projector. sources must be
// ordered finest-to-coarsest; the caller (render.MultiResolutionRenderer)
// is responsible for restricting this list to {bestLevel, coarsest} on a
// timepoint change.
func NewHierarchical(sources []Source, convert Converter, target *image.NRGBA, width, height, workers int, executor func(func())) *Hierarchical {
	mask := make([]int, width*height)
	n := len(sources)
	for i := range mask {
		mask[i] = n
	}
	return &Hierarchical{
		sources:  sources,
		convert:  convert,
		target:   target,
		width:    width,
		height:   height,
		workers:  workers,
		executor: executor,
		mask:     mask,
	}
}

func (h *Hierarchical) Map(clearUntouched bool) bool {
	start := time.Now()
	h.mu.Lock()
	h.cancelled = false
	h.mu.Unlock()

	n := len(h.sources)
	resolvedAll := false
	cancelledDuring := false

	for passLevel := 0; passLevel < n; passLevel++ {
		if h.runPass(passLevel) {
			cancelledDuring = true
			break
		}
		if h.maskUniform(0) {
			resolvedAll = true
			break
		}
	}

	if !cancelledDuring && clearUntouched {
		h.clearUnresolved(n)
	}

	h.mu.Lock()
	if resolvedAll {
		h.valid = true
	}
	h.lastFrameNanos = time.Since(start).Nanoseconds()
	h.mu.Unlock()

	return !cancelledDuring
}

// runPass applies one source level over every pixel whose mask is still
// coarser than passLevel. It returns true if cancellation interrupted the
// pass.
func (h *Hierarchical) runPass(passLevel int) bool {
	source := h.sources[passLevel]
	var wg sync.WaitGroup
	var sawCancel int32

	for _, rr := range rowRanges(h.height, h.workers) {
		rr := rr
		wg.Add(1)
		task := func() {
			defer wg.Done()
			for y := rr[0]; y < rr[1]; y++ {
				if h.isCancelled() {
					atomic.StoreInt32(&sawCancel, 1)
					return
				}
				rowBase := y * h.width
				for x := 0; x < h.width; x++ {
					idx := rowBase + x
					if h.maskAt(idx) <= passLevel {
						continue
					}
					sample, ok := source.Sample(x, y)
					if !ok {
						continue
					}
					c, a := h.convert(sample)
					setPixel(h.target, x, y, c, a)
					h.setMaskAt(idx, passLevel)
				}
			}
		}
		runTask(h.executor, task)
	}
	wg.Wait()
	return atomic.LoadInt32(&sawCancel) != 0
}

func (h *Hierarchical) maskAt(idx int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mask[idx]
}

func (h *Hierarchical) setMaskAt(idx, level int) {
	h.mu.Lock()
	h.mask[idx] = level
	h.mu.Unlock()
}

func (h *Hierarchical) maskUniform(level int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.mask {
		if m != level {
			return false
		}
	}
	return true
}

// clearUnresolved zeroes any pixel whose mask never reached a real level
// (i.e. still equals the sentinel n, meaning every supplied level missed
// it).
func (h *Hierarchical) clearUnresolved(n int) {
	h.mu.Lock()
	mask := h.mask
	h.mu.Unlock()
	for i, m := range mask {
		if m == n {
			clearPixel(h.target, i%h.width, i/h.width)
		}
	}
}

func (h *Hierarchical) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
}

func (h *Hierarchical) isCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

func (h *Hierarchical) IsValid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.valid
}

func (h *Hierarchical) LastFrameNanos() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastFrameNanos
}
