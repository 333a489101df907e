package project

import (
	"image"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Accumulate is AccumulateProjector (C8). It drives one sub-Projector per
// visible source in parallel, each filling its own scratch image, then
// sums the per-source channels into the shared target with saturation.
// Channel summation is done over colorful.Color so the saturating add
// reuses the color package's clamping instead of hand-rolled arithmetic;
// alpha has no representation in colorful.Color and is summed separately
// as a plain byte.
type Accumulate struct {
	subs      []Projector
	subImages []*image.NRGBA
	target    *image.NRGBA
	width     int
	height    int

	mu             sync.Mutex
	valid          bool
	lastFrameNanos int64
}

// NewAccumulate builds an Accumulate projector. subs and subImages must
// be parallel slices: subs[i] writes into subImages[i].
func NewAccumulate(subs []Projector, subImages []*image.NRGBA, target *image.NRGBA, width, height int) *Accumulate {
	return &Accumulate{subs: subs, subImages: subImages, target: target, width: width, height: height}
}

func (a *Accumulate) Map(clearUntouched bool) bool {
	start := time.Now()

	results := make([]bool, len(a.subs))
	var wg sync.WaitGroup
	for i, sub := range a.subs {
		i, sub := i, sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = sub.Map(clearUntouched)
		}()
	}
	wg.Wait()

	success := true
	for _, r := range results {
		if !r {
			success = false
		}
	}

	a.sum()

	validAll := true
	for _, sub := range a.subs {
		if !sub.IsValid() {
			validAll = false
			break
		}
	}

	a.mu.Lock()
	a.valid = validAll
	a.lastFrameNanos = time.Since(start).Nanoseconds()
	a.mu.Unlock()
	return success
}

func (a *Accumulate) sum() {
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			var accum colorful.Color
			alphaSum := 0
			for _, img := range a.subImages {
				px := img.NRGBAAt(x, y)
				c, _ := colorful.MakeColor(px)
				accum.R += c.R
				accum.G += c.G
				accum.B += c.B
				alphaSum += int(px.A)
			}
			setPixel(a.target, x, y, accum, saturateByte(alphaSum))
		}
	}
}

func (a *Accumulate) Cancel() {
	for _, s := range a.subs {
		s.Cancel()
	}
}

func (a *Accumulate) IsValid() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valid
}

func (a *Accumulate) LastFrameNanos() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFrameNanos
}
