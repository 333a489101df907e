// Package render implements MultiResolutionRenderer (C9): the painter
// loop that picks a screen-scale ladder rung, builds a projector for it,
// and adaptively coarsens or refines the ladder to hold a target frame
// time.
package render

import "errors"

// Config holds the construction-time options recognized by New. An
// invalid Config is a fatal configuration error surfaced here, never
// discovered mid-paint.
type Config struct {
	// ScreenScales is the scale ladder, strictly descending, with the
	// first entry <= 1.0. Index 0 is the finest (most detailed) rung.
	ScreenScales []float64
	// TargetRenderNanos is the adaptive-scale target frame time.
	TargetRenderNanos uint64
	// DoubleBuffered, when true, allocates three images per scale and
	// rotates them so the currently displayed image is never written
	// (a name kept for historical reasons: the rotation is triple, not
	// double). When false, a single image per scale is reused in place
	// and every paint is treated as non-cancellable.
	DoubleBuffered bool
	// NumRenderingThreads bounds row-range fan-out within one projector
	// pass.
	NumRenderingThreads int
	// Executor, if non-nil, dispatches per-row-range projector work
	// instead of running it inline.
	Executor func(func())
	// UseVolatileIfAvailable selects the hierarchical projector for a
	// source that advertises a volatile (multi-level) variant.
	UseVolatileIfAvailable bool
	// IoBudgetPerFrame is the BUDGETED strategy's priority-indexed time
	// budget, monotone non-increasing. Must have at least one entry.
	IoBudgetPerFrame []int64
	// PrefetchCells records whether neighbor prefetch is wanted. The
	// renderer does not read it; neighbor prefetch is switched per grid by
	// grid.Grid's Prefetch field.
	PrefetchCells bool
}

func (c Config) validate() error {
	if len(c.ScreenScales) == 0 {
		return errors.New("render: Config.ScreenScales must have at least one entry")
	}
	if c.ScreenScales[0] > 1.0 {
		return errors.New("render: Config.ScreenScales[0] must be <= 1.0")
	}
	for i := 1; i < len(c.ScreenScales); i++ {
		if c.ScreenScales[i] >= c.ScreenScales[i-1] {
			return errors.New("render: Config.ScreenScales must be strictly descending")
		}
	}
	if c.TargetRenderNanos == 0 {
		return errors.New("render: Config.TargetRenderNanos must be > 0")
	}
	if c.NumRenderingThreads < 1 {
		return errors.New("render: Config.NumRenderingThreads must be >= 1")
	}
	if len(c.IoBudgetPerFrame) == 0 {
		return errors.New("render: Config.IoBudgetPerFrame must have at least one entry")
	}
	for i := 1; i < len(c.IoBudgetPerFrame); i++ {
		if c.IoBudgetPerFrame[i] > c.IoBudgetPerFrame[i-1] {
			return errors.New("render: Config.IoBudgetPerFrame must be monotone non-increasing")
		}
	}
	return nil
}

// DefaultConfig returns a reasonable starting Config, mirroring the way
// the teacher's collaborators favor an explicit, inspectable zero value
// over hidden magic defaults.
func DefaultConfig() Config {
	return Config{
		ScreenScales:           []float64{1.0, 0.5, 0.25},
		TargetRenderNanos:      uint64(16_000_000),
		DoubleBuffered:         true,
		NumRenderingThreads:    4,
		UseVolatileIfAvailable: true,
		IoBudgetPerFrame:       []int64{int64(8_000_000)},
		PrefetchCells:          true,
	}
}
