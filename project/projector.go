// Package project implements the projector family (C7/C8): the code
// that walks a target image and fills it from one or more mipmap
// sources, with multi-pass hierarchical fallback to coarser resolutions
// and parallel per-source accumulation.
package project

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// Sample is an opaque raw volume sample produced by a Source, handed
// to a Converter for display. The projector package never interprets
// it directly.
type Sample interface{}

// Source is a per-pass continuous sampler over target-space pixels,
// already composed by the caller with the viewer's affine transform and
// a chosen mipmap level (the spec's InterpolatedSource, specialized to
// one level and already in screen space). It transitively touches a
// grid.Grid, and so its validity tracks that grid's cache residency.
type Source interface {
	// Sample evaluates the source at target pixel (x, y). ok is false
	// when the sample is not yet backed by a valid cache block.
	Sample(x, y int) (Sample, bool)
}

// Converter turns a raw Sample into a color. Alpha is returned
// separately since colorful.Color carries no alpha channel.
type Converter func(Sample) (colorful.Color, uint8)

// Projector is the tagged-variant contract shared by Empty, Single,
// Accumulate, and Hierarchical: a small interface implemented by four
// concrete types instead of an enum-tagged union.
type Projector interface {
	// Map performs one invocation's worth of projection work onto the
	// target image and reports success. clearUntouched requests that
	// pixels left unresolved by the end of this call be zeroed instead
	// of left showing stale data.
	Map(clearUntouched bool) bool
	// Cancel requests that an in-flight Map return false as soon as
	// possible without completing. Each Map call starts uncancelled, so a
	// Cancel made while no Map is running does not affect the next one.
	Cancel()
	// IsValid reports whether the last successful Map resolved every
	// pixel at the finest level available to this projector.
	IsValid() bool
	// LastFrameNanos reports the wall-clock duration of the last Map
	// call, win or lose.
	LastFrameNanos() int64
}

// Empty is the Projector used when there is nothing to render (e.g. no
// visible sources). Map always succeeds trivially.
type Empty struct {
	target         *image.NRGBA
	lastFrameNanos int64
}

// NewEmpty builds an Empty projector over target, which may be nil.
func NewEmpty(target *image.NRGBA) *Empty {
	return &Empty{target: target}
}

func (e *Empty) Map(clearUntouched bool) bool {
	if clearUntouched && e.target != nil {
		clearImage(e.target)
	}
	e.lastFrameNanos = 0
	return true
}

func (e *Empty) Cancel() {}

func (e *Empty) IsValid() bool { return true }

func (e *Empty) LastFrameNanos() int64 { return e.lastFrameNanos }
