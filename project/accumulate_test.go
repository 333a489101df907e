package project

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeProjector struct {
	mapResult bool
	valid     bool
	cancelled bool
}

func (f *fakeProjector) Map(clearUntouched bool) bool { return f.mapResult }
func (f *fakeProjector) Cancel()                      { f.cancelled = true }
func (f *fakeProjector) IsValid() bool                { return f.valid }
func (f *fakeProjector) LastFrameNanos() int64        { return 0 }

func TestAccumulateSumsChannelsWithSaturation(t *testing.T) {
	width, height := 1, 1
	imgA := image.NewNRGBA(image.Rect(0, 0, width, height))
	imgB := image.NewNRGBA(image.Rect(0, 0, width, height))
	imgA.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 0, A: 200})
	imgB.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 0, A: 200})

	target := image.NewNRGBA(image.Rect(0, 0, width, height))
	subs := []Projector{&fakeProjector{mapResult: true, valid: true}, &fakeProjector{mapResult: true, valid: true}}

	acc := NewAccumulate(subs, []*image.NRGBA{imgA, imgB}, target, width, height)
	ok := acc.Map(false)
	require.True(t, ok)
	require.True(t, acc.IsValid())

	px := target.NRGBAAt(0, 0)
	require.Equal(t, uint8(255), px.R, "200+200 red must saturate to 255")
	require.Equal(t, uint8(255), px.A, "200+200 alpha must saturate to 255")
}

func TestAccumulateNotValidWhenSubProjectorOnlyPartiallyResolved(t *testing.T) {
	width, height := 1, 1
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	target := image.NewNRGBA(image.Rect(0, 0, width, height))
	// Map not cancelled (mapResult true) but one sub only resolved a
	// coarse level (valid false): IsValid must reflect that, not just
	// the absence of cancellation.
	subs := []Projector{&fakeProjector{mapResult: true, valid: true}, &fakeProjector{mapResult: true, valid: false}}

	acc := NewAccumulate(subs, []*image.NRGBA{img, img}, target, width, height)
	ok := acc.Map(false)
	require.True(t, ok, "Map only reports cancellation, not partial validity")
	require.False(t, acc.IsValid(), "IsValid must require every sub-projector to be fully resolved")
}

func TestAccumulateFailsIfAnySubProjectorFails(t *testing.T) {
	width, height := 1, 1
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	target := image.NewNRGBA(image.Rect(0, 0, width, height))
	subs := []Projector{&fakeProjector{mapResult: true}, &fakeProjector{mapResult: false}}

	acc := NewAccumulate(subs, []*image.NRGBA{img, img}, target, width, height)
	ok := acc.Map(false)
	require.False(t, ok)
	require.False(t, acc.IsValid())
}

func TestAccumulateCancelPropagatesToSubProjectors(t *testing.T) {
	a, b := &fakeProjector{}, &fakeProjector{}
	acc := NewAccumulate([]Projector{a, b}, nil, nil, 0, 0)
	acc.Cancel()
	require.True(t, a.cancelled)
	require.True(t, b.cancelled)
}
