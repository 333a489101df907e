package project

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleMapFillsValidPixels(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	src := constSource{value: 0.4, valid: true}

	s := NewSingle(src, floatConverter, target, 3, 3, 2, nil)
	ok := s.Map(false)
	require.True(t, ok)
	require.True(t, s.IsValid())

	px := target.NRGBAAt(1, 1)
	require.Equal(t, uint8(255), px.A)
	require.NotEqual(t, color.NRGBA{}, px)
}

func TestSingleMapCancelledReturnsFalse(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	src := &cancellingSource{valid: true}
	s := NewSingle(src, floatConverter, target, 3, 3, 2, nil)
	// Map starts uncancelled, so the cancel is issued from inside the pass.
	src.cancel = s.Cancel

	ok := s.Map(false)
	require.False(t, ok)
	require.False(t, s.IsValid())
}

func TestSingleMapLeavesInvalidPixelsUntouchedByDefault(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	target.SetNRGBA(0, 0, color.NRGBA{R: 9, G: 9, B: 9, A: 9})
	src := constSource{valid: false}

	s := NewSingle(src, floatConverter, target, 1, 1, 1, nil)
	s.Map(false)

	require.Equal(t, color.NRGBA{R: 9, G: 9, B: 9, A: 9}, target.NRGBAAt(0, 0))
}
