package project

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyMapAlwaysSucceeds(t *testing.T) {
	e := NewEmpty(nil)
	require.True(t, e.Map(false))
	require.True(t, e.IsValid())
}

func TestEmptyMapClearsTargetWhenRequested(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	target.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	e := NewEmpty(target)
	e.Map(true)
	require.Equal(t, color.NRGBA{}, target.NRGBAAt(0, 0))
}
