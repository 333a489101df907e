package canvas

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetImageReturnsPrevious(t *testing.T) {
	c := New(4, 4)
	img1 := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img2 := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	prev := c.SetImage(img1)
	require.Nil(t, prev)

	prev = c.SetImage(img2)
	require.Same(t, img1, prev)
}

func TestWidthHeightReflectResize(t *testing.T) {
	c := New(4, 4)
	require.Equal(t, 4, c.Width())
	require.Equal(t, 4, c.Height())

	c.Resize(10, 20)
	require.Equal(t, 10, c.Width())
	require.Equal(t, 20, c.Height())
}

func TestBakeRecomputesOnlyWhenDirty(t *testing.T) {
	c := New(2, 2)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	c.SetImage(img)

	op1 := c.bake()
	op2 := c.bake()
	require.Equal(t, op1, op2, "bake must not recompute without a new SetImage")

	c.SetImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	op3 := c.bake()
	require.NotEqual(t, op1, op3)
}
