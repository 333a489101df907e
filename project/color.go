package project

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

func setPixel(target *image.NRGBA, x, y int, c colorful.Color, alpha uint8) {
	r, g, b := c.Clamped().RGB255()
	target.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: alpha})
}

func clearPixel(target *image.NRGBA, x, y int) {
	target.SetNRGBA(x, y, color.NRGBA{})
}

func clearImage(target *image.NRGBA) {
	bounds := target.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			clearPixel(target, x, y)
		}
	}
}

// saturateByte clamps an accumulated integer channel sum to [0, 255].
func saturateByte(sum int) uint8 {
	if sum < 0 {
		return 0
	}
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}
