package project

import (
	"image"
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"
)

type constSource struct {
	value Sample
	valid bool
}

func (s constSource) Sample(x, y int) (Sample, bool) { return s.value, s.valid }

func floatConverter(v Sample) (colorful.Color, uint8) {
	f := v.(float64)
	return colorful.Color{R: f, G: f, B: f}, 255
}

// Scenario 4: hierarchical fill. Only the coarsest level is resident.
// The first Map call leaves level-0 pixels unresolved but resolves them
// at level 1 (mask uniformly 1, partially valid). Once level 0 is also
// resident, the next Map call sets the mask uniformly to 0.
func TestHierarchicalScenario4(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	finest := &constSource{value: 0.5, valid: false}
	coarsest := constSource{value: 0.5, valid: true}

	h := NewHierarchical([]Source{finest, coarsest}, floatConverter, target, 2, 2, 2, nil)

	ok := h.Map(false)
	require.True(t, ok, "map without cancellation always returns true")
	require.False(t, h.IsValid(), "only the coarsest level resolved, so the projector is partially valid")
	require.True(t, h.maskUniform(1), "mask should be uniformly 1 after the coarsest-only pass")

	finest.valid = true
	ok = h.Map(false)
	require.True(t, ok)
	require.True(t, h.IsValid())
	require.True(t, h.maskUniform(0))
}

func TestHierarchicalCancellationReturnsFalse(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	slow := &cancellingSource{valid: false}
	h := NewHierarchical([]Source{slow}, floatConverter, target, 4, 4, 1, nil)
	// Map starts uncancelled, so the cancel is issued from inside the pass.
	slow.cancel = h.Cancel

	ok := h.Map(false)
	require.False(t, ok)
	require.False(t, h.IsValid())
}

func TestHierarchicalClearUntouchedZeroesUnresolvedPixels(t *testing.T) {
	target := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	target.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	onlyLeft := &partialSource{validX: 0}

	h := NewHierarchical([]Source{onlyLeft}, floatConverter, target, 2, 1, 1, nil)
	h.Map(true)

	require.Equal(t, uint8(0), target.NRGBAAt(1, 0).A, "untouched pixel must be cleared")
}

// cancellingSource calls cancel on its first Sample, so the cancellation
// arrives while Map is running.
type cancellingSource struct {
	cancel func()
	valid  bool
}

func (c *cancellingSource) Sample(x, y int) (Sample, bool) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return 0.4, c.valid
}

type partialSource struct{ validX int }

func (p *partialSource) Sample(x, y int) (Sample, bool) {
	if x == p.validX {
		return 0.3, true
	}
	return nil, false
}
