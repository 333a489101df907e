package render

import "gonum.org/v1/gonum/mat"

// scaleTransform builds the per-scale affine transform T = diag(s, s, 1,
// 1) with half-pixel-centering translation 0.5*s - 0.5 on the x and y
// axes, per the renderer's screen-scale ladder.
func scaleTransform(s float64) *mat.Dense {
	t := 0.5*s - 0.5
	m := mat.NewDense(4, 4, []float64{
		s, 0, 0, t,
		0, s, 0, t,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	return m
}

// compose returns viewer * scale, the affine transform a SourceFactory
// should use to map a scaled-canvas pixel into volume space.
func compose(viewer, scale *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Mul(viewer, scale)
	return &out
}
