// Package blur discretizes scalar samples onto a fixed grid through a
// Gaussian kernel. The result is normalized so that the area under each
// sample is 1/len(samples): the grid integrates to one sample's worth of
// mass regardless of how many samples were supplied.
package blur

import "math"

// GridBlur is the smoothing functor. Low is the coordinate of grid point
// zero, BinWidth the grid spacing, Sigma the kernel width. Sigma == 0 is
// undefined here; configuration validation happens upstream.
type GridBlur struct {
	Low      float64
	BinWidth float64
	Sigma    float64
}

// Apply accumulates the blurred density of samples into grid, overwriting
// previous contents. The caller guarantees grid is correctly sized; the
// loop is O(len(samples)·len(grid)) with no distance cutoff.
func (b GridBlur) Apply(samples []float64, grid []float64) {
	n := float64(len(samples))
	denominator := 1.0 / (2 * b.Sigma * b.Sigma)
	normalization := 1.0 / (n * math.Sqrt(2*math.Pi*b.Sigma*b.Sigma))

	for i := range grid {
		x := b.Low + float64(i)*b.BinWidth
		value := 0.0
		for _, s := range samples {
			d := x - s
			value += normalization * math.Exp(-d*d*denominator)
		}
		grid[i] = value
	}
}
