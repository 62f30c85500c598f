package render

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Smooth fits a natural cubic spline through (xs, ys) and samples it at n
// evenly spaced points from xs[0] to xs[len(xs)-1]. The first and last
// fitted values are pinned to the input endpoints.
func Smooth(xs, ys []float64, n int) (xr, yr []float64, err error) {
	if len(xs) != len(ys) {
		return nil, nil, fmt.Errorf("smooth: %d xs vs %d ys", len(xs), len(ys))
	}
	if len(xs) < 3 || n < 2 {
		return nil, nil, fmt.Errorf("smooth: need at least 3 knots and 2 points")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, nil, fmt.Errorf("smooth: xs not strictly increasing at %d", i)
		}
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, nil, fmt.Errorf("smooth: %w", err)
	}

	first, last := xs[0], xs[len(xs)-1]
	step := (last - first) / float64(n-1)
	xr = make([]float64, n)
	yr = make([]float64, n)
	for i := range xr {
		x := first + step*float64(i)
		if i == n-1 {
			x = last
		}
		xr[i] = x
		yr[i] = nc.Predict(x)
	}
	yr[0] = ys[0]
	yr[n-1] = ys[len(ys)-1]
	return xr, yr, nil
}
