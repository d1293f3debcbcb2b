package raster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ClassifyWater thresholds a raster into a mask. Values at or above
// threshold become foreground; smaller and non-finite values do not.
func ClassifyWater(r mat.Matrix, threshold float64) *Mask {
	h, w := r.Dims()
	m := NewMask(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := r.At(y, x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v >= threshold {
				m.cells[y*w+x] = true
			}
		}
	}
	return m
}

// PruneIsolated clears foreground pixels without any foreground neighbour
// and returns how many were removed.
func PruneIsolated(m *Mask) int {
	removed := 0
	var isolated []Pixel
	m.Each(func(p Pixel) {
		if m.NeighborhoodSum(p.Y, p.X) == 1 {
			isolated = append(isolated, p)
		}
	})
	for _, p := range isolated {
		m.Set(p.Y, p.X, false)
		removed++
	}
	return removed
}
