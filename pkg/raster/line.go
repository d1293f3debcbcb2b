package raster

// Line rasterizes the straight segment from a to b with Bresenham's
// algorithm. Both endpoints are included and consecutive pixels are
// 8-connected.
func Line(a, b Pixel) []Pixel {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	pts := make([]Pixel, 0, max(dx, -dy)+1)
	err := dx + dy
	x, y := a.X, a.Y
	for {
		pts = append(pts, Pixel{y, x})
		if x == b.X && y == b.Y {
			return pts
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// Adjacent reports whether a and b are distinct 8-neighbours.
func Adjacent(a, b Pixel) bool {
	dy, dx := abs(a.Y-b.Y), abs(a.X-b.X)
	return dy <= 1 && dx <= 1 && (dy|dx) != 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
