package raster

// Skeletonize thins a mask to 1-pixel-wide lines with the Guo-Hall
// algorithm. Thinning preserves 8-connectivity and line end points, so
// 2-pixel-wide diagonals and 2×2 blocks survive as lines or single pixels.
// The input is not modified.
func Skeletonize(m *Mask) *Mask {
	out := m.Clone()
	var del []Pixel
	for {
		changed := false
		for step := 0; step < 2; step++ {
			del = del[:0]
			out.Each(func(p Pixel) {
				if thinCandidate(out, p, step) {
					del = append(del, p)
				}
			})
			for _, p := range del {
				out.Set(p.Y, p.X, false)
			}
			if len(del) > 0 {
				changed = true
			}
		}
		if !changed {
			return out
		}
	}
}

// thinCandidate evaluates the Guo-Hall deletion conditions for one
// sub-iteration. Neighbours are read clockwise from north, matching Offsets.
func thinCandidate(m *Mask, p Pixel, step int) bool {
	var n [8]bool
	for i, o := range Offsets {
		n[i] = m.At(p.Y+o.Y, p.X+o.X)
	}
	north, ne, east, se, south, sw, west, nw := n[0], n[1], n[2], n[3], n[4], n[5], n[6], n[7]

	// Exactly one 8-connected foreground run around p.
	c := b2i(!north && (ne || east)) + b2i(!east && (se || south)) +
		b2i(!south && (sw || west)) + b2i(!west && (nw || north))
	if c != 1 {
		return false
	}

	// Between 2 and 3 occupied neighbour pairs keeps end points.
	n1 := b2i(nw || north) + b2i(ne || east) + b2i(se || south) + b2i(sw || west)
	n2 := b2i(north || ne) + b2i(east || se) + b2i(south || sw) + b2i(west || nw)
	if k := min(n1, n2); k < 2 || k > 3 {
		return false
	}

	if step == 0 {
		return !((south || sw || !nw) && west)
	}
	return !((north || ne || !se) && east)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
