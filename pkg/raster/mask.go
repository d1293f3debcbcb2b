package raster

import (
	"fmt"
	"strings"
)

// Pixel is a raster coordinate: Y is the row, X the column.
type Pixel struct {
	Y int `json:"y"`
	X int `json:"x"`
}

// String formats the pixel as "y_x".
func (p Pixel) String() string {
	return fmt.Sprintf("%d_%d", p.Y, p.X)
}

// Offsets lists the 8 neighbour directions clockwise starting north.
var Offsets = [8]Pixel{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// Mask is an H×W boolean raster stored row-major.
// Reads outside the raster return false.
type Mask struct {
	H, W  int
	cells []bool
}

// NewMask returns an empty (all false) h×w mask.
func NewMask(h, w int) *Mask {
	if h < 0 || w < 0 {
		h, w = 0, 0
	}
	return &Mask{H: h, W: w, cells: make([]bool, h*w)}
}

// Parse builds a mask from text rows where '1', '#' or 'x' mark foreground.
// It is mostly used to draw small masks in tests and examples.
func Parse(s string) *Mask {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	w := 0
	for _, l := range lines {
		w = max(w, len(l))
	}
	m := NewMask(len(lines), w)
	for y, l := range lines {
		for x, c := range l {
			if c == '1' || c == '#' || c == 'x' {
				m.Set(y, x, true)
			}
		}
	}
	return m
}

// In reports whether (y, x) lies inside the raster.
func (m *Mask) In(y, x int) bool {
	return y >= 0 && y < m.H && x >= 0 && x < m.W
}

// At returns the value at (y, x), false when out of bounds.
func (m *Mask) At(y, x int) bool {
	if !m.In(y, x) {
		return false
	}
	return m.cells[y*m.W+x]
}

// Set assigns the value at (y, x). Out-of-bounds writes are ignored.
func (m *Mask) Set(y, x int, v bool) {
	if m.In(y, x) {
		m.cells[y*m.W+x] = v
	}
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{H: m.H, W: m.W, cells: make([]bool, len(m.cells))}
	copy(c.cells, m.cells)
	return c
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}
	return n
}

// NeighborhoodSum counts foreground pixels in the 3×3 window centred on
// (y, x), the centre pixel included.
func (m *Mask) NeighborhoodSum(y, x int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if m.At(y+dy, x+dx) {
				n++
			}
		}
	}
	return n
}

// Each calls fn for every foreground pixel in row-major order.
func (m *Mask) Each(fn func(p Pixel)) {
	for y := 0; y < m.H; y++ {
		row := m.cells[y*m.W : (y+1)*m.W]
		for x, v := range row {
			if v {
				fn(Pixel{y, x})
			}
		}
	}
}

// String renders the mask with '#' for foreground and '.' for background.
func (m *Mask) String() string {
	var b strings.Builder
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.At(y, x) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
