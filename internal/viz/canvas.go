package viz

import "strings"

// dotBits maps a dot's position inside a braille cell, [row][col], to its
// bit in the U+2800 block.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBase = '\u2800'

// Canvas is a braille dot matrix. Each character cell holds 2x4 dots, so a
// canvas of Width x Height cells addresses (Width*2) x (Height*4) dots.
type Canvas struct {
	Width, Height int
	cells         []uint8
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, cells: make([]uint8, w*h)}
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) {
	return c.Width * 2, c.Height * 4
}

// cell locates the byte and bit for dot (x, y); ok is false off-canvas.
func (c *Canvas) cell(x, y int) (idx int, bit uint8, ok bool) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return 0, 0, false
	}
	return (y/4)*c.Width + x/2, dotBits[y%4][x%2], true
}

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if idx, bit, ok := c.cell(x, y); ok {
		c.cells[idx] |= bit
	}
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	idx, bit, ok := c.cell(x, y)
	return ok && c.cells[idx]&bit != 0
}

func (c *Canvas) Clear() {
	clear(c.cells)
}

// DrawLine sets every dot on the Bresenham line from (x0, y0) to (x1, y1).
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, sx := absInt(x1-x0), sign(x1-x0)
	dy, sy := -absInt(y1-y0), sign(y1-y0)
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		if 2*e >= dy {
			e += dy
			x0 += sx
		}
		if 2*e <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawRect outlines the rectangle with corners (x0, y0) and (x1, y1).
func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

// String renders the rows joined by newlines, without a trailing one.
func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Width*c.Height*3 + c.Height)
	for row := 0; row < c.Height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for _, bits := range c.cells[row*c.Width : (row+1)*c.Width] {
			b.WriteRune(brailleBase + rune(bits))
		}
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
