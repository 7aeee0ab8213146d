// Package grid provides the uniform spatial hash used for SPH neighbor search.
//
// Cells are twice the smoothing radius wide, so every particle within one
// smoothing radius of a query point lies in the 3x3 block of cells around it.
// The grid is rebuilt from scratch every step: each particle is written to a
// lookup table as a (cell key, index) pair, the table is stable-sorted by key
// and the first slot of every key is recorded as its start index.
package grid

import (
	"cmp"
	"iter"
	"math"
	"slices"

	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

// Coord is an integer cell coordinate.
type Coord struct {
	Col, Row int
}

type entry struct {
	key   int
	index int
}

// Grid is a spatial hash over a fixed box. It is written only by Rebuild and
// may be queried concurrently between rebuilds.
type Grid struct {
	cellSize float64
	cols     int
	rows     int
	lookup   []entry
	start    []int
}

// New creates a grid covering a width x height box for the given smoothing
// radius, sized for count particles.
func New(width, height, smoothingRadius float64, count int) (*Grid, error) {
	switch {
	case !(width > 0) || math.IsInf(width, 0):
		return nil, dynamo.Invalid("width", width, "must be positive and finite")
	case !(height > 0) || math.IsInf(height, 0):
		return nil, dynamo.Invalid("height", height, "must be positive and finite")
	case !(smoothingRadius > 0) || math.IsInf(smoothingRadius, 0):
		return nil, dynamo.Invalid("smoothing_radius", smoothingRadius, "must be positive and finite")
	case count < 0:
		return nil, dynamo.Invalid("count", count, "must not be negative")
	}

	cellSize := 2 * smoothingRadius
	g := &Grid{
		cellSize: cellSize,
		cols:     int(math.Ceil(width / cellSize)),
		rows:     int(math.Ceil(height / cellSize)),
		lookup:   make([]entry, 0, count),
	}
	g.start = make([]int, g.cols*g.rows)
	for i := range g.start {
		g.start[i] = len(g.lookup)
	}
	return g, nil
}

func (g *Grid) Columns() int      { return g.cols }
func (g *Grid) Rows() int         { return g.rows }
func (g *Grid) CellSize() float64 { return g.cellSize }
func (g *Grid) Len() int          { return len(g.lookup) }

// OutOfGridKey is the reserved key stamped on particles outside the grid.
// It sorts after every real cell and is never a start index.
func (g *Grid) OutOfGridKey() int { return g.cols * g.rows }

func (g *Grid) inBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < g.cols && c.Row >= 0 && c.Row < g.rows
}

// Key converts an in-bounds coordinate to its cell key.
func (g *Grid) Key(c Coord) int {
	return c.Col*g.rows + c.Row
}

// CoordOf is the inverse of Key for in-bounds coordinates.
func (g *Grid) CoordOf(key int) Coord {
	return Coord{Col: key / g.rows, Row: key % g.rows}
}

// Coord returns the cell holding pos and whether that cell lies inside the grid.
func (g *Grid) Coord(pos r2.Vec) (Coord, bool) {
	c, ok := g.rawCoord(pos)
	return c, ok && g.inBounds(c)
}

// rawCoord floors pos to a cell coordinate without bounds filtering. It
// fails only when no 3x3 block around the coordinate can touch the grid.
func (g *Grid) rawCoord(pos r2.Vec) (Coord, bool) {
	fx := math.Floor(pos.X / g.cellSize)
	fy := math.Floor(pos.Y / g.cellSize)
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return Coord{}, false
	}
	if fx < -1 || fx > float64(g.cols) || fy < -1 || fy > float64(g.rows) {
		return Coord{}, false
	}
	return Coord{Col: int(fx), Row: int(fy)}, true
}

// Rebuild recomputes the lookup table and start indices from the current
// particle positions and stamps every particle's CellKey.
func (g *Grid) Rebuild(particles []dynamo.Particle) {
	g.lookup = g.lookup[:0]
	for i := range particles {
		key := g.OutOfGridKey()
		if c, ok := g.Coord(particles[i].Position); ok {
			key = g.Key(c)
		}
		particles[i].CellKey = key
		g.lookup = append(g.lookup, entry{key: key, index: i})
	}

	slices.SortStableFunc(g.lookup, func(a, b entry) int {
		return cmp.Compare(a.key, b.key)
	})

	sentinel := len(g.lookup)
	for i := range g.start {
		g.start[i] = sentinel
	}
	for i, e := range g.lookup {
		if e.key < len(g.start) && g.start[e.key] == sentinel {
			g.start[e.key] = i
		}
	}
}

// StartIndex returns the first lookup slot holding key, or Len() when the
// cell is empty or the key is not a grid cell.
func (g *Grid) StartIndex(key int) int {
	if key < 0 || key >= len(g.start) {
		return len(g.lookup)
	}
	return g.start[key]
}

// CellParticles yields the indices of the particles in one cell.
func (g *Grid) CellParticles(key int) iter.Seq[int] {
	return func(yield func(int) bool) {
		g.scan(key, yield)
	}
}

func (g *Grid) scan(key int, yield func(int) bool) bool {
	for i := g.StartIndex(key); i < len(g.lookup) && g.lookup[i].key == key; i++ {
		if !yield(g.lookup[i].index) {
			return false
		}
	}
	return true
}

// AdjacentKeys yields the keys of the in-bounds cells in the 3x3 block
// around pos, in ascending order.
func (g *Grid) AdjacentKeys(pos r2.Vec) iter.Seq[int] {
	return func(yield func(int) bool) {
		center, ok := g.rawCoord(pos)
		if !ok {
			return
		}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				c := Coord{Col: center.Col + dx, Row: center.Row + dy}
				if !g.inBounds(c) {
					continue
				}
				if !yield(g.Key(c)) {
					return
				}
			}
		}
	}
}

// Neighbors yields the indices of every particle in the 3x3 block of cells
// around pos, including a particle located at pos itself. Callers filter by
// distance.
func (g *Grid) Neighbors(pos r2.Vec) iter.Seq[int] {
	return func(yield func(int) bool) {
		for key := range g.AdjacentKeys(pos) {
			if !g.scan(key, yield) {
				return
			}
		}
	}
}
