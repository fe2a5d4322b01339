package spatial

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape drives a range query. FirstCell and NextCell define the cell visiting
// order; InRange is the exact test applied to every stored position.
type Shape interface {
	FirstCell(g Grid) Cell
	NextCell(c Cell, g Grid) (Cell, bool)
	InRange(p mgl32.Vec2) bool
}

// Bounded is implemented by shapes that can report the inclusive cell range
// they step over. The index uses it to reject degenerate shapes and to skip
// large empty regions without changing the visiting order.
type Bounded interface {
	Bounds(g Grid) (lo, hi Cell, ok bool)
}

// box is the row-major stepping shared by shapes with an axis-aligned
// bounding box [min, max].
type box struct {
	min, max mgl32.Vec2
}

func (b box) valid() bool {
	for i := 0; i < 2; i++ {
		if math32.IsNaN(b.min[i]) || math32.IsNaN(b.max[i]) ||
			math32.IsInf(b.min[i], 0) || math32.IsInf(b.max[i], 0) ||
			b.min[i] > b.max[i] {
			return false
		}
	}
	return true
}

func (b box) first(g Grid) Cell {
	return g.CellOf(b.min)
}

// next advances one cell in x; past the right bound it wraps to the start
// column of the next row, and past the bottom bound it stops.
func (b box) next(c Cell, g Grid) (Cell, bool) {
	c.X++
	if c.X > g.Index1D(b.max[0]) {
		c.X = g.Index1D(b.min[0])
		c.Y++
	}
	if c.Y > g.Index1D(b.max[1]) {
		return Cell{}, false
	}
	return c, true
}

func (b box) bounds(g Grid) (Cell, Cell, bool) {
	if !b.valid() {
		return Cell{}, Cell{}, false
	}
	return g.CellOf(b.min), g.CellOf(b.max), true
}

// Circle selects positions strictly closer than Radius to Center.
type Circle struct {
	Center mgl32.Vec2
	Radius float32
}

func (c Circle) box() box {
	r := mgl32.Vec2{c.Radius, c.Radius}
	return box{min: c.Center.Sub(r), max: c.Center.Add(r)}
}

func (c Circle) FirstCell(g Grid) Cell                  { return c.box().first(g) }
func (c Circle) NextCell(cell Cell, g Grid) (Cell, bool) { return c.box().next(cell, g) }
func (c Circle) Bounds(g Grid) (Cell, Cell, bool)       { return c.box().bounds(g) }

// InRange compares squared distances to avoid the square root.
func (c Circle) InRange(p mgl32.Vec2) bool {
	d := p.Sub(c.Center)
	return d.Dot(d) < c.Radius*c.Radius
}

// Rect selects positions in the half-open square box
// [Center-HalfExtent, Center+HalfExtent) on each axis.
type Rect struct {
	Center     mgl32.Vec2
	HalfExtent mgl32.Vec2
}

// Square is a Rect with equal half extents.
func Square(center mgl32.Vec2, half float32) Rect {
	return Rect{Center: center, HalfExtent: mgl32.Vec2{half, half}}
}

func (r Rect) box() box {
	return box{min: r.Center.Sub(r.HalfExtent), max: r.Center.Add(r.HalfExtent)}
}

func (r Rect) FirstCell(g Grid) Cell                  { return r.box().first(g) }
func (r Rect) NextCell(cell Cell, g Grid) (Cell, bool) { return r.box().next(cell, g) }
func (r Rect) Bounds(g Grid) (Cell, Cell, bool)       { return r.box().bounds(g) }

func (r Rect) InRange(p mgl32.Vec2) bool {
	b := r.box()
	return p[0] >= b.min[0] && p[0] < b.max[0] &&
		p[1] >= b.min[1] && p[1] < b.max[1]
}
