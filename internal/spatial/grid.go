// Package spatial implements a uniform-grid spatial hash over the horizontal
// plane. Positions are bucketed by floor(position / spacing); range queries
// walk the cells a shape covers and filter the stored positions exactly.
package spatial

import (
	"errors"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidSpacing is returned when the grid spacing is not a positive,
// finite number.
var ErrInvalidSpacing = errors.New("spatial: grid spacing must be positive and finite")

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int32
}

// Grid maps continuous coordinates to cells. Spacing is fixed at construction.
type Grid struct {
	spacing float32
}

func NewGrid(spacing float32) (Grid, error) {
	if !(spacing > 0) || math32.IsInf(spacing, 1) {
		return Grid{}, ErrInvalidSpacing
	}
	return Grid{spacing: spacing}, nil
}

func (g Grid) Spacing() float32 { return g.spacing }

// Index1D returns the cell ordinate containing v. Ordinates saturate at the
// ends of the int32 range; the top stops one short so stepping past a cell
// never wraps.
func (g Grid) Index1D(v float32) int32 {
	f := float64(math32.Floor(v / g.spacing))
	switch {
	case f < math.MinInt32:
		return math.MinInt32
	case f > math.MaxInt32-1:
		return math.MaxInt32 - 1
	}
	return int32(f)
}

// CellOf returns the cell containing p.
func (g Grid) CellOf(p mgl32.Vec2) Cell {
	return Cell{X: g.Index1D(p[0]), Y: g.Index1D(p[1])}
}

// Flatten projects a 3D position onto the horizontal (x, z) plane.
func Flatten(p mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{p[0], p[2]}
}

// Lift places a horizontal position back into 3D at height y.
func Lift(p mgl32.Vec2, y float32) mgl32.Vec3 {
	return mgl32.Vec3{p[0], y, p[1]}
}
