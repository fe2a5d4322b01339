package spatial

import (
	"cmp"
	"iter"
	"slices"

	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl32"
)

// Index maps cell → (entity → last reported position).
//
// Every tracked entity lives in exactly one cell, the one containing the
// position it was last inserted or updated with, provided callers pass the
// position they last reported to Update and Remove. A stale position is
// absorbed as a no-op rather than an error.
//
// Index is owned by the frame loop: it is refreshed once per frame before
// steering queries run, and must not be mutated while a query is iterating.
type Index struct {
	grid  Grid
	cells map[Cell]map[ecs.EntityID]mgl32.Vec2
	count int
}

// New returns an empty index. Spacing must be positive and finite.
func New(spacing float32) (*Index, error) {
	g, err := NewGrid(spacing)
	if err != nil {
		return nil, err
	}
	return &Index{
		grid:  g,
		cells: make(map[Cell]map[ecs.EntityID]mgl32.Vec2, 256),
	}, nil
}

func (ix *Index) Grid() Grid { return ix.grid }

// Len returns the number of stored entries.
func (ix *Index) Len() int { return ix.count }

// CellCount returns the number of non-empty cells.
func (ix *Index) CellCount() int { return len(ix.cells) }

// Insert stores entity at position. Inserting an entity already stored in
// the same cell overwrites its position.
func (ix *Index) Insert(position mgl32.Vec2, entity ecs.EntityID) {
	ix.put(ix.grid.CellOf(position), entity, position)
}

// Update moves entity from the cell of previous to the cell of next. The
// stored position is refreshed even when the cell does not change, since
// queries filter on it.
func (ix *Index) Update(entity ecs.EntityID, previous, next mgl32.Vec2) {
	from := ix.grid.CellOf(previous)
	to := ix.grid.CellOf(next)
	if from != to {
		ix.drop(from, entity)
	}
	ix.put(to, entity, next)
}

// Remove deletes entity from the cell of position. Absent entries are ignored.
func (ix *Index) Remove(position mgl32.Vec2, entity ecs.EntityID) {
	ix.drop(ix.grid.CellOf(position), entity)
}

func (ix *Index) put(c Cell, entity ecs.EntityID, p mgl32.Vec2) {
	bucket := ix.cells[c]
	if bucket == nil {
		bucket = make(map[ecs.EntityID]mgl32.Vec2, 4)
		ix.cells[c] = bucket
	}
	if _, ok := bucket[entity]; !ok {
		ix.count++
	}
	bucket[entity] = p
}

func (ix *Index) drop(c Cell, entity ecs.EntityID) {
	bucket := ix.cells[c]
	if bucket == nil {
		return
	}
	if _, ok := bucket[entity]; !ok {
		return
	}
	delete(bucket, entity)
	ix.count--
	if len(bucket) == 0 {
		delete(ix.cells, c)
	}
}

// Query yields every stored (entity, position) the shape selects. Cells are
// visited in the shape's stepping order; order within a cell is unspecified.
// The sequence is lazy and can be ranged over again to restart it.
func (ix *Index) Query(shape Shape) iter.Seq2[ecs.EntityID, mgl32.Vec2] {
	return func(yield func(ecs.EntityID, mgl32.Vec2) bool) {
		if len(ix.cells) == 0 {
			return
		}
		if b, ok := shape.(Bounded); ok {
			lo, hi, ok := b.Bounds(ix.grid)
			if !ok {
				return
			}
			span := (int64(hi.X) - int64(lo.X) + 1) * (int64(hi.Y) - int64(lo.Y) + 1)
			if span > int64(len(ix.cells)) {
				ix.sparse(shape, lo, hi, yield)
				return
			}
		}
		cell := shape.FirstCell(ix.grid)
		for {
			if !ix.scan(shape, cell, yield) {
				return
			}
			next, ok := shape.NextCell(cell, ix.grid)
			if !ok {
				return
			}
			cell = next
		}
	}
}

// sparse visits only occupied cells inside [lo, hi], sorted into the same
// row-major order the stepping walk would produce.
func (ix *Index) sparse(shape Shape, lo, hi Cell, yield func(ecs.EntityID, mgl32.Vec2) bool) {
	hits := make([]Cell, 0, 16)
	for c := range ix.cells {
		if c.X >= lo.X && c.X <= hi.X && c.Y >= lo.Y && c.Y <= hi.Y {
			hits = append(hits, c)
		}
	}
	slices.SortFunc(hits, func(a, b Cell) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	for _, c := range hits {
		if !ix.scan(shape, c, yield) {
			return
		}
	}
}

func (ix *Index) scan(shape Shape, c Cell, yield func(ecs.EntityID, mgl32.Vec2) bool) bool {
	for id, p := range ix.cells[c] {
		if shape.InRange(p) && !yield(id, p) {
			return false
		}
	}
	return true
}

// Neighbour is a query result lifted back into 3D.
type Neighbour struct {
	ID       ecs.EntityID
	Position mgl32.Vec3
}

// WithinDistance returns the entities strictly closer than distance to
// position on the horizontal plane, appended to buf. Heights are reported
// as the height of position since the index does not track them.
func (ix *Index) WithinDistance(position mgl32.Vec3, distance float32, buf []Neighbour) []Neighbour {
	for id, p := range ix.Query(Circle{Center: Flatten(position), Radius: distance}) {
		buf = append(buf, Neighbour{ID: id, Position: Lift(p, position[1])})
	}
	return buf
}

// Collect drains a query into a map, for callers that need set semantics.
func Collect(seq iter.Seq2[ecs.EntityID, mgl32.Vec2]) map[ecs.EntityID]mgl32.Vec2 {
	out := make(map[ecs.EntityID]mgl32.Vec2)
	for id, p := range seq {
		out[id] = p
	}
	return out
}
