package spatial

import (
	"iter"

	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl32"
)

// Cone is a planar view cone: positions within Range of Apex whose bearing
// is within HalfAngle radians of Direction.
type Cone struct {
	Apex      mgl32.Vec2
	Direction mgl32.Vec2
	HalfAngle float32
	Range     float32
}

// InCone narrows seq to the positions inside cone. A zero direction matches
// only points at the apex.
func InCone(seq iter.Seq2[ecs.EntityID, mgl32.Vec2], cone Cone) iter.Seq2[ecs.EntityID, mgl32.Vec2] {
	dir := normalizeOrZero(cone.Direction)
	cosHalf := math32.Cos(cone.HalfAngle)
	return func(yield func(ecs.EntityID, mgl32.Vec2) bool) {
		for id, p := range seq {
			to := p.Sub(cone.Apex)
			dist := to.Len()
			if dist > cone.Range {
				continue
			}
			if dist >= epsilon && to.Dot(dir)/dist < cosHalf {
				continue
			}
			if !yield(id, p) {
				return
			}
		}
	}
}

// OrientedBox is the planar box swept from Start to End with the given
// Width across the sweep.
type OrientedBox struct {
	Start, End mgl32.Vec2
	Width      float32
}

// InOrientedBox narrows seq to the positions inside box. Edges are inclusive.
func InOrientedBox(seq iter.Seq2[ecs.EntityID, mgl32.Vec2], box OrientedBox) iter.Seq2[ecs.EntityID, mgl32.Vec2] {
	center := box.Start.Add(box.End).Mul(0.5)
	forward := normalizeOrZero(box.End.Sub(box.Start))
	if forward == (mgl32.Vec2{}) {
		forward = mgl32.Vec2{1, 0}
	}
	right := mgl32.Vec2{-forward[1], forward[0]}
	halfLen := box.End.Sub(box.Start).Len() * 0.5
	halfWidth := box.Width * 0.5
	const slack = epsilon * 100
	return func(yield func(ecs.EntityID, mgl32.Vec2) bool) {
		for id, p := range seq {
			rel := p.Sub(center)
			if math32.Abs(rel.Dot(forward)) > halfLen+slack ||
				math32.Abs(rel.Dot(right)) > halfWidth+slack {
				continue
			}
			if !yield(id, p) {
				return
			}
		}
	}
}

const epsilon = 1.1920929e-07 // float32 machine epsilon

func normalizeOrZero(v mgl32.Vec2) mgl32.Vec2 {
	l := v.Len()
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return mgl32.Vec2{}
	}
	return v.Mul(1 / l)
}
