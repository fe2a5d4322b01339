package env

import (
	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is an infinite one-sided surface {x : Normal·x = Offset}. The solid
// lies behind it, where Normal·x < Offset.
type Plane struct {
	Normal mgl32.Vec3
	Offset float32
	Owner  ecs.EntityID
}

// Box is an axis-aligned solid.
type Box struct {
	Min, Max mgl32.Vec3
	Owner    ecs.EntityID
}

// Ball is a static solid sphere.
type Ball struct {
	Center mgl32.Vec3
	Radius float32
	Owner  ecs.EntityID
}

// contact is one candidate result of testing a single obstacle. For a cast
// of positive length t is the distance travelled; for an overlap test it is
// the penetration depth.
type contact struct {
	t      float32
	normal mgl32.Vec3
}

// sweep casts a sphere of radius r from o along unit dir for up to length.
func (p Plane) sweep(o mgl32.Vec3, r float32, dir mgl32.Vec3, length float32) (contact, bool) {
	gap := p.Normal.Dot(o) - p.Offset - r
	if length == 0 {
		if gap < 0 {
			return contact{t: -gap, normal: p.Normal}, true
		}
		return contact{}, false
	}
	approach := -dir.Dot(p.Normal)
	if approach <= 0 {
		return contact{}, false
	}
	if gap <= 0 {
		return contact{t: 0, normal: p.Normal}, true
	}
	t := gap / approach
	if t > length {
		return contact{}, false
	}
	return contact{t: t, normal: p.Normal}, true
}

// sweep treats the sphere as a point against the box grown by r on every
// side. Corners and edges are therefore square rather than rounded, which
// reports contact slightly early near them.
func (b Box) sweep(o mgl32.Vec3, r float32, dir mgl32.Vec3, length float32) (contact, bool) {
	lo := b.Min.Sub(mgl32.Vec3{r, r, r})
	hi := b.Max.Add(mgl32.Vec3{r, r, r})

	if inside(o, lo, hi) {
		depth, n := exitFace(o, lo, hi)
		if length == 0 {
			return contact{t: depth, normal: n}, true
		}
		if dir.Dot(n) < 0 {
			return contact{t: 0, normal: n}, true
		}
		return contact{}, false
	}
	if length == 0 {
		return contact{}, false
	}

	enter, exit := math32.Inf(-1), math32.Inf(1)
	var n mgl32.Vec3
	for i := 0; i < 3; i++ {
		if math32.Abs(dir[i]) < 1e-8 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return contact{}, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / dir[i]
		t2 := (hi[i] - o[i]) / dir[i]
		var face mgl32.Vec3
		face[i] = -1
		if t1 > t2 {
			t1, t2 = t2, t1
			face[i] = 1
		}
		if t1 > enter {
			enter, n = t1, face
		}
		exit = math32.Min(exit, t2)
		if enter > exit {
			return contact{}, false
		}
	}
	if enter < 0 || enter > length {
		return contact{}, false
	}
	return contact{t: enter, normal: n}, true
}

func inside(p, lo, hi mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if !(p[i] > lo[i] && p[i] < hi[i]) {
			return false
		}
	}
	return true
}

// exitFace returns the distance to the nearest face of [lo, hi] from an
// interior point and that face's outward normal.
func exitFace(p, lo, hi mgl32.Vec3) (float32, mgl32.Vec3) {
	best := math32.Inf(1)
	var n mgl32.Vec3
	for i := 0; i < 3; i++ {
		if d := p[i] - lo[i]; d < best {
			best = d
			n = mgl32.Vec3{}
			n[i] = -1
		}
		if d := hi[i] - p[i]; d < best {
			best = d
			n = mgl32.Vec3{}
			n[i] = 1
		}
	}
	return best, n
}

func (b Ball) sweep(o mgl32.Vec3, r float32, dir mgl32.Vec3, length float32) (contact, bool) {
	reach := b.Radius + r
	m := o.Sub(b.Center)
	distSq := m.Dot(m)

	if distSq < reach*reach {
		dist := math32.Sqrt(distSq)
		n := mgl32.Vec3{0, 1, 0}
		if dist > 1e-6 {
			n = m.Mul(1 / dist)
		}
		if length == 0 {
			return contact{t: reach - dist, normal: n}, true
		}
		if dir.Dot(n) < 0 {
			return contact{t: 0, normal: n}, true
		}
		return contact{}, false
	}
	if length == 0 {
		return contact{}, false
	}

	proj := m.Dot(dir)
	if proj >= 0 {
		return contact{}, false
	}
	disc := proj*proj - (distSq - reach*reach)
	if disc < 0 {
		return contact{}, false
	}
	t := -proj - math32.Sqrt(disc)
	if t < 0 || t > length {
		return contact{}, false
	}
	n := o.Add(dir.Mul(t)).Sub(b.Center).Mul(1 / reach)
	return contact{t: t, normal: n}, true
}
