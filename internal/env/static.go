// Package env answers collision queries against the static level geometry.
// Static implements movement.Oracle for the resolver and
// steering.ObstacleSource for obstacle avoidance.
package env

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidGeometry is returned for obstacles that cannot be swept against.
var ErrInvalidGeometry = errors.New("env: invalid geometry")

// wallSlope is the largest |normal.y| for which a plane counts as a wall
// when listing obstacles for steering.
const wallSlope = 1e-3

// Static is a fixed set of obstacles. It is built before the simulation
// starts and only read afterwards, so concurrent sweeps are safe.
type Static struct {
	planes []Plane
	boxes  []Box
	balls  []Ball
}

func NewStatic() *Static {
	return &Static{}
}

// AddPlane adds p with its normal normalised.
func (s *Static) AddPlane(p Plane) error {
	l := p.Normal.Len()
	if !(l > 0) || math32.IsInf(l, 1) || math32.IsNaN(p.Offset) {
		return fmt.Errorf("%w: plane normal %v offset %v", ErrInvalidGeometry, p.Normal, p.Offset)
	}
	p.Normal = p.Normal.Mul(1 / l)
	p.Offset /= l
	s.planes = append(s.planes, p)
	return nil
}

func (s *Static) AddBox(b Box) error {
	for i := 0; i < 3; i++ {
		if !(b.Min[i] <= b.Max[i]) {
			return fmt.Errorf("%w: box min %v max %v", ErrInvalidGeometry, b.Min, b.Max)
		}
	}
	s.boxes = append(s.boxes, b)
	return nil
}

func (s *Static) AddBall(b Ball) error {
	if !(b.Radius > 0) || math32.IsInf(b.Radius, 1) {
		return fmt.Errorf("%w: ball radius %v", ErrInvalidGeometry, b.Radius)
	}
	s.balls = append(s.balls, b)
	return nil
}

// Len returns the number of obstacles.
func (s *Static) Len() int {
	return len(s.planes) + len(s.boxes) + len(s.balls)
}

// Sweep implements movement.Oracle. Shapes are swept as their enclosing
// sphere. A cast of positive length reports the nearest contact as a
// fraction of maxDistance; a zero-length cast reports the deepest overlap
// with its depth in TimeOfImpact. Obstacles owned by exclude are skipped.
func (s *Static) Sweep(shape movement.Shape, origin mgl32.Vec3, _ mgl32.Quat, direction mgl32.Vec3, maxDistance float32, exclude ecs.EntityID) (movement.Hit, bool) {
	r := shape.Extent()
	overlap := maxDistance == 0
	var best contact
	found := false

	consider := func(owner ecs.EntityID, c contact, ok bool) {
		if !ok || (owner == exclude && !exclude.IsZero()) {
			return
		}
		better := c.t < best.t
		if overlap {
			better = c.t > best.t
		}
		if !found || better {
			best, found = c, true
		}
	}

	for _, p := range s.planes {
		c, ok := p.sweep(origin, r, direction, maxDistance)
		consider(p.Owner, c, ok)
	}
	for _, b := range s.boxes {
		c, ok := b.sweep(origin, r, direction, maxDistance)
		consider(b.Owner, c, ok)
	}
	for _, b := range s.balls {
		c, ok := b.sweep(origin, r, direction, maxDistance)
		consider(b.Owner, c, ok)
	}
	if !found {
		return movement.Hit{}, false
	}
	if overlap {
		return movement.Hit{TimeOfImpact: best.t, Normal: best.normal}, true
	}
	return movement.Hit{TimeOfImpact: best.t / maxDistance, Normal: best.normal}, true
}

// ObstaclesNear implements steering.ObstacleSource. Boxes and balls are
// reported by their horizontal footprint's enclosing circle; vertical
// planes by their closest point with zero radius. Floors and slopes are
// not obstacles.
func (s *Static) ObstaclesNear(p mgl32.Vec2, radius float32, fn func(center mgl32.Vec2, radius float32)) {
	report := func(c mgl32.Vec2, r float32) {
		if c.Sub(p).Len()-r <= radius {
			fn(c, r)
		}
	}
	for _, pl := range s.planes {
		if math32.Abs(pl.Normal[1]) > wallSlope {
			continue
		}
		n := spatial.Flatten(pl.Normal)
		gap := n.Dot(p) - pl.Offset
		if gap < 0 {
			continue
		}
		report(p.Sub(n.Mul(gap)), 0)
	}
	for _, b := range s.boxes {
		lo, hi := spatial.Flatten(b.Min), spatial.Flatten(b.Max)
		report(lo.Add(hi).Mul(0.5), hi.Sub(lo).Len()/2)
	}
	for _, b := range s.balls {
		report(spatial.Flatten(b.Center), b.Radius)
	}
}
