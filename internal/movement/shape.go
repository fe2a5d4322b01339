// Package movement turns a desired per-frame displacement into a
// collision-safe one. The environment is reached only through Oracle.
package movement

import (
	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape is a collision volume attached to an entity. The resolver never looks
// inside it; it is handed to the Oracle unchanged.
type Shape interface {
	// Extent is the radius of a sphere enclosing the shape, centred on the
	// entity position.
	Extent() float32
}

// Sphere is a ball of the given radius centred on the entity position.
type Sphere struct {
	Radius float32
}

func (s Sphere) Extent() float32 { return s.Radius }

// Hit is the nearest contact reported by a sweep.
//
// For a sweep of positive length TimeOfImpact is the fraction of
// maxDistance travelled before contact, in [0, 1]. For a zero-length sweep
// (an overlap test) it carries the penetration depth instead, so that
// pushing out along Normal by TimeOfImpact clears the overlap.
type Hit struct {
	TimeOfImpact float32
	Normal       mgl32.Vec3
}

// Oracle answers shape sweeps against the environment. Direction is a unit
// vector. The entity named by exclude is never reported.
type Oracle interface {
	Sweep(shape Shape, origin mgl32.Vec3, rotation mgl32.Quat, direction mgl32.Vec3, maxDistance float32, exclude ecs.EntityID) (Hit, bool)
}

// Transform is an entity's pose.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// NewTransform returns an unrotated transform at p.
func NewTransform(p mgl32.Vec3) *Transform {
	return &Transform{Position: p, Rotation: mgl32.QuatIdent()}
}

// Body bundles the records the resolver reads and writes for one entity.
// Transform and Velocity are updated in place.
type Body struct {
	Entity    ecs.EntityID
	Shape     Shape
	Transform *Transform
	Velocity  *mgl32.Vec3
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
