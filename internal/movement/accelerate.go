package movement

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Accelerator integrates a desired horizontal direction into a persistent
// velocity. Vertical velocity is left to gravity.
type Accelerator struct {
	Acceleration float32
	MaxSpeed     float32
	Deceleration float32
}

// DefaultAccelerator matches the movement tuning the characters ship with.
func DefaultAccelerator() Accelerator {
	return Accelerator{Acceleration: 15, MaxSpeed: 10, Deceleration: 15}
}

// desireThreshold is the squared desire length below which the agent is
// treated as wanting to stop.
const desireThreshold = 0.1

// stopSpeed is the horizontal speed under which braking snaps to rest.
const stopSpeed = 1

// Apply updates v for one step of dt seconds toward desire (x, z on the
// ground plane). Desires longer than 1 are normalised; weaker ones scale the
// acceleration. Returns the horizontal acceleration used.
func (a Accelerator) Apply(v *mgl32.Vec3, desire mgl32.Vec2, dt float32) mgl32.Vec2 {
	if !(dt > 0) {
		return mgl32.Vec2{}
	}
	horizontal := mgl32.Vec2{v[0], v[2]}

	if desire.Dot(desire) > desireThreshold {
		if desire.Dot(desire) > 1 {
			desire = desire.Normalize()
		}
		accel := desire.Mul(a.Acceleration)
		next := horizontal.Add(accel.Mul(dt))
		if speed := next.Len(); speed > a.MaxSpeed {
			next = next.Mul(a.MaxSpeed / speed)
		}
		v[0], v[2] = next[0], next[1]
		return accel
	}

	speed := horizontal.Len()
	if speed == 0 {
		return mgl32.Vec2{}
	}
	decel := horizontal.Mul(a.Deceleration / speed)
	next := horizontal.Sub(decel.Mul(dt))
	if next.Len() < stopSpeed || next.Dot(horizontal) <= 0 {
		next = mgl32.Vec2{}
	}
	v[0], v[2] = next[0], next[1]
	return decel.Mul(-1)
}

// ApplyGravity adds gravity over dt to v.
func ApplyGravity(v *mgl32.Vec3, gravity mgl32.Vec3, dt float32) {
	if !(dt > 0) {
		return
	}
	*v = v.Add(gravity.Mul(dt))
}

// FaceVelocity turns tr about +Y so its local +X axis points along the
// horizontal part of v. Below minSpeed the rotation is left as it is.
func FaceVelocity(tr *Transform, v mgl32.Vec3, minSpeed float32) bool {
	if !finite(v) || math32.Hypot(v[0], v[2]) < minSpeed {
		return false
	}
	tr.Rotation = mgl32.QuatRotate(math32.Atan2(-v[2], v[0]), mgl32.Vec3{0, 1, 0})
	return true
}
