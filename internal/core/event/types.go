package event

import (
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl32"
)

// MotionFault reports a non-finite displacement absorbed by the resolver.
// The entity did not move this frame.
type MotionFault struct {
	EntityID     ecs.EntityID
	Bounce       int
	Displacement mgl32.Vec3
}

// Contact summarises the surfaces an entity slid against this frame.
type Contact struct {
	EntityID ecs.EntityID
	Planes   int
	Bounces  int
	Applied  mgl32.Vec3
}

// Depenetrated reports a push-out correction.
type Depenetrated struct {
	EntityID ecs.EntityID
	Push     mgl32.Vec3
}
