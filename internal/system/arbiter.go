package system

import (
	"time"

	"github.com/dudliq/locomotion/internal/core/ecs"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/steering"
	"github.com/dudliq/locomotion/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// ArbiterSystem reduces each context map to one desired direction, feeds it
// through the accelerator into the persistent velocity, and clears the map
// for the next frame. Every body with a collider also falls under gravity.
// Phase 2 (Arbitrate).
type ArbiterSystem struct {
	deps    *Deps
	accel   movement.Accelerator
	gravity mgl32.Vec3
}

func NewArbiterSystem(deps *Deps) *ArbiterSystem {
	mc := deps.Config.Movement
	return &ArbiterSystem{
		deps: deps,
		accel: movement.Accelerator{
			Acceleration: mc.Acceleration,
			MaxSpeed:     mc.MaxSpeed,
			Deceleration: mc.Deceleration,
		},
		gravity: mgl32.Vec3(mc.Gravity),
	}
}

func (s *ArbiterSystem) Phase() coresys.Phase { return coresys.PhaseArbitrate }

func (s *ArbiterSystem) Update(dt time.Duration) {
	w := s.deps.World
	step := seconds(dt)

	ecs.Each2(w.ContextMaps, w.Velocities, func(_ ecs.EntityID, m *steering.ContextMap, v *mgl32.Vec3) {
		s.accel.Apply(v, m.FinalMovement(), step)
		m.Reset()
	})
	ecs.Each2(w.Colliders, w.Velocities, func(_ ecs.EntityID, _ *world.Collider, v *mgl32.Vec3) {
		movement.ApplyGravity(v, s.gravity, step)
	})
}
