package system

import (
	"time"

	"github.com/dudliq/locomotion/internal/core/ecs"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// minFacingSpeed keeps agents that are barely moving from spinning on noise.
const minFacingSpeed = 0.05

// FaceSystem turns every agent toward its resolved horizontal velocity, so
// the next frame's sweeps see the body oriented along its travel.
// Phase 5 (Face).
type FaceSystem struct {
	deps    *Deps
	resolve *ResolveSystem
}

func NewFaceSystem(deps *Deps, resolve *ResolveSystem) *FaceSystem {
	return &FaceSystem{deps: deps, resolve: resolve}
}

func (s *FaceSystem) Phase() coresys.Phase { return coresys.PhaseFace }

func (s *FaceSystem) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	w := s.deps.World
	ecs.Each3(w.Agents, w.Transforms, w.Velocities, func(id ecs.EntityID, _ *world.Agent, tr *movement.Transform, v *mgl32.Vec3) {
		if s.resolve.Skipped(id) {
			return
		}
		movement.FaceVelocity(tr, *v, minFacingSpeed)
	})
}
