package system

import (
	"time"

	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/dudliq/locomotion/internal/core/event"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// DepenetrateSystem pushes every body still overlapping the environment back
// out, once per frame. Bodies the slide left untouched are skipped.
// Phase 4 (Depenetrate).
type DepenetrateSystem struct {
	deps    *Deps
	resolve *ResolveSystem
}

func NewDepenetrateSystem(deps *Deps, resolve *ResolveSystem) *DepenetrateSystem {
	return &DepenetrateSystem{deps: deps, resolve: resolve}
}

func (s *DepenetrateSystem) Phase() coresys.Phase { return coresys.PhaseDepenetrate }

func (s *DepenetrateSystem) Update(_ time.Duration) {
	w := s.deps.World
	ecs.Each3(w.Transforms, w.Velocities, w.Colliders, func(id ecs.EntityID, tr *movement.Transform, v *mgl32.Vec3, c *world.Collider) {
		if s.resolve.Skipped(id) {
			return
		}
		b := movement.Body{Entity: id, Shape: c.Shape, Transform: tr, Velocity: v}
		if push, ok := s.deps.Resolver.Depenetrate(s.deps.Oracle, b); ok {
			event.Emit(s.deps.Bus, event.Depenetrated{EntityID: id, Push: push})
		}
	})
}
