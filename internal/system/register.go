package system

import (
	"fmt"

	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/data"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/steering"
	"github.com/dudliq/locomotion/internal/world"
)

// RegisterAll registers every frame stage with the runner. The returned
// diagnostics stage exposes the running totals.
func RegisterAll(r *coresys.Runner, deps *Deps) *DiagnosticsSystem {
	resolve := NewResolveSystem(deps)
	diag := NewDiagnosticsSystem(deps)

	r.Register(NewIndexSystem(deps))
	r.Register(NewSteeringSystem(deps))
	r.Register(NewArbiterSystem(deps))
	r.Register(resolve)
	r.Register(NewDepenetrateSystem(deps, resolve))
	r.Register(NewFaceSystem(deps, resolve))
	r.Register(diag)
	r.Register(NewCleanupSystem(deps))
	return diag
}

// Settle pushes bodies spawned inside the scene back out before the first
// frame runs. The pushes are reported with the first frame's events.
func Settle(r *coresys.Runner) {
	r.TickPhase(coresys.PhaseDepenetrate, 0)
}

// Populate spawns the scene's agents into the world. Every agent gets a
// sphere collider of its radius.
func Populate(deps *Deps, scene *data.Scene, obstacles steering.ObstacleSource) error {
	for i := range scene.Agents {
		entry := &scene.Agents[i]
		target, hasTarget := entry.TargetPoint()
		for _, pos := range entry.Positions() {
			bs, err := Behaviours(deps, obstacles, entry.Behaviours)
			if err != nil {
				return fmt.Errorf("agent %q: %w", entry.Name, err)
			}
			scripted, err := Behaviours(deps, obstacles, entry.Scripts)
			if err != nil {
				return fmt.Errorf("agent %q: %w", entry.Name, err)
			}
			deps.World.Spawn(world.SpawnInfo{
				Position: pos,
				Velocity: entry.InitialVelocity(),
				Shape:    movement.Sphere{Radius: entry.Radius},
				Agent: &world.Agent{
					Radius:     entry.Radius,
					Target:     target,
					HasTarget:  hasTarget,
					Behaviours: append(bs, scripted...),
				},
			})
		}
	}
	return nil
}
