package system

import (
	"fmt"
	"time"

	"github.com/dudliq/locomotion/internal/core/ecs"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/data"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/dudliq/locomotion/internal/steering"
	"github.com/dudliq/locomotion/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// SteeringSystem runs every agent's behaviours into its context map.
// Phase 1 (Steer). Behaviours read the spatial index refreshed by
// IndexSystem and write only the agent's own map.
type SteeringSystem struct {
	deps  *Deps
	frame uint64
}

func NewSteeringSystem(deps *Deps) *SteeringSystem {
	return &SteeringSystem{deps: deps}
}

func (s *SteeringSystem) Phase() coresys.Phase { return coresys.PhaseSteer }

func (s *SteeringSystem) Update(_ time.Duration) {
	s.frame++
	w := s.deps.World
	ecs.Each3(w.Agents, w.ContextMaps, w.Transforms, func(id ecs.EntityID, agent *world.Agent, m *steering.ContextMap, tr *movement.Transform) {
		view := steering.Agent{
			Entity:    id,
			Position:  spatial.Flatten(tr.Position),
			Radius:    agent.Radius,
			Target:    agent.Target,
			HasTarget: agent.HasTarget,
			Frame:     s.frame,
		}
		if v, ok := w.Velocities.Get(id); ok {
			view.Velocity = spatial.Flatten(*v)
		}
		for _, b := range agent.Behaviours {
			b.Contribute(&view, m)
		}
	})
}

// Behaviours resolves behaviour names to implementations. Built-in names are
// configured from the [steering] section; any other name must be a Lua
// behaviour known to the scripting engine.
func Behaviours(deps *Deps, obstacles steering.ObstacleSource, names []string) ([]steering.Behaviour, error) {
	cfg := deps.Config.Steering
	out := make([]steering.Behaviour, 0, len(names))
	for _, name := range names {
		switch name {
		case data.BehaviourSeek:
			out = append(out, steering.Seek{Weight: cfg.SeekWeight, SlowRadius: cfg.SlowRadius})
		case data.BehaviourSeparation:
			out = append(out, steering.Separation{
				Index:     deps.World.Index,
				Radius:    cfg.SeparationRadius,
				Weight:    cfg.SeparationWeight,
				ViewAngle: mgl32.DegToRad(cfg.ViewAngle),
			})
		case data.BehaviourQueue:
			out = append(out, steering.Queue{Index: deps.World.Index, Lookahead: cfg.Lookahead, Weight: cfg.QueueWeight})
		case data.BehaviourAvoid:
			out = append(out, steering.AvoidObstacles{Obstacles: obstacles, Lookahead: cfg.Lookahead, Weight: cfg.AvoidWeight})
		case data.BehaviourWander:
			out = append(out, steering.Wander{Weight: cfg.WanderWeight, Rate: cfg.WanderRate})
		default:
			if deps.Scripting == nil {
				return nil, fmt.Errorf("behaviour %q: no scripting engine loaded", name)
			}
			b, err := deps.Scripting.Behaviour(name)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
	}
	return out, nil
}
