package world

import (
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/dudliq/locomotion/internal/steering"
	"github.com/go-gl/mathgl/mgl32"
)

// Collider is the collision volume an entity is resolved with.
type Collider struct {
	Shape movement.Shape
}

// Agent holds the steering setup of an entity that picks its own direction.
type Agent struct {
	Radius     float32
	Target     mgl32.Vec2
	HasTarget  bool
	Behaviours []steering.Behaviour // built-in and scripted, applied in order
}

// Tracked is the horizontal position the spatial index last saw for an
// entity. The index has no reverse map, so updates and removals need it.
type Tracked struct {
	Position mgl32.Vec2
}

// SpawnInfo describes a new entity. Shape and Agent are optional.
type SpawnInfo struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Shape    movement.Shape
	Agent    *Agent
}

// State owns every per-entity record of the simulation and the spatial index
// they are tracked in. Single-goroutine access only (frame loop); the resolve
// stage hands disjoint entities to workers but never changes membership.
type State struct {
	ecs *ecs.World

	Transforms  *ecs.Store[movement.Transform]
	Velocities  *ecs.Store[mgl32.Vec3]
	ContextMaps *ecs.Store[steering.ContextMap]
	Colliders   *ecs.Store[Collider]
	Tracked     *ecs.Store[Tracked]
	Agents      *ecs.Store[Agent]

	Index *spatial.Index
}

func NewState(index *spatial.Index) *State {
	s := &State{
		ecs:         ecs.NewWorld(),
		Transforms:  ecs.NewStore[movement.Transform](),
		Velocities:  ecs.NewStore[mgl32.Vec3](),
		ContextMaps: ecs.NewStore[steering.ContextMap](),
		Colliders:   ecs.NewStore[Collider](),
		Tracked:     ecs.NewStore[Tracked](),
		Agents:      ecs.NewStore[Agent](),
		Index:       index,
	}
	s.ecs.Register(s.Transforms)
	s.ecs.Register(s.Velocities)
	s.ecs.Register(s.ContextMaps)
	s.ecs.Register(s.Colliders)
	s.ecs.Register(s.Tracked)
	s.ecs.Register(s.Agents)
	s.ecs.OnDestroy(s.untrack)
	return s
}

// Spawn creates an entity and starts tracking it in the spatial index.
func (s *State) Spawn(info SpawnInfo) ecs.EntityID {
	id := s.ecs.CreateEntity()

	s.Transforms.Set(id, movement.NewTransform(info.Position))
	v := info.Velocity
	s.Velocities.Set(id, &v)
	if info.Shape != nil {
		s.Colliders.Set(id, &Collider{Shape: info.Shape})
	}
	if info.Agent != nil {
		a := *info.Agent
		s.Agents.Set(id, &a)
		s.ContextMaps.Set(id, steering.NewContextMap())
	}

	flat := spatial.Flatten(info.Position)
	s.Tracked.Set(id, &Tracked{Position: flat})
	s.Index.Insert(flat, id)
	return id
}

// Destroy queues id for removal at the end of the frame.
func (s *State) Destroy(id ecs.EntityID) {
	s.ecs.MarkForDestruction(id)
}

// Flush removes every entity queued by Destroy. Returns how many went.
func (s *State) Flush() int {
	return s.ecs.FlushDestroyQueue()
}

func (s *State) Alive(id ecs.EntityID) bool {
	return s.ecs.Alive(id)
}

// Count returns the number of live entities.
func (s *State) Count() int {
	return s.ecs.Pool().Len()
}

// Body returns the records the resolver needs for id. Entities without a
// collider are not resolved.
func (s *State) Body(id ecs.EntityID) (movement.Body, bool) {
	tr, ok := s.Transforms.Get(id)
	if !ok {
		return movement.Body{}, false
	}
	v, ok := s.Velocities.Get(id)
	if !ok {
		return movement.Body{}, false
	}
	c, ok := s.Colliders.Get(id)
	if !ok {
		return movement.Body{}, false
	}
	return movement.Body{Entity: id, Shape: c.Shape, Transform: tr, Velocity: v}, true
}

// Reindex moves id's index entry to its current position.
func (s *State) Reindex(id ecs.EntityID) {
	tr, ok := s.Transforms.Get(id)
	if !ok {
		return
	}
	t, ok := s.Tracked.Get(id)
	if !ok {
		return
	}
	next := spatial.Flatten(tr.Position)
	s.Index.Update(id, t.Position, next)
	t.Position = next
}

func (s *State) untrack(id ecs.EntityID) {
	if t, ok := s.Tracked.Get(id); ok {
		s.Index.Remove(t.Position, id)
	}
}
