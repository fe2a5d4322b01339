package system

import (
	"time"

	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/dudliq/locomotion/internal/core/event"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/movement"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// minBatch is the smallest slice of bodies handed to one worker.
const minBatch = 64

// ResolveSystem slides every body with a collider along its velocity.
// Phase 3 (Resolve).
//
// Bodies are gathered on the frame goroutine first; with Workers > 1 the
// slides are then split into batches run on an errgroup. Each body touches
// only its own transform and velocity, and the oracle is read-only, so the
// batches share nothing. Events are emitted after the group joins, in
// entity order.
type ResolveSystem struct {
	deps    *Deps
	workers int

	ids     []ecs.EntityID
	bodies  []movement.Body
	results []movement.Result
	skip    map[ecs.EntityID]struct{}
}

func NewResolveSystem(deps *Deps) *ResolveSystem {
	return &ResolveSystem{
		deps:    deps,
		workers: max(deps.Config.Sim.Workers, 1),
		skip:    make(map[ecs.EntityID]struct{}),
	}
}

func (s *ResolveSystem) Phase() coresys.Phase { return coresys.PhaseResolve }

func (s *ResolveSystem) Update(dt time.Duration) {
	w := s.deps.World
	step := seconds(dt)
	clear(s.skip)

	s.ids = ecs.Join3(w.Transforms, w.Velocities, w.Colliders)
	s.bodies = s.bodies[:0]
	for _, id := range s.ids {
		b, _ := w.Body(id)
		s.bodies = append(s.bodies, b)
	}
	if cap(s.results) < len(s.bodies) {
		s.results = make([]movement.Result, len(s.bodies))
	}
	s.results = s.results[:len(s.bodies)]

	s.slide(step)

	for i, res := range s.results {
		id := s.ids[i]
		switch {
		case res.Skipped:
			s.skip[id] = struct{}{}
		case res.Fault:
			s.skip[id] = struct{}{}
			s.deps.Log.Warn("non-finite displacement absorbed",
				zap.Uint64("entity", uint64(id)),
				zap.Int("bounce", res.FaultAt),
			)
			event.Emit(s.deps.Bus, event.MotionFault{EntityID: id, Bounce: res.FaultAt, Displacement: res.Residual})
		case res.Contacts > 0:
			event.Emit(s.deps.Bus, event.Contact{EntityID: id, Planes: res.Contacts, Bounces: res.Bounces, Applied: res.Applied})
		}
	}
}

func (s *ResolveSystem) slide(step float32) {
	r, o := s.deps.Resolver, s.deps.Oracle
	n := len(s.bodies)
	if s.workers <= 1 || n < 2*minBatch {
		for i := range s.bodies {
			s.results[i] = r.Slide(o, s.bodies[i], step)
		}
		return
	}

	batch := max((n+s.workers-1)/s.workers, minBatch)
	var g errgroup.Group
	g.SetLimit(s.workers)
	for lo := 0; lo < n; lo += batch {
		hi := min(lo+batch, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				s.results[i] = r.Slide(o, s.bodies[i], step)
			}
			return nil
		})
	}
	_ = g.Wait() // batches never fail
}

// Skipped reports whether id was left untouched by this frame's slide,
// because dt was not positive or its displacement was not finite.
func (s *ResolveSystem) Skipped(id ecs.EntityID) bool {
	_, ok := s.skip[id]
	return ok
}
