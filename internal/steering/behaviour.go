package steering

import (
	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

// Agent is the view of one steering entity a behaviour works from. All
// vectors are on the horizontal plane.
type Agent struct {
	Entity    ecs.EntityID
	Position  mgl32.Vec2
	Velocity  mgl32.Vec2
	Radius    float32
	Target    mgl32.Vec2
	HasTarget bool
	Frame     uint64
}

// Behaviour contributes interest and/or danger for one agent. Behaviours
// only read shared state; the map they write belongs to the agent.
type Behaviour interface {
	Name() string
	Contribute(a *Agent, m *ContextMap)
}

// Seek draws the agent toward its target, easing off inside SlowRadius.
type Seek struct {
	Weight     float32
	SlowRadius float32
}

func (Seek) Name() string { return "seek" }

func (s Seek) Contribute(a *Agent, m *ContextMap) {
	if !a.HasTarget {
		return
	}
	to := a.Target.Sub(a.Position)
	dist := to.Len()
	if dist < 1e-4 {
		return
	}
	strength := s.Weight
	if s.SlowRadius > 0 && dist < s.SlowRadius {
		strength *= dist / s.SlowRadius
	}
	m.AddVectorInterest(to.Mul(strength / dist))
}

// Separation marks danger toward neighbours closer than Radius, stronger the
// closer they are. Neighbours come from the spatial index. With a ViewAngle
// (half-angle, radians) below π a moving agent only reacts to neighbours
// inside its forward view cone.
type Separation struct {
	Index     *spatial.Index
	Radius    float32
	Weight    float32
	ViewAngle float32
}

func (Separation) Name() string { return "separation" }

func (s Separation) Contribute(a *Agent, m *ContextMap) {
	if s.Index == nil || s.Radius <= 0 {
		return
	}
	reach := s.Radius + a.Radius
	near := s.Index.Query(spatial.Circle{Center: a.Position, Radius: reach})
	if s.ViewAngle > 0 && s.ViewAngle < math32.Pi && a.Velocity.Len() >= 1e-4 {
		near = spatial.InCone(near, spatial.Cone{
			Apex:      a.Position,
			Direction: a.Velocity,
			HalfAngle: s.ViewAngle,
			Range:     reach,
		})
	}
	for id, p := range near {
		if id == a.Entity {
			continue
		}
		to := p.Sub(a.Position)
		dist := to.Len()
		if dist < 1e-4 {
			continue
		}
		m.AddVectorDanger(to.Mul(s.Weight * (1 - dist/reach) / dist))
	}
}

// Queue marks danger toward neighbours standing in the agent's lane: the box
// Lookahead long ahead of its heading and wide enough for two agents of its
// radius to pass. Heading is the velocity, or the target when standing still.
type Queue struct {
	Index     *spatial.Index
	Lookahead float32
	Weight    float32
}

func (Queue) Name() string { return "queue" }

func (q Queue) Contribute(a *Agent, m *ContextMap) {
	if q.Index == nil || q.Lookahead <= 0 {
		return
	}
	heading := a.Velocity
	if heading.Len() < 1e-4 {
		if !a.HasTarget {
			return
		}
		heading = a.Target.Sub(a.Position)
	}
	l := heading.Len()
	if l < 1e-4 {
		return
	}
	lane := spatial.OrientedBox{
		Start: a.Position,
		End:   a.Position.Add(heading.Mul(q.Lookahead / l)),
		Width: 4 * a.Radius,
	}
	reach := q.Lookahead + 2*a.Radius
	near := q.Index.Query(spatial.Circle{Center: a.Position, Radius: reach})
	for id, p := range spatial.InOrientedBox(near, lane) {
		if id == a.Entity {
			continue
		}
		to := p.Sub(a.Position)
		dist := to.Len()
		if dist < 1e-4 {
			continue
		}
		m.AddDanger(DirectionOf(to), q.Weight*(1-dist/reach))
	}
}

// ObstacleSource lists static obstacles near a point as horizontal circles.
type ObstacleSource interface {
	ObstaclesNear(p mgl32.Vec2, radius float32, fn func(center mgl32.Vec2, radius float32))
}

// AvoidObstacles marks danger toward static obstacles whose surface is
// within Lookahead of the agent's surface.
type AvoidObstacles struct {
	Obstacles ObstacleSource
	Lookahead float32
	Weight    float32
}

func (AvoidObstacles) Name() string { return "avoid" }

func (o AvoidObstacles) Contribute(a *Agent, m *ContextMap) {
	if o.Obstacles == nil || o.Lookahead <= 0 {
		return
	}
	o.Obstacles.ObstaclesNear(a.Position, a.Radius+o.Lookahead, func(c mgl32.Vec2, r float32) {
		to := c.Sub(a.Position)
		dist := to.Len()
		if dist < 1e-4 {
			return
		}
		gap := dist - r - a.Radius
		if gap >= o.Lookahead {
			return
		}
		strength := o.Weight * mgl32.Clamp(1-gap/o.Lookahead, 0, 1)
		m.AddVectorDanger(to.Mul(strength / dist))
	})
}

// Wander adds a slowly turning interest that is a pure function of the
// entity and frame number, so runs are reproducible.
type Wander struct {
	Weight float32
	Rate   float32 // radians per frame
}

func (Wander) Name() string { return "wander" }

func (w Wander) Contribute(a *Agent, m *ContextMap) {
	phase := float32(a.Entity.Index()) * 2.399963 // golden angle
	angle := phase + w.Rate*float32(a.Frame) + 0.5*math32.Sin(float32(a.Frame)*w.Rate*3.7+phase)
	m.AddVectorInterest(mgl32.Vec2{math32.Cos(angle), math32.Sin(angle)}.Mul(w.Weight))
}
