package movement

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPlanes bounds the contact planes remembered during one slide, and so the
// bounce budget.
const MaxPlanes = 16

// ErrInvalidResolver is returned for a resolver configuration that cannot work.
var ErrInvalidResolver = errors.New("movement: invalid resolver configuration")

// creaseEpsilon is the squared cross-product length below which two contact
// normals are treated as parallel and have no crease.
const creaseEpsilon = 1e-8

var down = mgl32.Vec3{0, -1, 0}

// ResolverConfig holds the tunables of a Resolver.
type ResolverConfig struct {
	SkinWidth  float32 // distance kept from surfaces when stopping
	MaxBounces int     // sweep iterations per frame
	Epsilon    float32 // extra push beyond the reported overlap depth
}

// DefaultResolverConfig matches the tuning the controller ships with.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{SkinWidth: 0.01, MaxBounces: 8, Epsilon: 0.001}
}

// Resolver implements collide-and-slide followed by a depenetration pass.
// It holds no per-entity state and is safe for concurrent use.
type Resolver struct {
	cfg ResolverConfig
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	switch {
	case cfg.MaxBounces <= 0 || cfg.MaxBounces > MaxPlanes:
		return nil, fmt.Errorf("%w: max bounces %d not in [1, %d]", ErrInvalidResolver, cfg.MaxBounces, MaxPlanes)
	case !(cfg.SkinWidth >= 0) || math32.IsInf(cfg.SkinWidth, 1):
		return nil, fmt.Errorf("%w: skin width %v", ErrInvalidResolver, cfg.SkinWidth)
	case !(cfg.Epsilon > 0) || math32.IsInf(cfg.Epsilon, 1):
		return nil, fmt.Errorf("%w: epsilon %v", ErrInvalidResolver, cfg.Epsilon)
	}
	return &Resolver{cfg: cfg}, nil
}

func (r *Resolver) Config() ResolverConfig { return r.cfg }

// Result describes what one resolution did.
type Result struct {
	Applied  mgl32.Vec3 // displacement added to the position by the slide
	Push     mgl32.Vec3 // depenetration correction
	Bounces  int
	Contacts int
	Skipped  bool // dt <= 0
	Fault    bool // non-finite displacement; the entity did not move
	FaultAt  int  // bounce at which the fault was detected
	Residual mgl32.Vec3
}

// planes is a fixed buffer of contact normals, so a slide never allocates.
type planes struct {
	n   [MaxPlanes]mgl32.Vec3
	len int
}

func (p *planes) push(n mgl32.Vec3) {
	if p.len < MaxPlanes {
		p.n[p.len] = n
		p.len++
	}
}

// crease projects v onto the crease line of every adjacent pair of recorded
// planes, wrapping from the last plane back to the first. Pairs with parallel
// normals have no crease and are skipped.
func (p *planes) crease(v mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < p.len; i++ {
		c := p.n[i].Cross(p.n[(i+1)%p.len])
		cc := c.Dot(c)
		if cc < creaseEpsilon {
			continue
		}
		v = c.Mul(v.Dot(c) / cc)
	}
	return v
}

// Slide moves b by its velocity over dt, sliding along whatever the oracle
// reports in the way.
//
// Each bounce sweeps the remaining displacement, keeps the part that stops
// SkinWidth short of the contact, and removes the component along the
// contact normal from the rest. Once two or more planes are recorded the
// rest is also constrained to their creases, which stops the shape from
// bouncing between the faces of a concave corner.
//
// The position advances by the total kept displacement. When a contact
// happened the velocity becomes the clipped remainder carried out of the
// loop divided by dt, so running head-on into a wall leaves no speed into
// it. Without contacts the velocity is untouched. dt <= 0 does nothing.
// A non-finite displacement is absorbed: velocity is zeroed, the position
// is left as it was, and Result.Fault is set.
func (r *Resolver) Slide(o Oracle, b Body, dt float32) Result {
	var res Result
	if !(dt > 0) {
		res.Skipped = true
		return res
	}

	remaining := b.Velocity.Mul(dt)
	var applied mgl32.Vec3
	var contacts planes

	for res.Bounces < r.cfg.MaxBounces {
		if !finite(remaining) {
			res.Fault = true
			res.FaultAt = res.Bounces
			res.Residual = remaining
			*b.Velocity = mgl32.Vec3{}
			return res
		}
		lenSq := remaining.Dot(remaining)
		if lenSq == 0 {
			break
		}
		length := math32.Sqrt(lenSq)
		dir := remaining.Mul(1 / length)

		origin := b.Transform.Position.Add(applied)
		hit, ok := o.Sweep(b.Shape, origin, b.Transform.Rotation, dir, length, b.Entity)
		if !ok {
			applied = applied.Add(remaining)
			break
		}

		safe := remaining.Mul(math32.Max(hit.TimeOfImpact-r.cfg.SkinWidth/length, 0))
		applied = applied.Add(safe)
		remaining = remaining.Sub(safe)

		contacts.push(hit.Normal)
		remaining = remaining.Sub(hit.Normal.Mul(remaining.Dot(hit.Normal)))
		if contacts.len >= 2 {
			remaining = contacts.crease(remaining)
		}
		res.Bounces++
	}

	if !finite(applied) {
		res.Fault = true
		res.FaultAt = res.Bounces
		res.Residual = applied
		*b.Velocity = mgl32.Vec3{}
		return res
	}

	b.Transform.Position = b.Transform.Position.Add(applied)
	res.Applied = applied
	res.Contacts = contacts.len
	res.Residual = remaining
	if contacts.len > 0 {
		*b.Velocity = remaining.Mul(1 / dt)
	}
	return res
}

// Depenetrate tests b for overlap at its current pose and, if the oracle
// reports one, pushes it out along the contact normal by the reported depth
// plus Epsilon. Returns the push applied.
func (r *Resolver) Depenetrate(o Oracle, b Body) (mgl32.Vec3, bool) {
	hit, ok := o.Sweep(b.Shape, b.Transform.Position, b.Transform.Rotation, down, 0, b.Entity)
	if !ok {
		return mgl32.Vec3{}, false
	}
	push := hit.Normal.Mul(hit.TimeOfImpact + r.cfg.Epsilon)
	if !finite(push) {
		return mgl32.Vec3{}, false
	}
	b.Transform.Position = b.Transform.Position.Add(push)
	return push, true
}

// Resolve runs Slide and then one Depenetrate pass, however many bounces the
// slide used. A skipped or faulted slide leaves the entity where it was, so
// the depenetration pass is skipped too.
func (r *Resolver) Resolve(o Oracle, b Body, dt float32) Result {
	res := r.Slide(o, b, dt)
	if res.Skipped || res.Fault {
		return res
	}
	if push, ok := r.Depenetrate(o, b); ok {
		res.Push = push
	}
	return res
}
