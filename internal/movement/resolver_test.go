package movement

import (
	"errors"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl32"
)

// plane is a solid half-space {x : n·x < d} with its surface at n·x = d.
type plane struct {
	n mgl32.Vec3
	d float32
}

// planeOracle sweeps spheres against half-spaces.
type planeOracle struct {
	planes []plane
	sweeps int
}

func (o *planeOracle) Sweep(shape Shape, origin mgl32.Vec3, _ mgl32.Quat, dir mgl32.Vec3, maxDist float32, _ ecs.EntityID) (Hit, bool) {
	o.sweeps++
	r := shape.(Sphere).Radius
	var best Hit
	found := false
	for _, p := range o.planes {
		sep := p.n.Dot(origin) - p.d - r
		if maxDist == 0 {
			if sep < 0 && (!found || -sep > best.TimeOfImpact) {
				best, found = Hit{TimeOfImpact: -sep, Normal: p.n}, true
			}
			continue
		}
		approach := -dir.Dot(p.n)
		if approach <= 0 {
			continue
		}
		toi := float32(0)
		if sep > 0 {
			toi = sep / approach / maxDist
		}
		if toi > 1 {
			continue
		}
		if !found || toi < best.TimeOfImpact {
			best, found = Hit{TimeOfImpact: toi, Normal: p.n}, true
		}
	}
	return best, found
}

func wallX(at float32) plane { return plane{n: mgl32.Vec3{-1, 0, 0}, d: -at} }
func wallZ(at float32) plane { return plane{n: mgl32.Vec3{0, 0, -1}, d: -at} }

func newBody(pos, vel mgl32.Vec3) (Body, *Transform, *mgl32.Vec3) {
	tr := NewTransform(pos)
	v := vel
	return Body{Entity: 1, Shape: Sphere{Radius: 0.5}, Transform: tr, Velocity: &v}, tr, &v
}

func mustResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultResolverConfig())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewResolverRejectsDegenerateConfig(t *testing.T) {
	bad := []ResolverConfig{
		{SkinWidth: 0.01, MaxBounces: 0, Epsilon: 0.001},
		{SkinWidth: 0.01, MaxBounces: MaxPlanes + 1, Epsilon: 0.001},
		{SkinWidth: -1, MaxBounces: 4, Epsilon: 0.001},
		{SkinWidth: 0.01, MaxBounces: 4, Epsilon: 0},
		{SkinWidth: math32.NaN(), MaxBounces: 4, Epsilon: 0.001},
	}
	for _, cfg := range bad {
		if _, err := NewResolver(cfg); !errors.Is(err, ErrInvalidResolver) {
			t.Errorf("NewResolver(%+v) err = %v", cfg, err)
		}
	}
}

func TestSlideClearPath(t *testing.T) {
	r := mustResolver(t)
	b, tr, v := newBody(mgl32.Vec3{}, mgl32.Vec3{1, 0, 2})
	res := r.Resolve(&planeOracle{}, b, 0.5)

	if tr.Position != (mgl32.Vec3{0.5, 0, 1}) {
		t.Fatalf("position = %v, want (0.5, 0, 1)", tr.Position)
	}
	if *v != (mgl32.Vec3{1, 0, 2}) {
		t.Fatalf("velocity changed on a clear path: %v", *v)
	}
	if res.Contacts != 0 || res.Fault {
		t.Fatalf("result = %+v", res)
	}
}

func TestSlideHeadOnWall(t *testing.T) {
	r := mustResolver(t)
	skin := r.Config().SkinWidth
	// wall surface 2 units in front of the sphere surface
	o := &planeOracle{planes: []plane{wallX(2.5)}}
	b, tr, v := newBody(mgl32.Vec3{}, mgl32.Vec3{5, 0, 0})

	res := r.Resolve(o, b, 1)

	if got, want := tr.Position[0], 2-skin; math32.Abs(got-want) > 1e-4 {
		t.Fatalf("advanced %v, want %v", got, want)
	}
	if math32.Abs(v[0]) > 1e-4 {
		t.Fatalf("residual velocity along x = %v", v[0])
	}
	if penetration := tr.Position[0] + 0.5 - 2.5; penetration > skin+r.Config().Epsilon {
		t.Fatalf("penetrated by %v", penetration)
	}
	if res.Contacts != 1 {
		t.Fatalf("contacts = %d, want 1", res.Contacts)
	}
}

func TestSlideAlongWallKeepsTangentialTravel(t *testing.T) {
	r := mustResolver(t)
	o := &planeOracle{planes: []plane{wallX(1.5)}}
	b, tr, v := newBody(mgl32.Vec3{}, mgl32.Vec3{3, 0, 4})

	r.Resolve(o, b, 1)

	if math32.Abs(tr.Position[2]-4) > 1e-4 {
		t.Fatalf("z travel = %v, want 4", tr.Position[2])
	}
	if tr.Position[0] > 1+1e-4 {
		t.Fatalf("x = %v, went through the wall", tr.Position[0])
	}
	if math32.Abs(v[0]) > 1e-4 {
		t.Fatalf("velocity into the wall = %v", v[0])
	}
	if v[2] <= 0 || v[2] >= 4 {
		t.Fatalf("tangential velocity = %v, want in (0, 4)", v[2])
	}
}

func TestSlideConcaveCorner(t *testing.T) {
	r := mustResolver(t)
	cfg := r.Config()
	walls := []plane{wallX(2.5), wallZ(2.5)}
	o := &planeOracle{planes: walls}
	b, tr, v := newBody(mgl32.Vec3{}, mgl32.Vec3{5, 1, 5})

	res := r.Resolve(o, b, 1)

	for _, w := range walls {
		if along := v.Dot(w.n); math32.Abs(along) > 1e-4 {
			t.Fatalf("velocity %v has %v along normal %v", *v, along, w.n)
		}
		if depth := w.d + 0.5 - w.n.Dot(tr.Position); depth > cfg.SkinWidth+cfg.Epsilon {
			t.Fatalf("penetrated %v by %v", w.n, depth)
		}
	}
	if v[1] <= 0 {
		t.Fatalf("vertical motion along the crease lost: %v", *v)
	}
	if res.Contacts < 2 {
		t.Fatalf("contacts = %d, want both walls", res.Contacts)
	}
	if res.Bounces > cfg.MaxBounces {
		t.Fatalf("bounces = %d over budget", res.Bounces)
	}
}

func TestDepenetrateClearsKnownOverlap(t *testing.T) {
	r := mustResolver(t)
	o := &planeOracle{planes: []plane{wallX(2.5)}}
	// overlapping the wall by 0.3
	b, tr, _ := newBody(mgl32.Vec3{2.3, 0, 0}, mgl32.Vec3{})

	push, ok := r.Depenetrate(o, b)
	if !ok {
		t.Fatal("overlap not detected")
	}
	if math32.Abs(push.Len()-(0.3+r.Config().Epsilon)) > 1e-4 {
		t.Fatalf("push = %v", push)
	}
	if _, still := o.Sweep(b.Shape, tr.Position, tr.Rotation, down, 0, b.Entity); still {
		t.Fatalf("still overlapping at %v", tr.Position)
	}
}

func TestZeroDtIsBitExactNoop(t *testing.T) {
	r := mustResolver(t)
	o := &planeOracle{planes: []plane{wallX(0.6)}} // already overlapping
	start := mgl32.Vec3{0.3, 1.7, -2.9}
	vel := mgl32.Vec3{1.1, -0.2, 3.3}
	for _, dt := range []float32{0, -0.016} {
		b, tr, v := newBody(start, vel)
		res := r.Resolve(o, b, dt)
		if !res.Skipped {
			t.Fatalf("dt %v not skipped", dt)
		}
		for i := 0; i < 3; i++ {
			if math.Float32bits(tr.Position[i]) != math.Float32bits(start[i]) ||
				math.Float32bits(v[i]) != math.Float32bits(vel[i]) {
				t.Fatalf("dt %v changed state: pos %v vel %v", dt, tr.Position, *v)
			}
		}
	}
	if o.sweeps != 0 {
		t.Fatalf("oracle called %d times", o.sweeps)
	}
}

func TestNonFiniteVelocityIsAbsorbed(t *testing.T) {
	r := mustResolver(t)
	for _, bad := range []mgl32.Vec3{{math32.NaN(), 0, 0}, {0, math32.Inf(1), 0}} {
		b, tr, v := newBody(mgl32.Vec3{1, 2, 3}, bad)
		res := r.Resolve(&planeOracle{}, b, 1)
		if !res.Fault {
			t.Fatalf("%v: fault not reported", bad)
		}
		if tr.Position != (mgl32.Vec3{1, 2, 3}) {
			t.Fatalf("%v: entity moved to %v", bad, tr.Position)
		}
		if *v != (mgl32.Vec3{}) {
			t.Fatalf("%v: velocity not zeroed: %v", bad, *v)
		}
	}
}

type nanOracle struct{}

func (nanOracle) Sweep(Shape, mgl32.Vec3, mgl32.Quat, mgl32.Vec3, float32, ecs.EntityID) (Hit, bool) {
	return Hit{TimeOfImpact: 0.5, Normal: mgl32.Vec3{math32.NaN(), 0, 0}}, true
}

func TestBrokenOracleNormalFaults(t *testing.T) {
	r := mustResolver(t)
	b, tr, _ := newBody(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0})
	res := r.Slide(nanOracle{}, b, 1)
	if !res.Fault || res.FaultAt != 1 {
		t.Fatalf("result = %+v, want fault at bounce 1", res)
	}
	if tr.Position != (mgl32.Vec3{}) {
		t.Fatalf("moved to %v", tr.Position)
	}
}

func TestCreaseSkipsParallelNormals(t *testing.T) {
	var p planes
	n := mgl32.Vec3{-1, 0, 0}
	p.push(n)
	p.push(n)
	v := mgl32.Vec3{0, 1, 2}
	if got := p.crease(v); got != v {
		t.Fatalf("parallel planes changed %v to %v", v, got)
	}
}
