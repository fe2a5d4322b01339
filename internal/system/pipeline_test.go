package system

import (
	"math"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/dudliq/locomotion/internal/config"
	"github.com/dudliq/locomotion/internal/core/ecs"
	"github.com/dudliq/locomotion/internal/core/event"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/data"
	"github.com/dudliq/locomotion/internal/env"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/dudliq/locomotion/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const frame = 16 * time.Millisecond

// arena is a floor with a wall block whose near face is at x = 4.
func arena(t *testing.T) *env.Static {
	t.Helper()
	st := env.NewStatic()
	if err := st.AddPlane(env.Plane{Normal: mgl32.Vec3{0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := st.AddBox(env.Box{Min: mgl32.Vec3{4, 0, -10}, Max: mgl32.Vec3{5, 3, 10}}); err != nil {
		t.Fatal(err)
	}
	return st
}

func newDeps(t *testing.T, cfg *config.Config, st *env.Static) *Deps {
	t.Helper()
	ix, err := spatial.New(cfg.Spatial.Spacing)
	if err != nil {
		t.Fatal(err)
	}
	res, err := movement.NewResolver(movement.ResolverConfig{
		SkinWidth:  cfg.Resolver.SkinWidth,
		MaxBounces: cfg.Resolver.MaxBounces,
		Epsilon:    cfg.Resolver.Epsilon,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &Deps{
		Config:   cfg,
		Log:      zap.NewNop(),
		World:    world.NewState(ix),
		Bus:      event.NewBus(),
		Oracle:   st,
		Resolver: res,
	}
}

func run(r *coresys.Runner, frames int, dt time.Duration) {
	for i := 0; i < frames; i++ {
		r.Tick(dt)
	}
}

func TestSeekerStopsAtWall(t *testing.T) {
	st := arena(t)
	deps := newDeps(t, config.Default(), st)
	scene := &data.Scene{Agents: []data.AgentEntry{{
		Name:       "seeker",
		Position:   []float32{0, 0.5, 0},
		Radius:     0.5,
		Target:     []float32{10, 0},
		Behaviours: []string{data.BehaviourSeek},
		Count:      1,
	}}}
	if err := Populate(deps, scene, st); err != nil {
		t.Fatal(err)
	}
	r := coresys.NewRunner()
	diag := RegisterAll(r, deps)

	run(r, 180, frame)

	id := deps.World.Agents.IDs()[0]
	tr, _ := deps.World.Transforms.Get(id)
	if tr.Position[0] < 3 || tr.Position[0] > 3.5+1e-3 {
		t.Fatalf("x = %v, want resting against the wall at 3.5", tr.Position[0])
	}
	if tr.Position[1] < 0.5-1e-3 || tr.Position[1] > 0.6 {
		t.Fatalf("y = %v, want resting on the floor", tr.Position[1])
	}
	stats := diag.Stats()
	if stats.Contacts == 0 || stats.Faults != 0 || stats.Frames != 180 || stats.Cells != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if facing := tr.Rotation.Rotate(mgl32.Vec3{1, 0, 0}); facing[0] < 0.99 {
		t.Fatalf("agent faces %v, want +x", facing)
	}

	// the index follows the resolved position
	got := spatial.Collect(deps.World.Index.Query(spatial.Circle{Center: spatial.Flatten(tr.Position), Radius: 0.1}))
	if _, ok := got[id]; !ok {
		t.Fatalf("index lost the agent: %v", got)
	}
}

func TestFaultIsAbsorbedAndReported(t *testing.T) {
	deps := newDeps(t, config.Default(), arena(t))
	id := deps.World.Spawn(world.SpawnInfo{
		Position: mgl32.Vec3{0, 2, 0},
		Velocity: mgl32.Vec3{math32.NaN(), 0, 0},
		Shape:    movement.Sphere{Radius: 0.5},
	})
	r := coresys.NewRunner()
	diag := RegisterAll(r, deps)

	r.Tick(frame)

	tr, _ := deps.World.Transforms.Get(id)
	if tr.Position != (mgl32.Vec3{0, 2, 0}) {
		t.Fatalf("faulted entity moved to %v", tr.Position)
	}
	if v, _ := deps.World.Velocities.Get(id); *v != (mgl32.Vec3{}) {
		t.Fatalf("velocity = %v, want zero", *v)
	}
	if diag.Stats().Faults != 1 {
		t.Fatalf("stats = %+v", diag.Stats())
	}

	r.Tick(frame)
	if tr.Position[1] >= 2 {
		t.Fatal("entity did not resume moving after the fault")
	}
}

func TestZeroDtFrameChangesNothing(t *testing.T) {
	st := arena(t)
	_ = st.AddBall(env.Ball{Center: mgl32.Vec3{0, 1, 0}, Radius: 1})
	deps := newDeps(t, config.Default(), st)
	// overlapping the ball and moving
	id := deps.World.Spawn(world.SpawnInfo{
		Position: mgl32.Vec3{0.3, 1.2, 0},
		Velocity: mgl32.Vec3{2, -1, 0.5},
		Shape:    movement.Sphere{Radius: 0.5},
		Agent:    &world.Agent{Radius: 0.5},
	})
	r := coresys.NewRunner()
	RegisterAll(r, deps)

	r.Tick(0)

	tr, _ := deps.World.Transforms.Get(id)
	if tr.Rotation != mgl32.QuatIdent() {
		t.Fatalf("rotation changed at dt 0: %v", tr.Rotation)
	}
	v, _ := deps.World.Velocities.Get(id)
	want := []float32{0.3, 1.2, 0, 2, -1, 0.5}
	got := []float32{tr.Position[0], tr.Position[1], tr.Position[2], v[0], v[1], v[2]}
	for i := range want {
		if math.Float32bits(got[i]) != math.Float32bits(want[i]) {
			t.Fatalf("state changed at dt 0: %v, want %v", got, want)
		}
	}
}

func TestSettlePushesSpawnedBodiesOut(t *testing.T) {
	st := arena(t)
	if err := st.AddBall(env.Ball{Center: mgl32.Vec3{0, 1, 0}, Radius: 1}); err != nil {
		t.Fatal(err)
	}
	deps := newDeps(t, config.Default(), st)
	id := deps.World.Spawn(world.SpawnInfo{
		Position: mgl32.Vec3{0, 1.2, 0},
		Shape:    movement.Sphere{Radius: 0.5},
	})
	r := coresys.NewRunner()
	diag := RegisterAll(r, deps)

	Settle(r)

	tr, _ := deps.World.Transforms.Get(id)
	if d := tr.Position.Sub(mgl32.Vec3{0, 1, 0}).Len(); d < 1.5-1e-4 {
		t.Fatalf("still overlapping after settle: %v at distance %v", tr.Position, d)
	}
	if r.Frame() != 0 {
		t.Fatalf("settle advanced the frame counter to %d", r.Frame())
	}
	r.Tick(frame)
	if diag.Stats().Pushes == 0 {
		t.Fatalf("settle push not reported: %+v", diag.Stats())
	}
}

func TestWorkersMatchInlineResolve(t *testing.T) {
	positions := func(workers int) map[ecs.EntityID]mgl32.Vec3 {
		cfg := config.Default()
		cfg.Sim.Workers = workers
		deps := newDeps(t, cfg, arena(t))
		for i := 0; i < 300; i++ {
			deps.World.Spawn(world.SpawnInfo{
				Position: mgl32.Vec3{float32(i%20) * 0.2, 0.6 + float32(i%7)*0.3, float32(i/20) - 7},
				Velocity: mgl32.Vec3{float32(i%5) + 1, 0, float32(i%3) - 1},
				Shape:    movement.Sphere{Radius: 0.5},
			})
		}
		r := coresys.NewRunner()
		RegisterAll(r, deps)
		run(r, 30, frame)

		out := make(map[ecs.EntityID]mgl32.Vec3)
		for id, tr := range deps.World.Transforms.All() {
			out[id] = tr.Position
		}
		return out
	}

	inline, parallel := positions(1), positions(4)
	if len(inline) != 300 || len(parallel) != 300 {
		t.Fatalf("entity counts %d and %d", len(inline), len(parallel))
	}
	for id, p := range inline {
		if parallel[id] != p {
			t.Fatalf("entity %d: inline %v, parallel %v", id, p, parallel[id])
		}
	}
}

func TestDestroyedEntityLeavesIndex(t *testing.T) {
	deps := newDeps(t, config.Default(), arena(t))
	id := deps.World.Spawn(world.SpawnInfo{Position: mgl32.Vec3{1, 1, 1}, Shape: movement.Sphere{Radius: 0.5}})
	r := coresys.NewRunner()
	RegisterAll(r, deps)

	deps.World.Destroy(id)
	r.Tick(frame)

	if deps.World.Alive(id) || deps.World.Index.Len() != 0 {
		t.Fatalf("alive %v, index %d", deps.World.Alive(id), deps.World.Index.Len())
	}
}

func TestBehavioursRejectUnknownWithoutScripts(t *testing.T) {
	deps := newDeps(t, config.Default(), arena(t))
	if _, err := Behaviours(deps, nil, []string{"flee"}); err == nil {
		t.Fatal("unknown behaviour accepted")
	}
	bs, err := Behaviours(deps, nil, []string{data.BehaviourSeek, data.BehaviourWander})
	if err != nil || len(bs) != 2 || bs[0].Name() != "seek" || bs[1].Name() != "wander" {
		t.Fatalf("behaviours = %v, %v", bs, err)
	}
}
