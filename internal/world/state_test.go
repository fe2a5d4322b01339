package world

import (
	"testing"

	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

func newState(t *testing.T) *State {
	t.Helper()
	ix, err := spatial.New(4)
	if err != nil {
		t.Fatal(err)
	}
	return NewState(ix)
}

func TestSpawnTracksAndBuildsBody(t *testing.T) {
	s := newState(t)
	mover := s.Spawn(SpawnInfo{
		Position: mgl32.Vec3{1, 2, 3},
		Velocity: mgl32.Vec3{4, 0, 0},
		Shape:    movement.Sphere{Radius: 0.5},
		Agent:    &Agent{Radius: 0.5},
	})
	marker := s.Spawn(SpawnInfo{Position: mgl32.Vec3{-1, 0, -1}})

	if s.Count() != 2 || s.Index.Len() != 2 {
		t.Fatalf("count %d index %d, want 2 and 2", s.Count(), s.Index.Len())
	}
	b, ok := s.Body(mover)
	if !ok {
		t.Fatal("mover has no body")
	}
	if b.Transform.Position != (mgl32.Vec3{1, 2, 3}) || *b.Velocity != (mgl32.Vec3{4, 0, 0}) {
		t.Fatalf("body = %+v", b)
	}
	if !s.ContextMaps.Has(mover) {
		t.Fatal("agent has no context map")
	}
	if _, ok := s.Body(marker); ok {
		t.Fatal("entity without collider produced a body")
	}
}

func TestReindexAndDestroyKeepIndexInSync(t *testing.T) {
	s := newState(t)
	id := s.Spawn(SpawnInfo{Position: mgl32.Vec3{1, 0, 1}})

	tr, _ := s.Transforms.Get(id)
	tr.Position = mgl32.Vec3{21, 5, -13}
	s.Reindex(id)

	got := spatial.Collect(s.Index.Query(spatial.Circle{Center: mgl32.Vec2{21, -13}, Radius: 0.5}))
	if p, ok := got[id]; !ok || p != (mgl32.Vec2{21, -13}) {
		t.Fatalf("reindexed query = %v", got)
	}
	if tk, _ := s.Tracked.Get(id); tk.Position != (mgl32.Vec2{21, -13}) {
		t.Fatalf("tracked = %v", tk.Position)
	}

	s.Destroy(id)
	if n := s.Flush(); n != 1 {
		t.Fatalf("flushed %d, want 1", n)
	}
	if s.Alive(id) || s.Index.Len() != 0 || s.Transforms.Has(id) {
		t.Fatal("destroyed entity left behind")
	}
}
