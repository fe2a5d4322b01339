package data

import (
	"fmt"
	"os"

	"github.com/dudliq/locomotion/internal/env"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Built-in behaviour names accepted in agent entries.
const (
	BehaviourSeek       = "seek"
	BehaviourSeparation = "separation"
	BehaviourAvoid      = "avoid"
	BehaviourWander     = "wander"
	BehaviourQueue      = "queue"
)

var knownBehaviours = map[string]bool{
	BehaviourSeek:       true,
	BehaviourSeparation: true,
	BehaviourAvoid:      true,
	BehaviourWander:     true,
	BehaviourQueue:      true,
}

// PlaneEntry is an infinite wall or floor.
type PlaneEntry struct {
	Normal []float32 `yaml:"normal"`
	Offset float32   `yaml:"offset"`
	Note   string    `yaml:"note"`
}

// BoxEntry is an axis-aligned block.
type BoxEntry struct {
	Min  []float32 `yaml:"min"`
	Max  []float32 `yaml:"max"`
	Note string    `yaml:"note"`
}

// BallEntry is a static sphere.
type BallEntry struct {
	Center []float32 `yaml:"center"`
	Radius float32   `yaml:"radius"`
	Note   string    `yaml:"note"`
}

// AgentEntry spawns Count agents in a row along +x, Spread apart.
type AgentEntry struct {
	Name       string    `yaml:"name"`
	Position   []float32 `yaml:"position"`
	Velocity   []float32 `yaml:"velocity"`
	Radius     float32   `yaml:"radius"`
	Target     []float32 `yaml:"target"` // horizontal (x, z); omit for none
	Behaviours []string  `yaml:"behaviours"`
	Scripts    []string  `yaml:"scripts"`
	Count      int       `yaml:"count"`
	Spread     float32   `yaml:"spread"`
}

// Scene is the static geometry and the agents of one simulation run.
type Scene struct {
	Planes []PlaneEntry `yaml:"planes"`
	Boxes  []BoxEntry   `yaml:"boxes"`
	Balls  []BallEntry  `yaml:"balls"`
	Agents []AgentEntry `yaml:"agents"`
}

// LoadScene loads and checks a scene file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scene) check() error {
	for i := range s.Agents {
		a := &s.Agents[i]
		if _, err := vec3(a.Position, "position"); err != nil {
			return fmt.Errorf("agent %q: %w", a.Name, err)
		}
		if a.Velocity != nil {
			if _, err := vec3(a.Velocity, "velocity"); err != nil {
				return fmt.Errorf("agent %q: %w", a.Name, err)
			}
		}
		if a.Target != nil && len(a.Target) != 2 {
			return fmt.Errorf("agent %q: target needs 2 components, got %d", a.Name, len(a.Target))
		}
		if !(a.Radius > 0) {
			return fmt.Errorf("agent %q: radius must be positive", a.Name)
		}
		for _, b := range a.Behaviours {
			if !knownBehaviours[b] {
				return fmt.Errorf("agent %q: unknown behaviour %q", a.Name, b)
			}
		}
		if a.Count == 0 {
			a.Count = 1
		}
		if a.Count < 0 {
			return fmt.Errorf("agent %q: negative count", a.Name)
		}
	}
	return nil
}

// AgentCount returns how many agents the scene spawns.
func (s *Scene) AgentCount() int {
	n := 0
	for _, a := range s.Agents {
		n += a.Count
	}
	return n
}

// Build adds the scene's geometry to st.
func (s *Scene) Build(st *env.Static) error {
	for i, p := range s.Planes {
		n, err := vec3(p.Normal, "normal")
		if err != nil {
			return fmt.Errorf("plane %d: %w", i, err)
		}
		if err := st.AddPlane(env.Plane{Normal: n, Offset: p.Offset}); err != nil {
			return fmt.Errorf("plane %d: %w", i, err)
		}
	}
	for i, b := range s.Boxes {
		lo, err := vec3(b.Min, "min")
		if err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
		hi, err := vec3(b.Max, "max")
		if err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
		if err := st.AddBox(env.Box{Min: lo, Max: hi}); err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
	}
	for i, b := range s.Balls {
		c, err := vec3(b.Center, "center")
		if err != nil {
			return fmt.Errorf("ball %d: %w", i, err)
		}
		if err := st.AddBall(env.Ball{Center: c, Radius: b.Radius}); err != nil {
			return fmt.Errorf("ball %d: %w", i, err)
		}
	}
	return nil
}

// Positions returns the spawn position of each of the entry's agents.
func (a *AgentEntry) Positions() []mgl32.Vec3 {
	base, _ := vec3(a.Position, "position")
	out := make([]mgl32.Vec3, a.Count)
	for i := range out {
		out[i] = base.Add(mgl32.Vec3{float32(i) * a.Spread, 0, 0})
	}
	return out
}

// InitialVelocity returns the entry's starting velocity, zero if unset.
func (a *AgentEntry) InitialVelocity() mgl32.Vec3 {
	v, _ := vec3(a.Velocity, "velocity")
	return v
}

// TargetPoint returns the horizontal target and whether one is set.
func (a *AgentEntry) TargetPoint() (mgl32.Vec2, bool) {
	if len(a.Target) != 2 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{a.Target[0], a.Target[1]}, true
}

func vec3(v []float32, field string) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("%s needs 3 components, got %d", field, len(v))
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}
