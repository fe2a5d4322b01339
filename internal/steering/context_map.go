// Package steering implements the context-map arbiter: behaviours write
// per-direction interest and danger, and the map reduces them to a single
// movement vector once per frame.
package steering

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DirectionCount is the number of compass slots in a ContextMap.
const DirectionCount = 8

// directions holds unit vectors at 45° steps starting at angle 0. Shared by
// every map since they never change.
var directions = func() [DirectionCount]mgl32.Vec2 {
	var d [DirectionCount]mgl32.Vec2
	for i := range d {
		angle := float32(i) * (2 * math32.Pi / DirectionCount)
		d[i] = mgl32.Vec2{math32.Cos(angle), math32.Sin(angle)}
	}
	return d
}()

// ContextMap accumulates interest and danger for one entity during a frame.
// Slots combine by maximum, never by sum: several behaviours proposing the
// same direction reinforce only the strongest proposal. Values stay
// non-negative.
type ContextMap struct {
	interest [DirectionCount]float32
	danger   [DirectionCount]float32
}

func NewContextMap() *ContextMap {
	return &ContextMap{}
}

// AddInterest raises interest in direction to value if it is larger.
// Out-of-range directions are ignored.
func (m *ContextMap) AddInterest(direction int, value float32) {
	if direction >= 0 && direction < DirectionCount && m.interest[direction] < value {
		m.interest[direction] = value
	}
}

// AddDanger raises danger in direction to value if it is larger.
func (m *ContextMap) AddDanger(direction int, value float32) {
	if direction >= 0 && direction < DirectionCount && m.danger[direction] < value {
		m.danger[direction] = value
	}
}

// AddVectorInterest spreads v over the slots within 90° of it, each
// receiving |v| times the cosine of the angle between them.
func (m *ContextMap) AddVectorInterest(v mgl32.Vec2) {
	spread(&m.interest, v)
}

// AddVectorDanger is the danger mirror of AddVectorInterest.
func (m *ContextMap) AddVectorDanger(v mgl32.Vec2) {
	spread(&m.danger, v)
}

func spread(slots *[DirectionCount]float32, v mgl32.Vec2) {
	magnitude := v.Len()
	if magnitude == 0 || math32.IsNaN(magnitude) || math32.IsInf(magnitude, 0) {
		return
	}
	normalized := v.Mul(1 / magnitude)
	for i, dir := range directions {
		dot := normalized.Dot(dir)
		if dot <= 0 {
			continue
		}
		if val := magnitude * dot; slots[i] < val {
			slots[i] = val
		}
	}
}

// FinalMovement picks the direction with the strictly greatest
// interest-minus-danger score, lowest index on ties, and returns that
// direction scaled by its score.
//
// A map that received nothing returns the zero vector, which is how "no
// movement" is expressed: callers add the result to a desire, so zero is
// neutral. When danger outweighs interest everywhere the best score is
// negative and the result points away from the least dangerous slot.
func (m *ContextMap) FinalMovement() mgl32.Vec2 {
	best := 0
	bestScore := math32.Inf(-1)
	for d := 0; d < DirectionCount; d++ {
		if score := m.interest[d] - m.danger[d]; score > bestScore {
			bestScore = score
			best = d
		}
	}
	return directions[best].Mul(bestScore)
}

// Reset zeroes both arrays. Called once per frame after FinalMovement.
func (m *ContextMap) Reset() {
	m.interest = [DirectionCount]float32{}
	m.danger = [DirectionCount]float32{}
}

func (m *ContextMap) Interest(direction int) float32 { return m.interest[direction] }
func (m *ContextMap) Danger(direction int) float32   { return m.danger[direction] }

// Direction returns the unit vector of a slot.
func Direction(direction int) mgl32.Vec2 { return directions[direction] }

// DirectionOf returns the slot whose direction is closest to v.
func DirectionOf(v mgl32.Vec2) int {
	angle := math32.Atan2(v[1], v[0])
	if angle < 0 {
		angle += 2 * math32.Pi
	}
	return int(math32.Round(angle/(2*math32.Pi/DirectionCount))) % DirectionCount
}
