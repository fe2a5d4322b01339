package system

import "time"

// Phase defines execution ordering within a single frame. The order is a
// contract: a later phase must never see a mix of updated and stale entities
// from an earlier one.
type Phase int

const (
	PhaseIndex       Phase = iota // 0: refresh spatial index from last frame's resolved positions
	PhaseSteer                    // 1: behaviours query the index and fill context maps
	PhaseArbitrate                // 2: reduce context maps, integrate into velocity, reset maps
	PhaseResolve                  // 3: collide-and-slide
	PhaseDepenetrate              // 4: push overlapping shapes back out
	PhaseFace                     // 5: turn agents toward their movement
	PhaseDiagnostics              // 6: dispatch this frame's events
	PhaseCleanup                  // 7: destroy queued entities
)

var phaseNames = [...]string{"index", "steer", "arbitrate", "resolve", "depenetrate", "face", "diagnostics", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every frame stage implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
