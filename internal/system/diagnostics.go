package system

import (
	"time"

	"github.com/dudliq/locomotion/internal/core/event"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"go.uber.org/zap"
)

// Stats are running totals of the movement events seen so far.
type Stats struct {
	Frames   uint64
	Faults   int
	Contacts int
	Pushes   int
	Cells    int // occupied spatial index cells after the last frame
}

// DiagnosticsSystem delivers the frame's events and keeps running totals.
// Phase 6 (Diagnostics).
type DiagnosticsSystem struct {
	deps  *Deps
	stats Stats
}

func NewDiagnosticsSystem(deps *Deps) *DiagnosticsSystem {
	s := &DiagnosticsSystem{deps: deps}
	event.Subscribe(deps.Bus, func(e event.MotionFault) {
		s.stats.Faults++
	})
	event.Subscribe(deps.Bus, func(e event.Contact) {
		s.stats.Contacts++
	})
	event.Subscribe(deps.Bus, func(e event.Depenetrated) {
		s.stats.Pushes++
		deps.Log.Debug("depenetrated",
			zap.Uint64("entity", uint64(e.EntityID)),
			zap.Float32("depth", e.Push.Len()),
		)
	})
	return s
}

func (s *DiagnosticsSystem) Phase() coresys.Phase { return coresys.PhaseDiagnostics }

func (s *DiagnosticsSystem) Update(_ time.Duration) {
	bus := s.deps.Bus
	contacts, pushes := event.Pending[event.Contact](bus), event.Pending[event.Depenetrated](bus)
	if contacts+pushes > 0 {
		s.deps.Log.Debug("frame events",
			zap.Uint64("frame", s.stats.Frames),
			zap.Int("contacts", contacts),
			zap.Int("pushes", pushes),
		)
	}
	bus.SwapBuffers()
	bus.DispatchAll()
	s.stats.Frames++
	s.stats.Cells = s.deps.World.Index.CellCount()
}

func (s *DiagnosticsSystem) Stats() Stats { return s.stats }
