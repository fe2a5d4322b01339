package system

import (
	"time"

	coresys "github.com/dudliq/locomotion/internal/core/system"
)

// IndexSystem moves every tracked entity's spatial index entry to the
// position the previous frame resolved it to. Phase 0 (Index).
type IndexSystem struct {
	deps *Deps
}

func NewIndexSystem(deps *Deps) *IndexSystem {
	return &IndexSystem{deps: deps}
}

func (s *IndexSystem) Phase() coresys.Phase { return coresys.PhaseIndex }

func (s *IndexSystem) Update(_ time.Duration) {
	for _, id := range s.deps.World.Tracked.IDs() {
		s.deps.World.Reindex(id)
	}
}
