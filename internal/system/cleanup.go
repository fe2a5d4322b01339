package system

import (
	"time"

	coresys "github.com/dudliq/locomotion/internal/core/system"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred entity destruction queue at frame end,
// which also drops the destroyed entities from the spatial index.
// Phase 7 (Cleanup).
type CleanupSystem struct {
	deps *Deps
}

func NewCleanupSystem(deps *Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.deps.World.Flush(); n > 0 {
		s.deps.Log.Debug("entities destroyed", zap.Int("count", n))
	}
}
